package search

import "testing"

func TestTopK_RanksByJaccard(t *testing.T) {
	idx := NewIndex([]Document{
		{ID: "a", Text: "Backend roadmap: learn Go, SQL and Kubernetes"},
		{ID: "b", Text: "Product manager roadmap with stakeholder skills"},
		{ID: "c", Text: "Go"},
		{ID: "empty", Text: "the and of"},
	})
	if idx.Len() != 3 {
		t.Fatalf("stop-word-only documents should be skipped, Len=%d", idx.Len())
	}

	got := idx.TopK("go kubernetes", 0)
	if len(got) != 2 {
		t.Fatalf("want 2 matches, got %+v", got)
	}
	// "c" = {go}: 1/2; "a" has 6 tokens: 2/6
	if got[0].ID != "c" || got[1].ID != "a" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[0].Score <= got[1].Score {
		t.Fatalf("scores should be descending: %+v", got)
	}
}

func TestTopK_LimitsAndEdgeCases(t *testing.T) {
	idx := NewIndex([]Document{{ID: "x", Text: "go go go"}, {ID: "y", Text: "go"}})
	if r := idx.TopK("go", 1); len(r) != 1 || r[0].ID != "x" {
		t.Fatalf("tie should break on id, got %+v", r)
	}
	if r := idx.TopK("   ", 3); r != nil {
		t.Fatalf("blank query should return nil")
	}
	if r := idx.TopK("the", 3); r != nil {
		t.Fatalf("stop-word query should return nil")
	}
	if r := NewIndex(nil).TopK("go", 3); r != nil {
		t.Fatalf("empty index should return nil")
	}
}

func TestWithMinScore(t *testing.T) {
	idx := NewIndex([]Document{{ID: "long", Text: "go rust java python ruby elixir"}}, WithMinScore(0.5))
	if r := idx.TopK("go", 0); len(r) != 0 {
		t.Fatalf("low scores should be filtered, got %+v", r)
	}
}

func TestWithStopwords(t *testing.T) {
	idx := NewIndex([]Document{{ID: "d", Text: "the plan"}}, WithStopwords([]string{"plan"}))
	if r := idx.TopK("the", 0); len(r) != 1 {
		t.Fatalf("custom stop words should replace defaults, got %+v", r)
	}
}

func TestTokenize_KeepsTechTerms(t *testing.T) {
	toks := tokenize("C# and C++ with 3D and Go1", nil)
	for _, want := range []string{"c#", "c++", "3d", "go1"} {
		if _, ok := toks[want]; !ok {
			t.Fatalf("missing token %q in %v", want, toks)
		}
	}
}

func TestFlattenMarkdown(t *testing.T) {
	md := "## Learning Path\n- **Go** basics\n\n| Month | Goal |\n|---|:---:|\n| 1 | `SQL` |\n"
	want := "Learning Path\nGo basics\nMonth Goal\n1 SQL"
	if got := FlattenMarkdown(md); got != want {
		t.Fatalf("FlattenMarkdown = %q, want %q", got, want)
	}
}
