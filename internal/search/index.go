// Package search ranks a small set of documents against a free-text query.
// It backs keyword search over an identity's artifact history, where the
// candidate set is at most a few hundred rows and is built per request.
//
// Scoring uses Jaccard similarity between the query token set and each
// document's token set: score = |Q ∩ D| / |Q ∪ D|. Ties break on the
// shorter document, then on ID, so results are deterministic. An Index is
// immutable after construction and safe for concurrent use.
package search

import (
	"regexp"
	"sort"
	"strings"
)

// Document is one searchable item.
type Document struct {
	ID   string
	Text string
}

// Result is a ranked document id with its similarity score.
type Result struct {
	ID    string
	Score float64
}

// Option configures an Index.
type Option func(*config)

type config struct {
	stopwords map[string]struct{}
	minScore  float64
}

func defaultConfig() config {
	return config{stopwords: defaultStopwords, minScore: 0}
}

// WithStopwords replaces the default English stop-word list.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		c.stopwords = m
	}
}

// WithMinScore drops results scoring below s.
func WithMinScore(s float64) Option {
	return func(c *config) {
		if s >= 0 && s <= 1 {
			c.minScore = s
		}
	}
}

type doc struct {
	id     string
	tokens map[string]struct{}
}

// Index is an in-memory Jaccard index.
type Index struct {
	cfg  config
	docs []doc
}

// NewIndex tokenizes docs. Documents without any token are skipped.
func NewIndex(docs []Document, opts ...Option) *Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	idx := &Index{cfg: cfg, docs: make([]doc, 0, len(docs))}
	for _, d := range docs {
		toks := tokenize(d.Text, cfg.stopwords)
		if len(toks) == 0 {
			continue
		}
		idx.docs = append(idx.docs, doc{id: d.ID, tokens: toks})
	}
	return idx
}

// Len reports how many documents were indexed.
func (i *Index) Len() int { return len(i.docs) }

// TopK returns up to k best-matching documents. k <= 0 means all matches.
func (i *Index) TopK(q string, k int) []Result {
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 || len(i.docs) == 0 {
		return nil
	}

	type scored struct {
		id    string
		score float64
		size  int
	}
	buf := make([]scored, 0, len(i.docs))
	for _, d := range i.docs {
		over := overlap(qTokens, d.tokens)
		if over == 0 {
			continue
		}
		score := float64(over) / float64(len(qTokens)+len(d.tokens)-over)
		if score < i.cfg.minScore {
			continue
		}
		buf = append(buf, scored{id: d.id, score: score, size: len(d.tokens)})
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].score != buf[b].score {
			return buf[a].score > buf[b].score
		}
		if buf[a].size != buf[b].size {
			return buf[a].size < buf[b].size
		}
		return buf[a].id < buf[b].id
	})

	if k > 0 && k < len(buf) {
		buf = buf[:k]
	}
	out := make([]Result, len(buf))
	for n, s := range buf {
		out[n] = Result{ID: s.id, Score: s.score}
	}
	return out
}

var wordRE = regexp.MustCompile(`\p{L}+[\p{N}+#]*|\p{N}+\p{L}*`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(strings.ToLower(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, skip := stop[w]; skip {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

var defaultStopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"is": {}, "are": {}, "for": {}, "on": {}, "with": {}, "by": {}, "from": {},
	"my": {}, "your": {}, "at": {}, "as": {}, "be": {}, "this": {}, "that": {},
}
