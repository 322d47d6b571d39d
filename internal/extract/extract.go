// Package extract pulls plain text out of uploaded resumes.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	MIMEPlain = "text/plain"
	MIMEPDF   = "application/pdf"
	MIMEDOCX  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	// ErrUnsupportedType is returned for formats other than PDF, DOCX and text.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrNoText is returned when a document parses but holds no text.
	ErrNoText = errors.New("no text could be extracted")
)

// DetectMIME picks a MIME type from the declared type, the file extension
// and finally the content itself.
func DetectMIME(declared, fileName string, data []byte) string {
	declared = strings.ToLower(strings.TrimSpace(strings.SplitN(declared, ";", 2)[0]))
	switch declared {
	case MIMEPlain, MIMEPDF, MIMEDOCX:
		return declared
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return MIMEPDF
	case ".docx":
		return MIMEDOCX
	case ".txt", ".md":
		return MIMEPlain
	}
	sniffed := http.DetectContentType(data)
	switch {
	case strings.HasPrefix(sniffed, "application/pdf"):
		return MIMEPDF
	case strings.HasPrefix(sniffed, "text/plain"):
		return MIMEPlain
	}
	return sniffed
}

// ResumeText extracts text from data of the given MIME type.
func ResumeText(mime string, data []byte) (string, error) {
	var (
		text string
		err  error
	)
	switch mime {
	case MIMEPlain:
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: text is not valid UTF-8", ErrUnsupportedType)
		}
		text = string(data)
	case MIMEPDF:
		text, err = pdfText(data)
	case MIMEDOCX:
		text, err = docxText(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mime)
	}
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

func pdfText(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed cross-reference tables
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("failed to read pdf: %v", rec)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}
	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pt, perr := page.GetPlainText(nil)
		if perr != nil {
			continue
		}
		b.WriteString(pt)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()
	return stripTags(doc.Editable().GetContent()), nil
}

// stripTags reduces WordprocessingML to its text runs, one paragraph per line.
func stripTags(xml string) string {
	var b strings.Builder
	inTag := false
	var tag strings.Builder
	for _, r := range xml {
		switch {
		case r == '<':
			inTag = true
			tag.Reset()
		case r == '>':
			inTag = false
			if t := tag.String(); t == "/w:p" || strings.HasPrefix(t, "w:br") {
				b.WriteByte('\n')
			} else if strings.HasPrefix(t, "w:tab") {
				b.WriteByte('\t')
			}
		case inTag:
			tag.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'").Replace(b.String())
}
