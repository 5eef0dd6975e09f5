package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"ai_tutor/internal/domain"
)

// extractPDF returns the plain text of every page that has any, joined by
// blank lines, and the number of such pages.
func extractPDF(data []byte) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: malformed PDF: %v", domain.ErrValidation, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	fonts := make(map[string]*pdf.Font)
	var parts []string
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := p.Font(name)
				fonts[name] = &f
			}
		}
		content, err := p.GetPlainText(fonts)
		if err != nil {
			return "", 0, fmt.Errorf("%w: page %d: %v", domain.ErrValidation, i, err)
		}
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		parts = append(parts, content)
	}

	if len(parts) == 0 {
		return "", 0, fmt.Errorf("%w: PDF has no extractable text", domain.ErrValidation)
	}
	return strings.Join(parts, "\n\n"), len(parts), nil
}
