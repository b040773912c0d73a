package decode

import (
	"bytes"
	"fmt"
	"strings"

	rpdf "rsc.io/pdf"

	"github.com/ukgov/org-registry/internal/errs"
)

// PDFText extracts line-structured text from raw PDF bytes, carried over
// verbatim in approach from the teacher's extractPDFText
// (pdf_deadline_extractor.go): rsc.io/pdf is the pack's only PDF
// dependency and is known to panic on certain malformed documents, so the
// teacher's recover() guard is kept exactly — a panic here becomes an
// errs.Decode rather than crashing the calling driver.
func PDFText(raw []byte) (text string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = &errs.Decode{Format: "pdf", Detail: fmt.Sprintf("parser panic: %v", recovered)}
			text = ""
		}
	}()

	reader, readErr := rpdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if readErr != nil {
		return "", &errs.Decode{Format: "pdf", Detail: readErr.Error()}
	}

	var builder strings.Builder
	for pageIndex := 1; pageIndex <= reader.NumPage(); pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		for _, fragment := range page.Content().Text {
			builder.WriteString(fragment.S)
			builder.WriteString(" ")
		}
		builder.WriteString("\n")
	}

	return builder.String(), nil
}

// Lines splits extracted PDF text into non-empty, trimmed lines —
// sufficient structure to recover a list of institution names per spec
// §4.C's PDF requirement.
func Lines(text string) []string {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
