package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// decodePDF walks the document page by page, joining the text runs of each
// page with single spaces and pages with newlines. The page count is reported
// even when some pages carry no text.
//
// The pdf package panics on some malformed inputs, so the whole decode runs
// under a recover that converts panics into PDF_EXTRACTION_FAILED.
func decodePDF(data []byte) (text string, pageCount int, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = newError(CodePDFExtractionFailed, "failed to parse PDF file", fmt.Errorf("parser panic: %v", r))
		}
	}()

	reader, rerr := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if rerr != nil {
		return "", 0, newError(CodePDFExtractionFailed, "failed to parse PDF file", rerr)
	}

	pageCount = reader.NumPage()
	pages := make([]string, 0, pageCount)
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, terr := page.GetPlainText(fonts)
		if terr != nil {
			// A page without a usable text layer is not fatal; the length
			// check after cleanup catches documents with no text at all.
			continue
		}
		if strings.TrimSpace(pageText) != "" {
			pages = append(pages, pageText)
		}
	}

	return strings.Join(pages, "\n"), pageCount, nil
}
