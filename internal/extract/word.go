package extract

import (
	"bytes"
	"log"
	"regexp"
	"strings"
	"unicode/utf16"

	"github.com/nguyenthenguyen/docx"
)

// wpTokenRe matches, in document order, the pieces of WordprocessingML that
// carry visible text: w:t runs, paragraph ends, explicit line breaks, tabs.
var wpTokenRe = regexp.MustCompile(`<w:t(?:\s[^>]*)?>([^<]*)</w:t>|</w:p>|<w:br\s*/?>|<w:tab\s*/?>`)

var xmlUnescaper = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&amp;", "&",
)

// decodeDOCX reads the WordprocessingML body and flattens it to plain text:
// one line per paragraph, tabs kept as tabs.
func decodeDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", newError(CodeWordExtractionFailed, "failed to parse Word document", err)
	}
	defer doc.Close()

	return flattenDocumentXML(doc.Editable().GetContent()), nil
}

// flattenDocumentXML pulls the visible text out of raw document.xml markup,
// keeping paragraph and line breaks as newlines.
func flattenDocumentXML(content string) string {
	var b strings.Builder
	for _, m := range wpTokenRe.FindAllStringSubmatch(content, -1) {
		switch {
		case strings.HasPrefix(m[0], "<w:t"):
			b.WriteString(xmlUnescaper.Replace(m[1]))
		case m[0] == "</w:p>":
			b.WriteString("\n")
		case strings.HasPrefix(m[0], "<w:br"):
			b.WriteString("\n")
		default: // <w:tab/>
			b.WriteString("\t")
		}
	}
	return b.String()
}

// decodeDOC handles legacy binary .doc uploads. Plenty of files declared as
// application/msword are really OOXML underneath, so the zip reader gets the
// first try; genuine OLE2 documents fall back to a printable-run scan of the
// WordDocument stream bytes.
func decodeDOC(data []byte) (string, error) {
	if text, err := decodeDOCX(data); err == nil {
		return text, nil
	} else {
		log.Printf("doc decode: not an OOXML container, scanning binary text runs: %v", err)
	}

	text := scanBinaryTextRuns(data)
	if text == "" {
		return "", newError(CodeWordExtractionFailed, "failed to parse Word document", nil)
	}
	return text, nil
}

const minRunLength = 4

// scanBinaryTextRuns extracts the readable character runs of an OLE2 Word
// file. Word stores body text either as single bytes (CP1252, ASCII for the
// range we keep) or UTF-16LE, so both encodings get a pass.
func scanBinaryTextRuns(data []byte) string {
	var runs []string

	// Single-byte runs.
	var cur bytes.Buffer
	flush := func() {
		if cur.Len() >= minRunLength {
			runs = append(runs, cur.String())
		}
		cur.Reset()
	}
	for _, c := range data {
		if c == '\r' || c == '\n' || c == '\t' || (c >= 0x20 && c < 0x7f) {
			cur.WriteByte(c)
		} else {
			flush()
		}
	}
	flush()

	// UTF-16LE runs: printable low code units with zero high bytes.
	var u16 []uint16
	flush16 := func() {
		if len(u16) >= minRunLength {
			runs = append(runs, string(utf16.Decode(u16)))
		}
		u16 = u16[:0]
	}
	for i := 0; i+1 < len(data); i += 2 {
		u := uint16(data[i]) | uint16(data[i+1])<<8
		if u == '\r' || u == '\n' || u == '\t' || (u >= 0x20 && u < 0x7f) {
			u16 = append(u16, u)
		} else {
			flush16()
		}
	}
	flush16()

	return strings.Join(runs, "\n")
}
