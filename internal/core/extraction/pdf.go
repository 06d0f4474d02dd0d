package extraction

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/davidokpare/extracta/internal/models"
)

// Parser turns raw document bytes into per-page text lines.
type Parser interface {
	ExtractPages(data []byte) (models.PageText, error)
}

// PDFParser extracts text page by page using pdfcpu.
type PDFParser struct{}

var _ Parser = (*PDFParser)(nil)

func NewPDFParser() *PDFParser { return &PDFParser{} }

// ExtractPages returns the text lines of each page, keyed by zero-based page
// index. Pages yielding no text are omitted from the map, never inserted as
// empty slices. A page whose content stream cannot be read is skipped; only a
// document-level parse failure is fatal.
func (p *PDFParser) ExtractPages(data []byte) (models.PageText, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	pages := make(models.PageText)
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		lines := pageLines(ctx, pageNr)
		if len(lines) == 0 {
			continue
		}
		pages[pageNr-1] = lines
	}
	return pages, nil
}

// pageLines extracts the text lines of a single page via its content stream.
// Any per-page failure yields no lines rather than an error.
func pageLines(ctx *model.Context, pageNr int) []string {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil || r == nil {
		return nil
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return nil
	}
	return linesFromStream(data)
}

// pdfStringRe matches PDF string literals in parentheses: (text here)
var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// linesFromStream walks the content stream operators and reassembles text
// lines. Tj/TJ append to the current line; ', T* and Td/TD moves start a new
// one.
func linesFromStream(data []byte) []string {
	var lines []string
	var cur strings.Builder

	flush := func() {
		if line := cleanLine(cur.String()); line != "" {
			lines = append(lines, line)
		}
		cur.Reset()
	}

	for _, raw := range bytes.Split(data, []byte{'\n'}) {
		op := bytes.TrimSpace(raw)
		if len(op) == 0 {
			continue
		}

		switch {
		case bytes.HasSuffix(op, []byte("Tj")), bytes.HasSuffix(op, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(op, -1) {
				cur.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(op, []byte("'")) && bytes.Contains(op, []byte("(")):
			flush()
			for _, m := range pdfStringRe.FindAllSubmatch(op, -1) {
				cur.WriteString(decodePDFString(m[1]))
			}
		case bytes.Equal(op, []byte("T*")):
			flush()
		case bytes.HasSuffix(op, []byte("Td")), bytes.HasSuffix(op, []byte("TD")):
			flush()
		}
	}
	flush()

	return lines
}

// decodePDFString handles basic PDF escape sequences.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			// Octal escape (e.g. \040 for space).
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for k := 0; k < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; k++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}

// cleanLine collapses runs of whitespace and drops non-printable runes.
func cleanLine(s string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		} else if unicode.IsPrint(r) {
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}
