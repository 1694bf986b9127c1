package boq

import (
	"context"
	"fmt"
	"image"
	"io"
	"log"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/a3tai/mcp-doc-verifier/internal/ocr"
)

// RowParser turns OCR output of a BOQ table into rows. The zero value is not
// usable; start from DefaultRowParser.
type RowParser struct {
	// Units anchors a candidate line; it must match a whole word.
	Units *regexp.Regexp
	// HeaderLines are skipped when a line equals one of them (case-insensitive).
	HeaderLines []string
	// MinLineLength drops OCR noise shorter than this many runes.
	MinLineLength int
	// DesignatorWindow is how many leading tokens may hold the designator.
	DesignatorWindow int
}

// DefaultRowParser reads the column layout of Telkom acceptance-test BOQ
// tables: NO, DESIGNATOR, URAIAN, SATUAN, then quantity columns ending in
// AKTUAL and TOTAL. The actual quantity is therefore the second-to-last
// number on a row.
var DefaultRowParser = RowParser{
	Units: regexp.MustCompile(`(?i)\b(pcs|unit|meter|core|pos|set|ls|buah)\b`),
	HeaderLines: []string{
		"no designator uraian pekerjaan satuan volume",
		"no designator uraian pekerjaan satuan aktual",
		"designator uraian pekerjaan satuan",
		"uraian pekerjaan",
		"bill of quantity",
		"boq uji terima",
	},
	MinLineLength:    5,
	DesignatorWindow: 4,
}

const borderChars = "|[](){},;:"

var numericToken = regexp.MustCompile(`^\d+$`)

// ParseRows parses text with DefaultRowParser
func ParseRows(text string) []Row {
	return DefaultRowParser.Parse(text)
}

// Parse returns the rows found in text, deduplicated by (designator, quantity)
func (p RowParser) Parse(text string) []Row {
	headers := make(map[string]bool, len(p.HeaderLines))
	for _, h := range p.HeaderLines {
		headers[collapseLower(h)] = true
	}

	rows := make([]Row, 0)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) < p.MinLineLength || headers[collapseLower(line)] {
			continue
		}
		if !p.Units.MatchString(line) {
			continue
		}
		if row, ok := p.parseLine(line); ok {
			rows = append(rows, row)
		}
	}
	return DedupePairs(rows)
}

func (p RowParser) parseLine(line string) (Row, bool) {
	// table borders OCR as "|" tokens; drop what trims to nothing so the
	// sequence number stays first
	var tokens []string
	for _, tok := range strings.Fields(line) {
		if tok = strings.Trim(tok, borderChars); tok != "" {
			tokens = append(tokens, tok)
		}
	}

	var designator string
	for i := 0; i < len(tokens) && i < p.DesignatorWindow; i++ {
		if looksLikeDesignator(tokens[i]) {
			designator = tokens[i]
			break
		}
	}
	if designator == "" {
		return Row{}, false
	}

	var numbers []int
	for i, tok := range tokens {
		if !numericToken.MatchString(tok) {
			continue
		}
		if i == 0 {
			// leading sequence number
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		numbers = append(numbers, n)
	}

	var qty int
	switch len(numbers) {
	case 0:
		return Row{}, false
	case 1:
		qty = numbers[0]
	default:
		qty = numbers[len(numbers)-2]
	}
	if qty <= 0 {
		return Row{}, false
	}

	return Row{Designator: designator, Quantity: qty}, true
}

// looksLikeDesignator reports whether tok contains a letter and a digit or hyphen
func looksLikeDesignator(tok string) bool {
	var letter, digitOrHyphen bool
	for _, r := range tok {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r) || r == '-':
			digitOrHyphen = true
		}
	}
	return letter && digitOrHyphen
}

func collapseLower(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// TableExtractor reads BOQ rows from the image of the located page
type TableExtractor struct {
	engine  ocr.Engine
	options ocr.Options
	parser  RowParser
	logger  *log.Logger
}

// NewTableExtractor creates a table extractor. The page segmentation mode in
// opts is replaced by a single uniform block, which keeps table rows on one
// line, and the DPI is scaled along with the image.
func NewTableExtractor(engine ocr.Engine, opts ocr.Options, logger *log.Logger) *TableExtractor {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if opts.DPI > 0 {
		opts.DPI *= upscaleFactor
	}
	return &TableExtractor{
		engine:  engine,
		options: opts.WithPSM(ocr.PSMSingleBlock),
		parser:  DefaultRowParser,
		logger:  logger,
	}
}

// WithParser returns a copy of the extractor using a different row parser
func (t *TableExtractor) WithParser(p RowParser) *TableExtractor {
	c := *t
	c.parser = p
	return &c
}

// Extract returns the rows found on img. It never fails: an unreadable,
// blank or missing image yields no rows, and the caller is expected to enter
// them manually.
func (t *TableExtractor) Extract(ctx context.Context, img image.Image) (rows []Row) {
	rows = []Row{}
	defer func() {
		if r := recover(); r != nil {
			t.logger.Printf("table extraction panic: %v", r)
			rows = []Row{}
		}
	}()

	if t.engine == nil {
		return rows
	}
	binary := Preprocess(img)
	if binary == nil {
		return rows
	}

	text, err := t.engine.Recognize(ctx, binary, t.options)
	if err != nil {
		t.logger.Printf("table OCR failed: %v", err)
		return rows
	}

	return t.parser.Parse(text)
}

// Summary describes extracted rows for logs
func Summary(rows []Row) string {
	if len(rows) == 0 {
		return "no rows"
	}
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = r.String()
	}
	return fmt.Sprintf("%d row(s): %s", len(rows), strings.Join(parts, ", "))
}
