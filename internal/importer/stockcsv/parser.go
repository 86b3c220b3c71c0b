package stockcsv

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	enc "github.com/walweb/camisolas/internal/encoding"
	"github.com/walweb/camisolas/internal/importer"
	"github.com/walweb/camisolas/internal/inventory"
)

var ErrNoHeader = errors.New("no stock header found: expected team,color,size,quantity or variant_id,size,quantity")

// Parser reads stock spreadsheets exported as CSV in any common encoding,
// separated by commas, semicolons or tabs.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) (*importer.Parsed, error) {
	utf8r, charset, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffComma(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	// Trimming would swallow empty tab-separated cells.
	reader.TrimLeadingSpace = reader.Comma != '\t'

	records, err := readRecords(reader)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return &importer.Parsed{Charset: charset}, nil
	}

	profile, cols, headerIdx := detectProfile(records)
	if profile == nil {
		return nil, ErrNoHeader
	}

	parsed, err := parseRows(profile, cols, records[headerIdx+1:])
	if err != nil {
		return nil, err
	}

	return &importer.Parsed{Charset: charset, Rows: parsed}, nil
}

// sniffComma picks the separator that occurs most on the first non-empty line.
func sniffComma(data []byte) rune {
	line := data
	for len(line) > 0 {
		end := bytes.IndexByte(line, '\n')
		if end < 0 {
			end = len(line)
		}

		if l := bytes.TrimSpace(line[:end]); len(l) > 0 {
			line = l
			break
		}

		line = line[min(end+1, len(line)):]
	}

	best, bestN := ',', bytes.Count(line, []byte{','})

	for _, c := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(c))); n > bestN {
			best, bestN = c, n
		}
	}

	return best
}

// record is one CSV record with the source line it starts on. encoding/csv
// drops blank lines and lets quoted fields span lines, so record indexes
// are not line numbers.
type record struct {
	line   int
	fields []string
}

func readRecords(reader *csv.Reader) ([]record, error) {
	var out []record

	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}

		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		line, _ := reader.FieldPos(0)
		out = append(out, record{line: line, fields: fields})
	}
}

type colIndex map[string]int

func detectProfile(records []record) (*Profile, colIndex, int) {
	for rowIdx, rec := range records {
		cols := make(colIndex)

		for i, cell := range rec.fields {
			name := strings.ToLower(strings.TrimSpace(cell))
			if canonical, ok := aliases[name]; ok {
				if _, dup := cols[canonical]; !dup {
					cols[canonical] = i
				}
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.Required {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// parseRows turns data rows into stock rows. Blank rows are skipped; any other
// malformed row fails the whole file so nothing is half-imported.
func parseRows(p *Profile, cols colIndex, records []record) ([]importer.Row, error) {
	var out []importer.Row

	for _, rec := range records {
		row, rowNum := rec.fields, rec.line

		if blank(row) {
			continue
		}

		r := importer.Row{Line: rowNum}

		if p.Name == "by-id" {
			id, err := uuid.Parse(cellValue(row, cols[colVariantID]))
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid variant_id: %w", rowNum, err)
			}

			r.VariantID = id
		} else {
			r.Team = cellValue(row, cols[colTeam])
			r.Color = cellValue(row, cols[colColor])

			if r.Team == "" || r.Color == "" {
				return nil, fmt.Errorf("row %d: missing team or color", rowNum)
			}
		}

		size, err := inventory.ParseSize(cellValue(row, cols[colSize]))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		r.Size = size

		qty, err := strconv.Atoi(cellValue(row, cols[colQuantity]))
		if err != nil || qty <= 0 {
			return nil, fmt.Errorf("row %d: quantity must be a positive whole number, got %q", rowNum, cellValue(row, cols[colQuantity]))
		}

		r.Quantity = qty

		if idx, ok := cols[colPrice]; ok {
			if s := cellValue(row, idx); s != "" {
				price, err := parsePrice(s)
				if err != nil {
					return nil, fmt.Errorf("row %d: invalid price %q: %w", rowNum, s, err)
				}

				r.SalePrice = &price
			}
		}

		out = append(out, r)
	}

	return out, nil
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}

	return true
}
