package importer

import (
	"io"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/walweb/camisolas/internal/encoding"
	"github.com/walweb/camisolas/internal/inventory"
)

type Format string

const (
	FormatStockCSV Format = "stock_csv"
)

// Row is one parsed stock line. Either VariantID or Team and Color identify the variant.
type Row struct {
	Line      int // 1-based line in the source file
	VariantID uuid.UUID
	Team      string
	Color     string
	Size      inventory.Size
	Quantity  int
	SalePrice *decimal.Decimal
}

type Parsed struct {
	Charset encoding.Charset
	Rows    []Row
}

type Parser interface {
	Parse(r io.Reader) (*Parsed, error)
}
