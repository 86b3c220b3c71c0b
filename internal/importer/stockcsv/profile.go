package stockcsv

// Profile describes one accepted header layout.
type Profile struct {
	Name     string
	Required []string
}

const (
	colVariantID = "variant_id"
	colTeam      = "team"
	colColor     = "color"
	colSize      = "size"
	colQuantity  = "quantity"
	colPrice     = "price"
)

// aliases maps header spellings seen in spreadsheets to canonical column names.
var aliases = map[string]string{
	"variant_id": colVariantID,
	"variant":    colVariantID,
	"id":         colVariantID,
	"team":       colTeam,
	"equipo":     colTeam,
	"color":      colColor,
	"colour":     colColor,
	"size":       colSize,
	"talla":      colSize,
	"quantity":   colQuantity,
	"qty":        colQuantity,
	"cantidad":   colQuantity,
	"price":      colPrice,
	"sale_price": colPrice,
	"precio":     colPrice,
}

// profiles are tried in order. The id profile comes first so a sheet carrying
// both ids and names resolves by id.
var profiles = []Profile{
	{Name: "by-id", Required: []string{colVariantID, colSize, colQuantity}},
	{Name: "by-name", Required: []string{colTeam, colColor, colSize, colQuantity}},
}
