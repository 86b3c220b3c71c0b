package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Size is a jersey size.
type Size string

const (
	SizeS  Size = "S"
	SizeM  Size = "M"
	SizeL  Size = "L"
	SizeXL Size = "XL"
)

// Sizes lists every size in display order.
var Sizes = []Size{SizeS, SizeM, SizeL, SizeXL}

func ParseSize(s string) (Size, error) {
	size := Size(strings.ToUpper(strings.TrimSpace(s)))
	if !size.Valid() {
		return "", &ValidationError{Field: "size", Message: fmt.Sprintf("unknown size %q", s)}
	}

	return size, nil
}

func (s Size) Valid() bool {
	switch s {
	case SizeS, SizeM, SizeL, SizeXL:
		return true
	}

	return false
}

// Kind is the type of a stock movement.
type Kind string

const (
	KindIn       Kind = "in"
	KindOut      Kind = "out"
	KindToSample Kind = "to_sample"
	KindSale     Kind = "sale"
)

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown movement kind %q", s)}
	}

	return k, nil
}

func (k Kind) Valid() bool {
	switch k {
	case KindIn, KindOut, KindToSample, KindSale:
		return true
	}

	return false
}

// Bucket names one of the three counters of a balance.
type Bucket string

const (
	BucketAvailable Bucket = "available"
	BucketSample    Bucket = "sample"
	BucketSold      Bucket = "sold"
)

func ParseBucket(s string) (Bucket, error) {
	b := Bucket(strings.ToLower(strings.TrimSpace(s)))
	switch b {
	case BucketAvailable, BucketSample, BucketSold:
		return b, nil
	}

	return "", &ValidationError{Field: "bucket", Message: fmt.Sprintf("unknown bucket %q", s)}
}

// Key identifies a balance by variant and size.
type Key struct {
	VariantID uuid.UUID
	Size      Size
}

// Balance holds the current stock counters for one variant in one size.
type Balance struct {
	ID        int64
	VariantID uuid.UUID
	Size      Size
	Available int
	Sample    int
	Sold      int
	UpdatedAt time.Time

	// Loaded via JOIN with the catalog.
	Team  string
	Color string
}

func (b *Balance) Key() Key {
	return Key{VariantID: b.VariantID, Size: b.Size}
}

// Get returns the counter for a bucket.
func (b *Balance) Get(bucket Bucket) int {
	switch bucket {
	case BucketAvailable:
		return b.Available
	case BucketSample:
		return b.Sample
	case BucketSold:
		return b.Sold
	}

	return 0
}

func (b *Balance) set(bucket Bucket, v int) {
	switch bucket {
	case BucketAvailable:
		b.Available = v
	case BucketSample:
		b.Sample = v
	case BucketSold:
		b.Sold = v
	}
}

// Movement is an immutable record of one stock movement.
type Movement struct {
	ID         int64
	VariantID  uuid.UUID
	Size       Size
	Kind       Kind
	Quantity   int
	Date       time.Time
	Note       string
	SalePrice  *decimal.Decimal
	ReturnDate *time.Time
	Actor      string
	BatchID    *uuid.UUID
	CreatedAt  time.Time

	// Loaded via JOIN with the catalog.
	Team  string
	Color string
}

// OutPolicy decides what an "out" movement does when it exceeds available stock.
type OutPolicy string

const (
	// OutClamp floors available at zero.
	OutClamp OutPolicy = "clamp"
	// OutReject fails with InsufficientStock like sale and to_sample.
	OutReject OutPolicy = "reject"
)

func ParseOutPolicy(s string) (OutPolicy, error) {
	switch p := OutPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case OutClamp, OutReject:
		return p, nil
	case "":
		return OutClamp, nil
	}

	return "", fmt.Errorf("unknown out policy %q", s)
}
