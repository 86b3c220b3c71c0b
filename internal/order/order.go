package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/walweb/camisolas/internal/inventory"
)

// Kind is the business flow an order belongs to.
type Kind string

const (
	KindSale     Kind = "sale"
	KindSupply   Kind = "supply"
	KindDispatch Kind = "dispatch"
)

func (k Kind) Valid() bool {
	switch k {
	case KindSale, KindSupply, KindDispatch:
		return true
	}

	return false
}

// InitialStatus is the pending status an order of this kind starts in.
func (k Kind) InitialStatus() Status {
	switch k {
	case KindSupply:
		return StatusPendingReceive
	case KindDispatch:
		return StatusPendingDispatch
	}

	return StatusPending
}

// ConfirmedStatus is the terminal status reached by confirming an order of this kind.
func (k Kind) ConfirmedStatus() Status {
	switch k {
	case KindSupply:
		return StatusReceived
	case KindDispatch:
		return StatusDispatched
	}

	return StatusDelivered
}

// MovementKind is the ledger movement recorded for each inventory line on confirmation.
func (k Kind) MovementKind() inventory.Kind {
	if k == KindSupply {
		return inventory.KindIn
	}

	return inventory.KindSale
}

// Status represents the lifecycle state of an order.
type Status string

const (
	StatusPending         Status = "pending"
	StatusPendingReceive  Status = "pending_receive"
	StatusPendingDispatch Status = "pending_dispatch"
	StatusDelivered       Status = "delivered"
	StatusReceived        Status = "received"
	StatusDispatched      Status = "dispatched"
	StatusCancelled       Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPendingReceive, StatusPendingDispatch,
		StatusDelivered, StatusReceived, StatusDispatched, StatusCancelled:
		return true
	}

	return false
}

func (s Status) Pending() bool {
	return s == StatusPending || s == StatusPendingReceive || s == StatusPendingDispatch
}

// LineKind says whether a line moves stock or is a free-form charge.
type LineKind string

const (
	LineInventory LineKind = "inventory"
	LineFreeform  LineKind = "freeform"
)

type Line struct {
	ID          int64
	Kind        LineKind
	VariantID   *uuid.UUID
	Size        *inventory.Size
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
}

func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Order struct {
	ID           int64
	Counterparty string
	Contact      string
	Kind         Kind
	Status       Status
	OrderDate    time.Time
	DeliveryDate *time.Time
	ConfirmedAt  *time.Time
	Notes        string
	Total        decimal.Decimal
	Lines        []Line
	CreatedAt    time.Time
}
