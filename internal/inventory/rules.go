package inventory

import (
	"fmt"
	"math"
)

// MaxQuantity bounds every bucket and every requested amount. Buckets are
// INTEGER columns.
const MaxQuantity = math.MaxInt32

// Apply returns the balance after a movement of kind and quantity.
// The receiver is not modified. Quantity must already be validated as positive.
func (b Balance) Apply(kind Kind, qty int, policy OutPolicy) (Balance, error) {
	if qty > MaxQuantity {
		return b, tooLarge("quantity")
	}

	next := b

	switch kind {
	case KindIn:
		if b.Available > MaxQuantity-qty {
			return b, overflows(BucketAvailable)
		}

		next.Available += qty
	case KindOut:
		if policy == OutReject && b.Available < qty {
			return b, &InsufficientStockError{Available: b.Available, Requested: qty}
		}

		next.Available = max(0, b.Available-qty)
	case KindToSample:
		if b.Available < qty {
			return b, &InsufficientStockError{Available: b.Available, Requested: qty}
		}

		if b.Sample > MaxQuantity-qty {
			return b, overflows(BucketSample)
		}

		next.Available -= qty
		next.Sample += qty
	case KindSale:
		if b.Available < qty {
			return b, &InsufficientStockError{Available: b.Available, Requested: qty}
		}

		if b.Sold > MaxQuantity-qty {
			return b, overflows(BucketSold)
		}

		next.Available -= qty
		next.Sold += qty
	default:
		return b, &ValidationError{Field: "kind", Message: "unknown movement kind " + string(kind)}
	}

	return next, nil
}

// Transfer moves amount units from one bucket to another.
func (b Balance) Transfer(from, to Bucket, amount int) (Balance, error) {
	if amount <= 0 {
		return b, &ValidationError{Field: "amount", Message: "must be greater than zero"}
	}

	if amount > MaxQuantity {
		return b, tooLarge("amount")
	}

	if from == to {
		return b, &ValidationError{Field: "to", Message: "must differ from source bucket"}
	}

	have := b.Get(from)
	if have < amount {
		return b, &InsufficientQuantityError{Bucket: from, Have: have, Requested: amount}
	}

	if b.Get(to) > MaxQuantity-amount {
		return b, overflows(to)
	}

	next := b
	next.set(from, have-amount)
	next.set(to, b.Get(to)+amount)

	return next, nil
}

// Adjust adds delta to a bucket, flooring the result at zero.
func (b Balance) Adjust(bucket Bucket, delta int) (Balance, error) {
	if delta > MaxQuantity || delta < -MaxQuantity {
		return b, tooLarge("delta")
	}

	cur := b.Get(bucket)
	if delta > 0 && cur > MaxQuantity-delta {
		return b, overflows(bucket)
	}

	next := b
	next.set(bucket, max(0, cur+delta))

	return next, nil
}

func tooLarge(field string) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf("must not exceed %d", MaxQuantity)}
}

func overflows(bucket Bucket) error {
	return &ValidationError{Field: string(bucket), Message: fmt.Sprintf("would exceed %d units", MaxQuantity)}
}
