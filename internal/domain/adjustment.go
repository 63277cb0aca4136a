package domain

import (
	"errors"
	"fmt"
)

type AdjustmentType string

const (
	AdjustmentAdd      AdjustmentType = "add"
	AdjustmentSubtract AdjustmentType = "subtract"
)

var ErrNegativeStock = errors.New("cannot reduce stock below zero")

func (t AdjustmentType) Valid() bool {
	return t == AdjustmentAdd || t == AdjustmentSubtract
}

// Apply returns the quantity after adjusting old by qty. Both stores call it
// while holding the product lock so the floor rule lives in one place.
func (t AdjustmentType) Apply(old int, qty int) (int, error) {
	if qty <= 0 {
		return 0, fmt.Errorf("adjustment quantity must be positive")
	}
	switch t {
	case AdjustmentAdd:
		return old + qty, nil
	case AdjustmentSubtract:
		next := old - qty
		if next < 0 {
			return 0, ErrNegativeStock
		}
		return next, nil
	default:
		return 0, fmt.Errorf("invalid adjustment type %q", string(t))
	}
}

// ProductEditReason marks audit rows written when a product edit changes its quantity.
const ProductEditReason = "product edit"

// AdjustmentBetween expresses a direct change from old to next as an
// adjustment. It reports false when the quantity is unchanged.
func AdjustmentBetween(old int, next int) (AdjustmentType, int, bool) {
	switch {
	case next > old:
		return AdjustmentAdd, next - old, true
	case next < old:
		return AdjustmentSubtract, old - next, true
	default:
		return "", 0, false
	}
}
