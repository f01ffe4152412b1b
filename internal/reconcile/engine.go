package reconcile

import (
	"fmt"

	"belanjaku/backend/internal/domain"
)

// Engine diffs client cart snapshots against authoritative product records.
// It is purely functional: the caller supplies the product map and no state
// is read or written here, so two calls over unchanged products always
// produce the same change-set.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Reconcile evaluates every line independently and returns one or more
// ChangeRecords per drifted line. Missing, unavailable and out-of-stock
// products are terminal for a line; a surviving line can report both a stock
// clamp and a price change.
func (e *Engine) Reconcile(lines []domain.CartLine, products map[string]domain.Product) domain.ReconcileResponse {
	changes := make([]domain.ChangeRecord, 0, len(lines))

	for _, line := range lines {
		product, exists := products[line.ProductID]
		if !exists {
			changes = append(changes, domain.ChangeRecord{
				ProductID: line.ProductID,
				Kind:      domain.ChangeRemoved,
				Message:   "This product is no longer sold and was removed from your cart.",
				Action:    domain.ActionRemove,
			})
			continue
		}
		if !product.Available {
			changes = append(changes, domain.ChangeRecord{
				ProductID: line.ProductID,
				Kind:      domain.ChangeUnavailable,
				Message:   fmt.Sprintf("%s is currently unavailable and was removed from your cart.", product.Name),
				Action:    domain.ActionRemove,
			})
			continue
		}
		if product.Stock == 0 {
			changes = append(changes, domain.ChangeRecord{
				ProductID: line.ProductID,
				Kind:      domain.ChangeOutOfStock,
				Message:   fmt.Sprintf("%s is out of stock and was removed from your cart.", product.Name),
				Action:    domain.ActionRemove,
			})
			continue
		}

		if product.Stock > 0 && product.Stock < line.Quantity {
			stock := product.Stock
			changes = append(changes, domain.ChangeRecord{
				ProductID: line.ProductID,
				Kind:      domain.ChangeInsufficientStock,
				Message:   fmt.Sprintf("Only %d of %s left; your quantity was reduced.", product.Stock, product.Name),
				Action:    domain.ActionUpdateQuantity,
				NewStock:  &stock,
			})
		}

		if line.UnitPriceCents != product.PriceCents || line.DiscountPercent != product.DiscountPercent {
			price := product.PriceCents
			discount := product.DiscountPercent
			final := domain.FinalPriceCents(product.PriceCents, product.DiscountPercent)
			changes = append(changes, domain.ChangeRecord{
				ProductID:          line.ProductID,
				Kind:               domain.ChangePriceChanged,
				Message:            fmt.Sprintf("The price of %s changed since you added it.", product.Name),
				Action:             domain.ActionUpdatePrice,
				NewPriceCents:      &price,
				NewDiscountPercent: &discount,
				NewFinalPriceCents: &final,
			})
		}
	}

	return domain.ReconcileResponse{
		Valid:   len(changes) == 0,
		Changes: changes,
	}
}

// ProductIDs collects the distinct product ids referenced by a snapshot, in
// first-seen order, for a single batched fetch.
func ProductIDs(lines []domain.CartLine) []string {
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if line.ProductID == "" {
			continue
		}
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	return ids
}
