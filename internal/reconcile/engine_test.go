package reconcile

import (
	"testing"

	"belanjaku/backend/internal/domain"
)

func productMap(products ...domain.Product) map[string]domain.Product {
	m := make(map[string]domain.Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return m
}

func TestReconcileCleanCartIsValid(t *testing.T) {
	engine := NewEngine()
	products := productMap(domain.Product{
		ID: "p1", Name: "Kaos Polos", PriceCents: 50000, DiscountPercent: 10, Stock: 8, Available: true,
	})

	resp := engine.Reconcile([]domain.CartLine{
		{ProductID: "p1", Quantity: 2, UnitPriceCents: 50000, DiscountPercent: 10},
	}, products)

	if !resp.Valid {
		t.Fatalf("expected valid cart, got changes: %+v", resp.Changes)
	}
	if len(resp.Changes) != 0 {
		t.Fatalf("expected no changes, got %d", len(resp.Changes))
	}
}

func TestReconcileRemovedProduct(t *testing.T) {
	engine := NewEngine()

	resp := engine.Reconcile([]domain.CartLine{
		{ProductID: "ghost", Quantity: 1, UnitPriceCents: 1000},
	}, productMap())

	if resp.Valid {
		t.Fatalf("expected invalid cart")
	}
	if len(resp.Changes) != 1 {
		t.Fatalf("expected exactly one change, got %d", len(resp.Changes))
	}
	change := resp.Changes[0]
	if change.Kind != domain.ChangeRemoved || change.Action != domain.ActionRemove {
		t.Fatalf("unexpected change: %+v", change)
	}
}

func TestReconcileUnavailableBeatsStockAndPrice(t *testing.T) {
	engine := NewEngine()
	products := productMap(domain.Product{
		ID: "p1", Name: "Sepatu Lari", PriceCents: 900000, Stock: 0, Available: false,
	})

	resp := engine.Reconcile([]domain.CartLine{
		{ProductID: "p1", Quantity: 3, UnitPriceCents: 850000},
	}, products)

	if len(resp.Changes) != 1 {
		t.Fatalf("expected one terminal change, got %d", len(resp.Changes))
	}
	if resp.Changes[0].Kind != domain.ChangeUnavailable {
		t.Fatalf("expected UNAVAILABLE, got %s", resp.Changes[0].Kind)
	}
}

func TestReconcileOutOfStock(t *testing.T) {
	engine := NewEngine()
	products := productMap(domain.Product{
		ID: "p1", Name: "Topi", PriceCents: 30000, Stock: 0, Available: true,
	})

	resp := engine.Reconcile([]domain.CartLine{
		{ProductID: "p1", Quantity: 1, UnitPriceCents: 30000},
	}, products)

	if len(resp.Changes) != 1 {
		t.Fatalf("expected one change, got %d", len(resp.Changes))
	}
	change := resp.Changes[0]
	if change.Kind != domain.ChangeOutOfStock || change.Action != domain.ActionRemove {
		t.Fatalf("unexpected change: %+v", change)
	}
}

func TestReconcileInsufficientStockClampsQuantity(t *testing.T) {
	engine := NewEngine()
	products := productMap(domain.Product{
		ID: "P1", Name: "Jaket", PriceCents: 200000, Stock: 2, Available: true,
	})

	resp := engine.Reconcile([]domain.CartLine{
		{ProductID: "P1", Quantity: 5, UnitPriceCents: 200000},
	}, products)

	if len(resp.Changes) != 1 {
		t.Fatalf("expected one change, got %d", len(resp.Changes))
	}
	change := resp.Changes[0]
	if change.Kind != domain.ChangeInsufficientStock {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %s", change.Kind)
	}
	if change.Action != domain.ActionUpdateQuantity {
		t.Fatalf("expected update_quantity action, got %s", change.Action)
	}
	if change.NewStock == nil || *change.NewStock != 2 {
		t.Fatalf("expected new stock 2, got %v", change.NewStock)
	}
}

func TestReconcilePriceChanged(t *testing.T) {
	engine := NewEngine()
	products := productMap(domain.Product{
		ID: "P2", Name: "Kemeja", PriceCents: 1200, DiscountPercent: 0, Stock: 10, Available: true,
	})

	resp := engine.Reconcile([]domain.CartLine{
		{ProductID: "P2", Quantity: 1, UnitPriceCents: 1000, DiscountPercent: 0},
	}, products)

	if len(resp.Changes) != 1 {
		t.Fatalf("expected one change, got %d", len(resp.Changes))
	}
	change := resp.Changes[0]
	if change.Kind != domain.ChangePriceChanged || change.Action != domain.ActionUpdatePrice {
		t.Fatalf("unexpected change: %+v", change)
	}
	if change.NewPriceCents == nil || *change.NewPriceCents != 1200 {
		t.Fatalf("expected new price 1200, got %v", change.NewPriceCents)
	}
}

func TestReconcileDiscountChangeCarriesFinalPrice(t *testing.T) {
	engine := NewEngine()
	products := productMap(domain.Product{
		ID: "p1", Name: "Celana", PriceCents: 10000, DiscountPercent: 25, Stock: 10, Available: true,
	})

	resp := engine.Reconcile([]domain.CartLine{
		{ProductID: "p1", Quantity: 1, UnitPriceCents: 10000, DiscountPercent: 10},
	}, products)

	if len(resp.Changes) != 1 {
		t.Fatalf("expected one change, got %d", len(resp.Changes))
	}
	change := resp.Changes[0]
	if change.NewDiscountPercent == nil || *change.NewDiscountPercent != 25 {
		t.Fatalf("expected new discount 25, got %v", change.NewDiscountPercent)
	}
	if change.NewFinalPriceCents == nil || *change.NewFinalPriceCents != 7500 {
		t.Fatalf("expected final price 7500, got %v", change.NewFinalPriceCents)
	}
}

func TestReconcileReportsStockAndPriceTogether(t *testing.T) {
	engine := NewEngine()
	products := productMap(domain.Product{
		ID: "p1", Name: "Tas", PriceCents: 80000, Stock: 1, Available: true,
	})

	resp := engine.Reconcile([]domain.CartLine{
		{ProductID: "p1", Quantity: 4, UnitPriceCents: 75000},
	}, products)

	if len(resp.Changes) != 2 {
		t.Fatalf("expected stock and price changes, got %d", len(resp.Changes))
	}
	kinds := map[string]bool{}
	for _, change := range resp.Changes {
		kinds[change.Kind] = true
	}
	if !kinds[domain.ChangeInsufficientStock] || !kinds[domain.ChangePriceChanged] {
		t.Fatalf("expected both INSUFFICIENT_STOCK and PRICE_CHANGED, got %+v", resp.Changes)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	engine := NewEngine()
	products := productMap(
		domain.Product{ID: "p1", Name: "A", PriceCents: 1500, Stock: 1, Available: true},
		domain.Product{ID: "p2", Name: "B", PriceCents: 2000, Stock: 0, Available: true},
	)
	lines := []domain.CartLine{
		{ProductID: "p1", Quantity: 3, UnitPriceCents: 1500},
		{ProductID: "p2", Quantity: 1, UnitPriceCents: 2000},
		{ProductID: "p3", Quantity: 1, UnitPriceCents: 500},
	}

	first := engine.Reconcile(lines, products)
	second := engine.Reconcile(lines, products)

	if len(first.Changes) != len(second.Changes) {
		t.Fatalf("change counts differ: %d vs %d", len(first.Changes), len(second.Changes))
	}
	for i := range first.Changes {
		a, b := first.Changes[i], second.Changes[i]
		if a.ProductID != b.ProductID || a.Kind != b.Kind || a.Action != b.Action {
			t.Fatalf("change %d differs: %+v vs %+v", i, a, b)
		}
	}
}

func TestProductIDsDedupes(t *testing.T) {
	ids := ProductIDs([]domain.CartLine{
		{ProductID: "a"}, {ProductID: "b"}, {ProductID: "a"}, {ProductID: ""},
	})
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}
