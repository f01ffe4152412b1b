package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"belanjaku/backend/internal/domain"
)

func TestCreateOrderDeductsCreditAndPaymentIsIdempotent(t *testing.T) {
	databaseURL := os.Getenv("BELANJAKU_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set BELANJAKU_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	userID := fmt.Sprintf("user-order-it-%d", stamp)
	productID := fmt.Sprintf("prod-order-it-%d", stamp)
	orderID := fmt.Sprintf("order-it-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, productID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	})

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, phone, role, credit_cents, active, created_at)
		VALUES ($1, $2, 'customer', 10000, true, now())
	`, userID, fmt.Sprintf("+62%d", stamp%1_000_000_000)); err != nil {
		t.Fatalf("insert user: %v", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, price_cents, discount_percent, stock, available, created_at, updated_at)
		VALUES ($1, 'Produk Order IT', 50000, 0, 10, true, now(), now())
	`, productID); err != nil {
		t.Fatalf("insert product: %v", err)
	}

	order := domain.Order{
		ID:              orderID,
		UserID:          userID,
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusUnpaid,
		TotalCents:      50000,
		CreditUsedCents: 10000,
		AmountDueCents:  40000,
		ShippingAddress: domain.ShippingAddress{Line: "Jl. Mawar 1", City: "Bandung"},
		Lines: []domain.OrderLine{
			{ProductID: productID, Name: "Produk Order IT", Quantity: 1, UnitPriceCents: 50000},
		},
	}
	if _, err := s.CreateOrder(ctx, order); err != nil {
		t.Fatalf("create order: %v", err)
	}

	var credit int64
	if err := s.db.QueryRowContext(ctx, `SELECT credit_cents FROM users WHERE id = $1`, userID).Scan(&credit); err != nil {
		t.Fatalf("query credit: %v", err)
	}
	if credit != 0 {
		t.Fatalf("expected credit 0 after checkout, got %d", credit)
	}

	paid, err := s.MarkOrderPaid(ctx, orderID, "PAY-REF-1")
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.PaymentStatus != domain.PaymentStatusPaid || paid.PaymentRef != "PAY-REF-1" {
		t.Fatalf("unexpected order after payment: %+v", paid)
	}
	if paid.AmountDueCents != 0 {
		t.Fatalf("expected amount due 0 after payment, got %d", paid.AmountDueCents)
	}

	replayed, err := s.MarkOrderPaid(ctx, orderID, "PAY-REF-2")
	if err != nil {
		t.Fatalf("replay mark paid: %v", err)
	}
	if replayed.PaymentRef != "PAY-REF-1" {
		t.Fatalf("replay must not overwrite reference, got %s", replayed.PaymentRef)
	}
}
