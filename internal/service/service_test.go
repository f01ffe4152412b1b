package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"belanjaku/backend/internal/domain"
	"belanjaku/backend/internal/payment"
	"belanjaku/backend/internal/store"
	"belanjaku/backend/internal/store/memory"
)

// mapCache is a minimal in-process cache.Store for exercising the
// read-through and invalidation paths without redis.
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string][]byte)}
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	return raw, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *mapCache) DeletePattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.data {
		if strings.HasPrefix(key, prefix) {
			delete(c.data, key)
		}
	}
	return nil
}

func (c *mapCache) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	return 1, nil
}

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	repo := memory.NewSeeded()
	svc := New(repo, newMapCache(), &payment.DevGateway{}, 60*time.Second, time.Hour)
	return svc, repo
}

func customerContext(t *testing.T, repo *memory.Store) (context.Context, domain.User) {
	t.Helper()
	user, err := repo.GetUserByPhone(context.Background(), "+628111000111")
	if err != nil {
		t.Fatalf("seeded customer missing: %v", err)
	}
	ctx := WithActor(context.Background(), domain.Actor{UserID: user.ID, Role: domain.RoleCustomer})
	return ctx, *user
}

func adminContext(t *testing.T, repo *memory.Store) context.Context {
	t.Helper()
	admin, err := repo.GetUserByUsername(context.Background(), "admin")
	if err != nil {
		t.Fatalf("seeded admin missing: %v", err)
	}
	return WithActor(context.Background(), domain.Actor{UserID: admin.ID, Role: domain.RoleAdmin})
}

func pickProduct(t *testing.T, repo *memory.Store, name string) domain.Product {
	t.Helper()
	products, err := repo.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	for _, p := range products {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("seeded product %q missing", name)
	return domain.Product{}
}

func cartLineFor(p domain.Product, qty int) domain.CartLine {
	return domain.CartLine{
		ProductID:       p.ID,
		Quantity:        qty,
		UnitPriceCents:  p.PriceCents,
		DiscountPercent: p.DiscountPercent,
	}
}

func checkoutOrder(t *testing.T, svc *Service, ctx context.Context, lines ...domain.CartLine) domain.Order {
	t.Helper()
	order, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Items:           lines,
		ShippingAddress: domain.ShippingAddress{Line: "Jl. Melati 5", City: "Jakarta"},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	return order
}

func TestCheckoutRequiresAuthentication(t *testing.T) {
	svc, repo := newTestService(t)
	product := pickProduct(t, repo, "Sandal Jepit")

	_, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		Items:           []domain.CartLine{cartLineFor(product, 1)},
		ShippingAddress: domain.ShippingAddress{Line: "Jl. Melati 5", City: "Jakarta"},
	})
	if !errors.Is(err, store.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestCheckoutRejectsStaleCart(t *testing.T) {
	svc, repo := newTestService(t)
	ctx, _ := customerContext(t, repo)
	product := pickProduct(t, repo, "Sandal Jepit")

	stale := cartLineFor(product, 1)
	stale.UnitPriceCents = product.PriceCents - 500

	_, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Items:           []domain.CartLine{stale},
		ShippingAddress: domain.ShippingAddress{Line: "Jl. Melati 5", City: "Jakarta"},
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict for stale cart, got %v", err)
	}

	var conflict *CartConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected CartConflictError, got %T", err)
	}
	if len(conflict.Changes) != 1 || conflict.Changes[0].Kind != domain.ChangePriceChanged {
		t.Fatalf("unexpected changes: %+v", conflict.Changes)
	}
}

func TestCheckoutComputesTotalsAndClampsCredit(t *testing.T) {
	svc, repo := newTestService(t)
	ctx, customer := customerContext(t, repo)
	product := pickProduct(t, repo, "Sandal Jepit")

	order, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Items:           []domain.CartLine{cartLineFor(product, 1)},
		ShippingAddress: domain.ShippingAddress{Line: "Jl. Melati 5", City: "Jakarta"},
		UseCredit:       true,
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if order.TotalCents != product.PriceCents {
		t.Fatalf("expected total %d, got %d", product.PriceCents, order.TotalCents)
	}
	if order.CreditUsedCents != customer.CreditCents {
		t.Fatalf("expected credit used %d, got %d", customer.CreditCents, order.CreditUsedCents)
	}
	if order.AmountDueCents != order.TotalCents-order.CreditUsedCents {
		t.Fatalf("amount due mismatch: %+v", order)
	}
	if order.Status != domain.OrderStatusPending || order.PaymentStatus != domain.PaymentStatusUnpaid {
		t.Fatalf("unexpected initial state: %+v", order)
	}

	after, err := repo.GetUserByID(context.Background(), customer.ID)
	if err != nil {
		t.Fatalf("reload customer: %v", err)
	}
	if after.CreditCents != 0 {
		t.Fatalf("expected credit drained, got %d", after.CreditCents)
	}
}

func TestCheckoutFullyCoveredByCreditIsPaid(t *testing.T) {
	svc, repo := newTestService(t)
	adminCtx := adminContext(t, repo)
	ctx, _ := customerContext(t, repo)

	cheap, err := svc.CreateProduct(adminCtx, domain.ProductCreateRequest{
		Name:       "Stiker Laptop",
		PriceCents: 15000,
		Stock:      100,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	order := checkoutOrder(t, svc, ctx, cartLineForPaid(cheap))
	if order.PaymentStatus != domain.PaymentStatusUnpaid {
		t.Fatalf("expected unpaid without credit, got %s", order.PaymentStatus)
	}

	paidOrder, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Items:           []domain.CartLine{cartLineForPaid(cheap)},
		ShippingAddress: domain.ShippingAddress{Line: "Jl. Melati 5", City: "Jakarta"},
		UseCredit:       true,
	})
	if err != nil {
		t.Fatalf("credit checkout failed: %v", err)
	}
	if paidOrder.PaymentStatus != domain.PaymentStatusPaid || paidOrder.AmountDueCents != 0 {
		t.Fatalf("expected credit-settled order, got %+v", paidOrder)
	}
}

func cartLineForPaid(p domain.Product) domain.CartLine {
	return domain.CartLine{
		ProductID:       p.ID,
		Quantity:        1,
		UnitPriceCents:  p.PriceCents,
		DiscountPercent: p.DiscountPercent,
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	svc, repo := newTestService(t)
	adminCtx := adminContext(t, repo)
	ctx, _ := customerContext(t, repo)
	product := pickProduct(t, repo, "Sandal Jepit")

	order := checkoutOrder(t, svc, ctx, cartLineFor(product, 1))

	if _, err := svc.SetOrderStatus(ctx, order.ID, domain.OrderStatusUpdateRequest{Status: domain.OrderStatusConfirmed}); !errors.Is(err, store.ErrForbidden) {
		t.Fatalf("expected forbidden for customer, got %v", err)
	}

	if _, err := svc.SetOrderStatus(adminCtx, order.ID, domain.OrderStatusUpdateRequest{Status: domain.OrderStatusDelivered}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error skipping states, got %v", err)
	}

	confirmed, err := svc.SetOrderStatus(adminCtx, order.ID, domain.OrderStatusUpdateRequest{Status: domain.OrderStatusConfirmed})
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if confirmed.Status != domain.OrderStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", confirmed.Status)
	}

	shipped, err := svc.SetOrderStatus(adminCtx, order.ID, domain.OrderStatusUpdateRequest{Status: domain.OrderStatusShipped})
	if err != nil {
		t.Fatalf("ship failed: %v", err)
	}

	delivered, err := svc.SetOrderStatus(adminCtx, shipped.ID, domain.OrderStatusUpdateRequest{Status: domain.OrderStatusDelivered})
	if err != nil {
		t.Fatalf("deliver failed: %v", err)
	}

	if _, err := svc.SetOrderStatus(adminCtx, delivered.ID, domain.OrderStatusUpdateRequest{Status: domain.OrderStatusCancelled}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected delivered to be terminal, got %v", err)
	}
}

func TestGetOrderHiddenFromOtherCustomers(t *testing.T) {
	svc, repo := newTestService(t)
	ctx, _ := customerContext(t, repo)
	product := pickProduct(t, repo, "Sandal Jepit")
	order := checkoutOrder(t, svc, ctx, cartLineFor(product, 1))

	other, err := repo.CreateUser(context.Background(), domain.User{
		ID:     "cust-other",
		Phone:  "+628222000333",
		Role:   domain.RoleCustomer,
		Active: true,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	otherCtx := WithActor(context.Background(), domain.Actor{UserID: other.ID, Role: domain.RoleCustomer})

	if _, err := svc.GetOrder(otherCtx, order.ID); !errors.Is(err, store.ErrForbidden) {
		t.Fatalf("other customer reading the order: expected forbidden, got %v", err)
	}

	if _, err := svc.GetOrder(ctx, order.ID); err != nil {
		t.Fatalf("owner must still read the order: %v", err)
	}
}

func TestCustomerCancelOnlyWhilePending(t *testing.T) {
	svc, repo := newTestService(t)
	adminCtx := adminContext(t, repo)
	ctx, _ := customerContext(t, repo)
	product := pickProduct(t, repo, "Sandal Jepit")

	order := checkoutOrder(t, svc, ctx, cartLineFor(product, 1))

	cancelled, err := svc.CancelOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != domain.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	second := checkoutOrder(t, svc, ctx, cartLineFor(product, 1))
	if _, err := svc.SetOrderStatus(adminCtx, second.ID, domain.OrderStatusUpdateRequest{Status: domain.OrderStatusConfirmed}); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if _, err := svc.CancelOrder(ctx, second.ID); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error cancelling confirmed order, got %v", err)
	}
}

func TestPaymentLifecycle(t *testing.T) {
	svc, repo := newTestService(t)
	ctx, _ := customerContext(t, repo)
	product := pickProduct(t, repo, "Sandal Jepit")

	order := checkoutOrder(t, svc, ctx, cartLineFor(product, 1))

	req, err := svc.RequestPayment(ctx, order.ID)
	if err != nil {
		t.Fatalf("request payment failed: %v", err)
	}
	if req.PaymentURL == "" || req.AmountDueCents != order.AmountDueCents {
		t.Fatalf("unexpected payment request: %+v", req)
	}

	paid, err := svc.HandlePaymentCallback(context.Background(), domain.PaymentCallback{
		OrderID:   order.ID,
		Reference: "PAY-001",
		Status:    "success",
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		t.Fatalf("callback failed: %v", err)
	}
	if paid.PaymentStatus != domain.PaymentStatusPaid || paid.PaymentRef != "PAY-001" {
		t.Fatalf("unexpected paid order: %+v", paid)
	}

	replayed, err := svc.HandlePaymentCallback(context.Background(), domain.PaymentCallback{
		OrderID:   order.ID,
		Reference: "PAY-002",
		Status:    "success",
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		t.Fatalf("replayed callback failed: %v", err)
	}
	if replayed.PaymentRef != "PAY-001" {
		t.Fatalf("replay must not overwrite reference, got %s", replayed.PaymentRef)
	}

	if _, err := svc.RequestPayment(ctx, order.ID); !errors.Is(err, store.ErrAlreadyPaid) {
		t.Fatalf("expected already paid, got %v", err)
	}
}

func TestFailedCallbackLeavesOrderUnpaid(t *testing.T) {
	svc, repo := newTestService(t)
	ctx, _ := customerContext(t, repo)
	product := pickProduct(t, repo, "Sandal Jepit")

	order := checkoutOrder(t, svc, ctx, cartLineFor(product, 1))

	after, err := svc.HandlePaymentCallback(context.Background(), domain.PaymentCallback{
		OrderID:   order.ID,
		Reference: "PAY-FAIL",
		Status:    "failed",
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		t.Fatalf("callback failed: %v", err)
	}
	if after.PaymentStatus != domain.PaymentStatusUnpaid {
		t.Fatalf("failed callback must not settle, got %s", after.PaymentStatus)
	}
}

func deliverOrder(t *testing.T, svc *Service, adminCtx context.Context, orderID string) {
	t.Helper()
	for _, status := range []string{domain.OrderStatusConfirmed, domain.OrderStatusShipped, domain.OrderStatusDelivered} {
		if _, err := svc.SetOrderStatus(adminCtx, orderID, domain.OrderStatusUpdateRequest{Status: status}); err != nil {
			t.Fatalf("move to %s failed: %v", status, err)
		}
	}
}

func TestReturnLifecycle(t *testing.T) {
	svc, repo := newTestService(t)
	adminCtx := adminContext(t, repo)
	ctx, _ := customerContext(t, repo)
	product := pickProduct(t, repo, "Sandal Jepit")

	order := checkoutOrder(t, svc, ctx, cartLineFor(product, 2))

	if _, err := svc.RequestReturn(ctx, order.ID, domain.ReturnCreateRequest{
		Reason: "ukuran salah",
		Items:  []domain.ReturnItem{{OrderItemID: order.Lines[0].ID, Quantity: 1}},
	}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation before delivery, got %v", err)
	}

	deliverOrder(t, svc, adminCtx, order.ID)

	if _, err := svc.RequestReturn(ctx, order.ID, domain.ReturnCreateRequest{
		Reason: "terlalu banyak",
		Items:  []domain.ReturnItem{{OrderItemID: order.Lines[0].ID, Quantity: 3}},
	}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected quantity validation, got %v", err)
	}

	ret, err := svc.RequestReturn(ctx, order.ID, domain.ReturnCreateRequest{
		Reason: "ukuran salah",
		Items:  []domain.ReturnItem{{OrderItemID: order.Lines[0].ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("return request failed: %v", err)
	}
	if ret.Status != domain.ReturnStatusRequested {
		t.Fatalf("expected requested, got %s", ret.Status)
	}

	_, dupErr := svc.RequestReturn(ctx, order.ID, domain.ReturnCreateRequest{
		Reason: "lagi",
		Items:  []domain.ReturnItem{{OrderItemID: order.Lines[0].ID, Quantity: 1}},
	})
	if !errors.Is(dupErr, store.ErrConflict) {
		t.Fatalf("expected conflict for second return, got %v", dupErr)
	}
	if !strings.Contains(dupErr.Error(), ret.ID) {
		t.Fatalf("conflict should name the existing return, got %q", dupErr.Error())
	}

	if _, err := svc.DecideReturn(ctx, ret.ID, domain.ReturnStatusUpdateRequest{Status: domain.ReturnStatusApproved}); !errors.Is(err, store.ErrForbidden) {
		t.Fatalf("expected forbidden for customer decision, got %v", err)
	}

	approved, err := svc.DecideReturn(adminCtx, ret.ID, domain.ReturnStatusUpdateRequest{Status: domain.ReturnStatusApproved})
	if err != nil {
		t.Fatalf("decision failed: %v", err)
	}
	if approved.Status != domain.ReturnStatusApproved || approved.DecidedAt == nil {
		t.Fatalf("unexpected decision result: %+v", approved)
	}

	if _, err := svc.DecideReturn(adminCtx, ret.ID, domain.ReturnStatusUpdateRequest{Status: domain.ReturnStatusRejected}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation on second decision, got %v", err)
	}
}

func TestAssignWorkerAndRoutes(t *testing.T) {
	svc, repo := newTestService(t)
	adminCtx := adminContext(t, repo)
	ctx, _ := customerContext(t, repo)
	product := pickProduct(t, repo, "Sandal Jepit")

	workers, err := repo.ListWorkers(context.Background())
	if err != nil || len(workers) < 2 {
		t.Fatalf("expected seeded workers, got %d (%v)", len(workers), err)
	}
	worker := workers[0]

	order := checkoutOrder(t, svc, ctx, cartLineFor(product, 1))
	date := time.Now().UTC().Format("2006-01-02")

	if _, err := svc.AssignWorker(adminCtx, order.ID, domain.AssignWorkerRequest{WorkerID: worker.ID, DeliveryDate: date}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation for pending order, got %v", err)
	}

	if _, err := svc.SetOrderStatus(adminCtx, order.ID, domain.OrderStatusUpdateRequest{Status: domain.OrderStatusConfirmed}); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	customer, _ := repo.GetUserByPhone(context.Background(), "+628111000111")
	if _, err := svc.AssignWorker(adminCtx, order.ID, domain.AssignWorkerRequest{WorkerID: customer.ID, DeliveryDate: date}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation assigning a non-worker, got %v", err)
	}

	assigned, err := svc.AssignWorker(adminCtx, order.ID, domain.AssignWorkerRequest{WorkerID: worker.ID, DeliveryDate: date})
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if assigned.WorkerID != worker.ID || assigned.DeliveryDate != date {
		t.Fatalf("unexpected assignment: %+v", assigned)
	}

	adminRoutes, err := svc.Routes(adminCtx, date)
	if err != nil {
		t.Fatalf("admin routes failed: %v", err)
	}
	if len(adminRoutes.Routes) != 1 || adminRoutes.Routes[0].WorkerID != worker.ID {
		t.Fatalf("unexpected admin routes: %+v", adminRoutes)
	}
	if len(adminRoutes.Routes[0].Stops) != 1 || adminRoutes.Routes[0].Stops[0].OrderID != order.ID {
		t.Fatalf("unexpected stops: %+v", adminRoutes.Routes[0].Stops)
	}

	otherCtx := WithActor(context.Background(), domain.Actor{UserID: workers[1].ID, Role: domain.RoleWorker})
	otherRoutes, err := svc.Routes(otherCtx, date)
	if err != nil {
		t.Fatalf("worker routes failed: %v", err)
	}
	if len(otherRoutes.Routes) != 0 {
		t.Fatalf("worker must not see another courier's route: %+v", otherRoutes)
	}

	workerCtx := WithActor(context.Background(), domain.Actor{UserID: worker.ID, Role: domain.RoleWorker})
	ownRoutes, err := svc.Routes(workerCtx, date)
	if err != nil {
		t.Fatalf("own routes failed: %v", err)
	}
	if len(ownRoutes.Routes) != 1 || ownRoutes.Routes[0].WorkerID != worker.ID {
		t.Fatalf("unexpected own routes: %+v", ownRoutes)
	}
}

func TestProductCacheInvalidation(t *testing.T) {
	svc, repo := newTestService(t)
	adminCtx := adminContext(t, repo)

	first, err := svc.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("list products: %v", err)
	}

	if _, err := svc.CreateProduct(adminCtx, domain.ProductCreateRequest{
		Name:       "Gelang Manik",
		PriceCents: 25000,
		Stock:      5,
	}); err != nil {
		t.Fatalf("create product: %v", err)
	}

	second, err := svc.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("list products again: %v", err)
	}
	if len(second) != len(first)+1 {
		t.Fatalf("expected cache to be invalidated, got %d then %d products", len(first), len(second))
	}
}

func TestSearchProductsUsesCacheUntilInvalidated(t *testing.T) {
	svc, repo := newTestService(t)
	adminCtx := adminContext(t, repo)

	results, err := svc.SearchProducts(context.Background(), "sepatu")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) == 0 {
		t.Fatalf("expected seeded matches for sepatu")
	}

	if _, err := svc.CreateProduct(adminCtx, domain.ProductCreateRequest{
		Name:       "Sepatu Formal",
		PriceCents: 300000,
		Stock:      4,
	}); err != nil {
		t.Fatalf("create product: %v", err)
	}

	after, err := svc.SearchProducts(context.Background(), "sepatu")
	if err != nil {
		t.Fatalf("search again: %v", err)
	}
	if len(after) != len(results)+1 {
		t.Fatalf("expected search cache invalidation, got %d then %d", len(results), len(after))
	}
}

func TestDashboardIsAdminOnly(t *testing.T) {
	svc, repo := newTestService(t)
	adminCtx := adminContext(t, repo)
	ctx, _ := customerContext(t, repo)
	product := pickProduct(t, repo, "Sandal Jepit")

	if _, err := svc.Dashboard(ctx); !errors.Is(err, store.ErrForbidden) {
		t.Fatalf("expected forbidden for customer, got %v", err)
	}

	order := checkoutOrder(t, svc, ctx, cartLineFor(product, 1))
	if _, err := svc.HandlePaymentCallback(context.Background(), domain.PaymentCallback{
		OrderID: order.ID, Reference: "PAY-D", Status: "success", Timestamp: time.Now().Unix(),
	}); err != nil {
		t.Fatalf("callback failed: %v", err)
	}

	summary, err := svc.Dashboard(adminCtx)
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	if summary.OrdersByStatus[domain.OrderStatusPending] != 1 {
		t.Fatalf("expected one pending order, got %+v", summary.OrdersByStatus)
	}
	if summary.RevenueCents != order.TotalCents {
		t.Fatalf("expected revenue %d, got %d", order.TotalCents, summary.RevenueCents)
	}
}

func TestReconcileCartHandlesEmptyAndInvalid(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.ReconcileCart(context.Background(), domain.ReconcileRequest{})
	if err != nil {
		t.Fatalf("empty cart reconcile failed: %v", err)
	}
	if !resp.Valid || len(resp.Changes) != 0 {
		t.Fatalf("empty cart must be valid: %+v", resp)
	}

	_, err = svc.ReconcileCart(context.Background(), domain.ReconcileRequest{
		Items: []domain.CartLine{{ProductID: "", Quantity: 0}},
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
