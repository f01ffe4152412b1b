package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"belanjaku/backend/internal/cache"
	"belanjaku/backend/internal/domain"
	"belanjaku/backend/internal/payment"
	"belanjaku/backend/internal/reconcile"
	"belanjaku/backend/internal/store"
	"belanjaku/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

const (
	cacheKeyProducts   = "products:list"
	cacheKeySearch     = "products:search:"
	cacheKeyCategories = "categories:list"
	cacheKeyDashboard  = "dashboard:summary"
)

// allowedTransitions is the full order state machine. Anything not listed
// here is rejected, regardless of who asks.
var allowedTransitions = map[string][]string{
	domain.OrderStatusPending:   {domain.OrderStatusConfirmed, domain.OrderStatusCancelled},
	domain.OrderStatusConfirmed: {domain.OrderStatusShipped, domain.OrderStatusCancelled},
	domain.OrderStatusShipped:   {domain.OrderStatusDelivered, domain.OrderStatusCancelled},
	domain.OrderStatusDelivered: {},
	domain.OrderStatusCancelled: {},
}

func transitionAllowed(from string, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CartConflictError carries the reconciliation changes that made a checkout
// attempt stale. It wraps ErrConflict so boundary code can map it by kind.
type CartConflictError struct {
	Changes []domain.ChangeRecord
}

func (e *CartConflictError) Error() string {
	return fmt.Sprintf("cart is stale: %d change(s)", len(e.Changes))
}

func (e *CartConflictError) Unwrap() error {
	return store.ErrConflict
}

type Service struct {
	repo        store.Repository
	cache       cache.Store
	engine      *reconcile.Engine
	gateway     payment.Gateway
	productTTL  time.Duration
	categoryTTL time.Duration
}

func New(repo store.Repository, cacheStore cache.Store, gateway payment.Gateway, productTTL time.Duration, categoryTTL time.Duration) *Service {
	if cacheStore == nil {
		cacheStore = cache.Noop{}
	}
	if productTTL <= 0 {
		productTTL = 60 * time.Second
	}
	if categoryTTL <= 0 {
		categoryTTL = time.Hour
	}

	return &Service{
		repo:        repo,
		cache:       cacheStore,
		engine:      reconcile.NewEngine(),
		gateway:     gateway,
		productTTL:  productTTL,
		categoryTTL: categoryTTL,
	}
}

func (s *Service) requireRole(ctx context.Context, roles ...string) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Actor{}, store.ErrUnauthorized
	}
	for _, role := range roles {
		if actor.Role == role {
			return actor, nil
		}
	}
	return domain.Actor{}, store.ErrForbidden
}

// ReconcileCart checks a client cart snapshot against the live catalog and
// reports every correction the client must apply. Read-only.
func (s *Service) ReconcileCart(ctx context.Context, req domain.ReconcileRequest) (domain.ReconcileResponse, error) {
	if len(req.Items) == 0 {
		return domain.ReconcileResponse{Valid: true, Changes: []domain.ChangeRecord{}}, nil
	}
	for _, line := range req.Items {
		if line.ProductID == "" || line.Quantity < 1 {
			return domain.ReconcileResponse{}, store.ErrValidation
		}
	}

	products, err := s.repo.GetProductsByIDs(ctx, reconcile.ProductIDs(req.Items))
	if err != nil {
		return domain.ReconcileResponse{}, err
	}

	return s.engine.Reconcile(req.Items, products), nil
}

// Checkout re-runs reconciliation server-side and refuses to create an order
// from a stale cart. Totals are recomputed from the catalog, never taken from
// the client.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.Order, error) {
	actor, err := s.requireRole(ctx, domain.RoleCustomer)
	if err != nil {
		return domain.Order{}, err
	}

	if len(req.Items) == 0 {
		return domain.Order{}, fmt.Errorf("%w: empty cart", store.ErrValidation)
	}
	if strings.TrimSpace(req.ShippingAddress.Line) == "" || strings.TrimSpace(req.ShippingAddress.City) == "" {
		return domain.Order{}, fmt.Errorf("%w: shipping address required", store.ErrValidation)
	}
	for _, line := range req.Items {
		if line.ProductID == "" || line.Quantity < 1 {
			return domain.Order{}, store.ErrValidation
		}
	}

	products, err := s.repo.GetProductsByIDs(ctx, reconcile.ProductIDs(req.Items))
	if err != nil {
		return domain.Order{}, err
	}

	result := s.engine.Reconcile(req.Items, products)
	if !result.Valid {
		return domain.Order{}, &CartConflictError{Changes: result.Changes}
	}

	lines := make([]domain.OrderLine, 0, len(req.Items))
	total := int64(0)
	for _, item := range req.Items {
		product := products[item.ProductID]
		lines = append(lines, domain.OrderLine{
			ID:              xid.New("line"),
			ProductID:       product.ID,
			Name:            product.Name,
			Quantity:        item.Quantity,
			UnitPriceCents:  product.PriceCents,
			DiscountPercent: product.DiscountPercent,
		})
		total += domain.LineTotalCents(product.PriceCents, product.DiscountPercent, item.Quantity)
	}

	creditUsed := int64(0)
	if req.UseCredit {
		user, err := s.repo.GetUserByID(ctx, actor.UserID)
		if err != nil {
			return domain.Order{}, err
		}
		creditUsed = user.CreditCents
		if creditUsed > total {
			creditUsed = total
		}
	}

	order := domain.Order{
		ID:              uuid.NewString(),
		UserID:          actor.UserID,
		Lines:           lines,
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusUnpaid,
		TotalCents:      total,
		CreditUsedCents: creditUsed,
		AmountDueCents:  total - creditUsed,
		ShippingAddress: req.ShippingAddress,
		CreatedAt:       time.Now().UTC(),
	}
	if order.AmountDueCents == 0 {
		order.PaymentStatus = domain.PaymentStatusPaid
		order.PaymentRef = "store-credit"
	}

	created, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		return domain.Order{}, err
	}

	s.invalidateDashboard(ctx)
	s.logAudit(ctx, "order_create", "order", created.ID, fmt.Sprintf("total=%d,credit_used=%d,lines=%d", created.TotalCents, created.CreditUsedCents, len(created.Lines)))

	return *created, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Order{}, store.ErrUnauthorized
	}

	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleWorker:
		if order.WorkerID != actor.UserID {
			return domain.Order{}, store.ErrForbidden
		}
	default:
		if order.UserID != actor.UserID {
			return domain.Order{}, store.ErrForbidden
		}
	}

	return *order, nil
}

func (s *Service) ListMyOrders(ctx context.Context) ([]domain.Order, error) {
	actor, err := s.requireRole(ctx, domain.RoleCustomer)
	if err != nil {
		return nil, err
	}
	return s.repo.ListOrdersByUser(ctx, actor.UserID)
}

func (s *Service) ListOrders(ctx context.Context, status string, limit int) ([]domain.Order, error) {
	if _, err := s.requireRole(ctx, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if status != "" && !isOrderStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", store.ErrValidation, status)
	}
	return s.repo.ListOrders(ctx, status, limit)
}

// SetOrderStatus moves an order along the state machine. Only admins may
// drive it directly; customers cancel through CancelOrder.
func (s *Service) SetOrderStatus(ctx context.Context, orderID string, req domain.OrderStatusUpdateRequest) (domain.Order, error) {
	if _, err := s.requireRole(ctx, domain.RoleAdmin); err != nil {
		return domain.Order{}, err
	}
	if !isOrderStatus(req.Status) {
		return domain.Order{}, fmt.Errorf("%w: unknown status %q", store.ErrValidation, req.Status)
	}

	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if !transitionAllowed(order.Status, req.Status) {
		return domain.Order{}, fmt.Errorf("%w: cannot move %s to %s", store.ErrValidation, order.Status, req.Status)
	}

	updated, err := s.repo.UpdateOrderStatus(ctx, orderID, req.Status)
	if err != nil {
		return domain.Order{}, err
	}

	s.invalidateDashboard(ctx)
	s.logAudit(ctx, "order_status", "order", orderID, fmt.Sprintf("%s->%s", order.Status, req.Status))

	return *updated, nil
}

// CancelOrder is the customer-facing cancellation: own order, and only while
// it is still PENDING.
func (s *Service) CancelOrder(ctx context.Context, orderID string) (domain.Order, error) {
	actor, err := s.requireRole(ctx, domain.RoleCustomer)
	if err != nil {
		return domain.Order{}, err
	}

	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if order.UserID != actor.UserID {
		return domain.Order{}, store.ErrForbidden
	}
	if order.Status != domain.OrderStatusPending {
		return domain.Order{}, fmt.Errorf("%w: only pending orders can be cancelled", store.ErrValidation)
	}

	updated, err := s.repo.UpdateOrderStatus(ctx, orderID, domain.OrderStatusCancelled)
	if err != nil {
		return domain.Order{}, err
	}

	s.invalidateDashboard(ctx)
	s.logAudit(ctx, "order_cancel", "order", orderID, "by customer")

	return *updated, nil
}

// RequestPayment opens a gateway session for the outstanding amount.
func (s *Service) RequestPayment(ctx context.Context, orderID string) (domain.PaymentRequestResponse, error) {
	actor, err := s.requireRole(ctx, domain.RoleCustomer)
	if err != nil {
		return domain.PaymentRequestResponse{}, err
	}

	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return domain.PaymentRequestResponse{}, err
	}
	if order.UserID != actor.UserID {
		return domain.PaymentRequestResponse{}, store.ErrForbidden
	}
	if order.PaymentStatus == domain.PaymentStatusPaid {
		return domain.PaymentRequestResponse{}, store.ErrAlreadyPaid
	}
	if order.Status == domain.OrderStatusCancelled {
		return domain.PaymentRequestResponse{}, fmt.Errorf("%w: order is cancelled", store.ErrValidation)
	}

	url, err := s.gateway.CreatePaymentSession(ctx, order.ID, order.AmountDueCents)
	if err != nil {
		return domain.PaymentRequestResponse{}, err
	}

	return domain.PaymentRequestResponse{
		OrderID:        order.ID,
		AmountDueCents: order.AmountDueCents,
		PaymentURL:     url,
	}, nil
}

// HandlePaymentCallback settles an order after the HTTP layer has verified
// the gateway signature. Replays of an already settled order are a no-op.
func (s *Service) HandlePaymentCallback(ctx context.Context, cb domain.PaymentCallback) (domain.Order, error) {
	if cb.OrderID == "" || cb.Reference == "" {
		return domain.Order{}, store.ErrValidation
	}
	if cb.Status != "success" {
		log.Printf("[service] payment callback ignored order=%s status=%s", cb.OrderID, cb.Status)
		order, err := s.repo.GetOrderByID(ctx, cb.OrderID)
		if err != nil {
			return domain.Order{}, err
		}
		return *order, nil
	}

	order, err := s.repo.MarkOrderPaid(ctx, cb.OrderID, cb.Reference)
	if err != nil {
		return domain.Order{}, err
	}

	s.invalidateDashboard(ctx)
	s.logAudit(ctx, "order_paid", "order", order.ID, "ref="+order.PaymentRef)

	return *order, nil
}

// RequestReturn opens a return for a delivered order. One return per order;
// every line must reference an item of the order and stay within its
// ordered quantity.
func (s *Service) RequestReturn(ctx context.Context, orderID string, req domain.ReturnCreateRequest) (domain.ReturnRequest, error) {
	actor, err := s.requireRole(ctx, domain.RoleCustomer)
	if err != nil {
		return domain.ReturnRequest{}, err
	}

	if len(req.Items) == 0 {
		return domain.ReturnRequest{}, fmt.Errorf("%w: no return items", store.ErrValidation)
	}

	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return domain.ReturnRequest{}, err
	}
	if order.UserID != actor.UserID {
		return domain.ReturnRequest{}, store.ErrForbidden
	}
	if order.Status != domain.OrderStatusDelivered {
		return domain.ReturnRequest{}, fmt.Errorf("%w: only delivered orders can be returned", store.ErrValidation)
	}

	existing, err := s.repo.GetReturnRequestByOrder(ctx, order.ID)
	if err == nil {
		return domain.ReturnRequest{}, fmt.Errorf("%w: return %s already covers this order", store.ErrConflict, existing.ID)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.ReturnRequest{}, err
	}

	orderedQty := make(map[string]int, len(order.Lines))
	for _, line := range order.Lines {
		orderedQty[line.ID] = line.Quantity
	}
	for _, item := range req.Items {
		qty, ok := orderedQty[item.OrderItemID]
		if !ok {
			return domain.ReturnRequest{}, fmt.Errorf("%w: item %s is not part of the order", store.ErrValidation, item.OrderItemID)
		}
		if item.Quantity < 1 || item.Quantity > qty {
			return domain.ReturnRequest{}, fmt.Errorf("%w: quantity out of range for item %s", store.ErrValidation, item.OrderItemID)
		}
	}

	ret := domain.ReturnRequest{
		ID:        uuid.NewString(),
		OrderID:   order.ID,
		UserID:    actor.UserID,
		Items:     req.Items,
		Reason:    strings.TrimSpace(req.Reason),
		Status:    domain.ReturnStatusRequested,
		CreatedAt: time.Now().UTC(),
	}

	created, err := s.repo.CreateReturnRequest(ctx, ret)
	if err != nil {
		return domain.ReturnRequest{}, err
	}

	s.invalidateDashboard(ctx)
	s.logAudit(ctx, "return_request", "return", created.ID, fmt.Sprintf("order=%s,items=%d", order.ID, len(req.Items)))

	return *created, nil
}

func (s *Service) GetReturn(ctx context.Context, returnID string) (domain.ReturnRequest, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.ReturnRequest{}, store.ErrUnauthorized
	}

	ret, err := s.repo.GetReturnRequestByID(ctx, returnID)
	if err != nil {
		return domain.ReturnRequest{}, err
	}
	if actor.Role != domain.RoleAdmin && ret.UserID != actor.UserID {
		return domain.ReturnRequest{}, store.ErrForbidden
	}
	return *ret, nil
}

// DecideReturn approves or rejects a requested return. The decision is a
// status flip; refund settlement happens outside this system.
func (s *Service) DecideReturn(ctx context.Context, returnID string, req domain.ReturnStatusUpdateRequest) (domain.ReturnRequest, error) {
	if _, err := s.requireRole(ctx, domain.RoleAdmin); err != nil {
		return domain.ReturnRequest{}, err
	}
	if req.Status != domain.ReturnStatusApproved && req.Status != domain.ReturnStatusRejected {
		return domain.ReturnRequest{}, fmt.Errorf("%w: decision must be %s or %s", store.ErrValidation, domain.ReturnStatusApproved, domain.ReturnStatusRejected)
	}

	ret, err := s.repo.GetReturnRequestByID(ctx, returnID)
	if err != nil {
		return domain.ReturnRequest{}, err
	}
	if ret.Status != domain.ReturnStatusRequested {
		return domain.ReturnRequest{}, fmt.Errorf("%w: return already decided", store.ErrValidation)
	}

	updated, err := s.repo.UpdateReturnStatus(ctx, returnID, req.Status, time.Now().UTC())
	if err != nil {
		return domain.ReturnRequest{}, err
	}

	s.invalidateDashboard(ctx)
	s.logAudit(ctx, "return_decide", "return", returnID, req.Status)

	return *updated, nil
}

// AssignWorker puts a confirmed order on a courier's route for a date.
func (s *Service) AssignWorker(ctx context.Context, orderID string, req domain.AssignWorkerRequest) (domain.Order, error) {
	if _, err := s.requireRole(ctx, domain.RoleAdmin); err != nil {
		return domain.Order{}, err
	}
	if req.WorkerID == "" {
		return domain.Order{}, fmt.Errorf("%w: worker id required", store.ErrValidation)
	}
	if _, err := time.Parse("2006-01-02", req.DeliveryDate); err != nil {
		return domain.Order{}, fmt.Errorf("%w: delivery date must be YYYY-MM-DD", store.ErrValidation)
	}

	worker, err := s.repo.GetUserByID(ctx, req.WorkerID)
	if err != nil {
		return domain.Order{}, err
	}
	if worker.Role != domain.RoleWorker || !worker.Active {
		return domain.Order{}, fmt.Errorf("%w: user is not an active worker", store.ErrValidation)
	}

	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if order.Status != domain.OrderStatusConfirmed {
		return domain.Order{}, fmt.Errorf("%w: only confirmed orders can be assigned", store.ErrValidation)
	}

	updated, err := s.repo.AssignOrderWorker(ctx, orderID, req.WorkerID, req.DeliveryDate)
	if err != nil {
		return domain.Order{}, err
	}

	s.logAudit(ctx, "order_assign", "order", orderID, fmt.Sprintf("worker=%s,date=%s", req.WorkerID, req.DeliveryDate))

	return *updated, nil
}

// Routes groups the confirmed orders of a date by courier. Admins see all
// routes; a worker only their own.
func (s *Service) Routes(ctx context.Context, date string) (domain.RouteResponse, error) {
	actor, err := s.requireRole(ctx, domain.RoleAdmin, domain.RoleWorker)
	if err != nil {
		return domain.RouteResponse{}, err
	}
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return domain.RouteResponse{}, fmt.Errorf("%w: date must be YYYY-MM-DD", store.ErrValidation)
	}

	workerID := ""
	if actor.Role == domain.RoleWorker {
		workerID = actor.UserID
	}

	orders, err := s.repo.ListOrdersForDelivery(ctx, date, workerID)
	if err != nil {
		return domain.RouteResponse{}, err
	}

	byWorker := make(map[string]*domain.WorkerRoute)
	workerIDs := make([]string, 0, 8)
	for _, order := range orders {
		if order.WorkerID == "" {
			continue
		}
		route, ok := byWorker[order.WorkerID]
		if !ok {
			route = &domain.WorkerRoute{WorkerID: order.WorkerID, Date: date}
			byWorker[order.WorkerID] = route
			workerIDs = append(workerIDs, order.WorkerID)
		}
		route.Stops = append(route.Stops, domain.RouteStop{
			OrderID:     order.ID,
			Destination: order.ShippingAddress,
			Lines:       order.Lines,
		})
	}

	resp := domain.RouteResponse{Date: date, Routes: make([]domain.WorkerRoute, 0, len(workerIDs))}
	for _, id := range workerIDs {
		resp.Routes = append(resp.Routes, *byWorker[id])
	}
	return resp, nil
}

func (s *Service) ListWorkers(ctx context.Context) ([]domain.User, error) {
	if _, err := s.requireRole(ctx, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.repo.ListWorkers(ctx)
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var cached []domain.Product
	if s.readCache(ctx, cacheKeyProducts, &cached) {
		return cached, nil
	}

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, cacheKeyProducts, products, s.productTTL)
	return products, nil
}

func (s *Service) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return s.ListProducts(ctx)
	}

	key := cacheKeySearch + query
	var cached []domain.Product
	if s.readCache(ctx, key, &cached) {
		return cached, nil
	}

	products, err := s.repo.SearchProducts(ctx, query)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, key, products, s.productTTL)
	return products, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	if _, err := s.requireRole(ctx, domain.RoleAdmin); err != nil {
		return domain.Product{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.PriceCents < 1 {
		return domain.Product{}, store.ErrValidation
	}
	if req.DiscountPercent < 0 || req.DiscountPercent > 100 || req.Stock < 0 {
		return domain.Product{}, store.ErrValidation
	}

	product := domain.Product{
		ID:              uuid.NewString(),
		Name:            req.Name,
		CategoryID:      req.CategoryID,
		Description:     strings.TrimSpace(req.Description),
		ImageURL:        strings.TrimSpace(req.ImageURL),
		PriceCents:      req.PriceCents,
		DiscountPercent: req.DiscountPercent,
		Stock:           req.Stock,
		Available:       true,
		CreatedAt:       time.Now().UTC(),
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.invalidateProducts(ctx)
	s.logAudit(ctx, "product_create", "product", created.ID, fmt.Sprintf("name=%s,price=%d,stock=%d", created.Name, created.PriceCents, created.Stock))

	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	if _, err := s.requireRole(ctx, domain.RoleAdmin); err != nil {
		return domain.Product{}, err
	}

	existing, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, store.ErrValidation
		}
		updated.Name = name
	}
	if req.CategoryID != nil {
		updated.CategoryID = *req.CategoryID
	}
	if req.Description != nil {
		updated.Description = strings.TrimSpace(*req.Description)
	}
	if req.ImageURL != nil {
		updated.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 1 {
			return domain.Product{}, store.ErrValidation
		}
		updated.PriceCents = *req.PriceCents
	}
	if req.DiscountPercent != nil {
		if *req.DiscountPercent < 0 || *req.DiscountPercent > 100 {
			return domain.Product{}, store.ErrValidation
		}
		updated.DiscountPercent = *req.DiscountPercent
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return domain.Product{}, store.ErrValidation
		}
		updated.Stock = *req.Stock
	}
	if req.Available != nil {
		updated.Available = *req.Available
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}

	s.invalidateProducts(ctx)
	s.logAudit(ctx, "product_update", "product", saved.ID, fmt.Sprintf("price=%d,stock=%d,available=%t", saved.PriceCents, saved.Stock, saved.Available))

	return *saved, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if _, err := s.requireRole(ctx, domain.RoleAdmin); err != nil {
		return err
	}

	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}

	s.invalidateProducts(ctx)
	s.logAudit(ctx, "product_delete", "product", id, "")
	return nil
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var cached []domain.Category
	if s.readCache(ctx, cacheKeyCategories, &cached) {
		return cached, nil
	}

	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, cacheKeyCategories, categories, s.categoryTTL)
	return categories, nil
}

func (s *Service) CreateCategory(ctx context.Context, req domain.CategoryCreateRequest) (domain.Category, error) {
	if _, err := s.requireRole(ctx, domain.RoleAdmin); err != nil {
		return domain.Category{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Category{}, store.ErrValidation
	}
	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = slugify(req.Name)
	}

	category := domain.Category{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Slug:      slug,
		CreatedAt: time.Now().UTC(),
	}

	created, err := s.repo.CreateCategory(ctx, category)
	if err != nil {
		return domain.Category{}, err
	}

	s.deleteCache(ctx, cacheKeyCategories)
	s.logAudit(ctx, "category_create", "category", created.ID, created.Slug)

	return *created, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	if _, err := s.requireRole(ctx, domain.RoleAdmin); err != nil {
		return err
	}

	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}

	s.deleteCache(ctx, cacheKeyCategories)
	s.invalidateProducts(ctx)
	s.logAudit(ctx, "category_delete", "category", id, "")
	return nil
}

func (s *Service) Dashboard(ctx context.Context) (domain.DashboardSummary, error) {
	if _, err := s.requireRole(ctx, domain.RoleAdmin); err != nil {
		return domain.DashboardSummary{}, err
	}

	var cached domain.DashboardSummary
	if s.readCache(ctx, cacheKeyDashboard, &cached) {
		return cached, nil
	}

	summary, err := s.repo.GetDashboardSummary(ctx)
	if err != nil {
		return domain.DashboardSummary{}, err
	}
	summary.GeneratedAt = time.Now().UTC().Format(time.RFC3339)

	s.writeCache(ctx, cacheKeyDashboard, summary, 60*time.Second)
	return summary, nil
}

func (s *Service) ListAuditLogs(ctx context.Context, date string, limit int) ([]domain.AuditLog, error) {
	if _, err := s.requireRole(ctx, domain.RoleAdmin); err != nil {
		return nil, err
	}

	day := time.Now().UTC()
	if date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", store.ErrValidation)
		}
		day = parsed
	}
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	return s.repo.ListAuditLogs(ctx, from, to, limit)
}

func (s *Service) readCache(ctx context.Context, key string, out any) bool {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Printf("[cache] WARN: get %s: %v", key, err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.Printf("[cache] WARN: decode %s: %v", key, err)
		return false
	}
	return true
}

func (s *Service) writeCache(ctx context.Context, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		log.Printf("[cache] WARN: encode %s: %v", key, err)
		return
	}
	if err := s.cache.Set(ctx, key, raw, ttl); err != nil {
		log.Printf("[cache] WARN: set %s: %v", key, err)
	}
}

func (s *Service) deleteCache(ctx context.Context, key string) {
	if err := s.cache.Delete(ctx, key); err != nil {
		log.Printf("[cache] WARN: delete %s: %v", key, err)
	}
}

func (s *Service) invalidateProducts(ctx context.Context) {
	s.deleteCache(ctx, cacheKeyProducts)
	if err := s.cache.DeletePattern(ctx, cacheKeySearch+"*"); err != nil {
		log.Printf("[cache] WARN: delete pattern %s*: %v", cacheKeySearch, err)
	}
	s.deleteCache(ctx, cacheKeyDashboard)
}

func (s *Service) invalidateDashboard(ctx context.Context) {
	s.deleteCache(ctx, cacheKeyDashboard)
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{UserID: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:         xid.New("audit"),
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		log.Printf("[audit] WARN: failed to write audit log action=%s entity=%s/%s: %v", action, entityType, entityID, err)
	}
}

func isOrderStatus(status string) bool {
	_, ok := allowedTransitions[status]
	return ok
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Join(strings.Fields(slug), "-")
	var b strings.Builder
	for _, r := range slug {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-")
}
