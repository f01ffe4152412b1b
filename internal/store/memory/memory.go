package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"belanjaku/backend/internal/domain"
	"belanjaku/backend/internal/store"
)

type Store struct {
	mu             sync.RWMutex
	products       map[string]domain.Product
	categories     map[string]domain.Category
	ordersByID     map[string]*domain.Order
	returnsByID    map[string]domain.ReturnRequest
	returnByOrder  map[string]string
	usersByID      map[string]*domain.User
	userIDByPhone  map[string]string
	userIDByName   map[string]string
	auditLogs      []domain.AuditLog
}

func New() *Store {
	return &Store{
		products:      make(map[string]domain.Product),
		categories:    make(map[string]domain.Category),
		ordersByID:    make(map[string]*domain.Order),
		returnsByID:   make(map[string]domain.ReturnRequest),
		returnByOrder: make(map[string]string),
		usersByID:     make(map[string]*domain.User),
		userIDByPhone: make(map[string]string),
		userIDByName:  make(map[string]string),
		auditLogs:     make([]domain.AuditLog, 0, 128),
	}
}

// seedUsers builds the dev/demo accounts. Passwords come from
// SEED_ADMIN_PASSWORD and SEED_WORKER_PASSWORD; hardcoded defaults are only
// for local runs and a warning is printed when they are used.
func seedUsers() []domain.User {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	workerPwd := envOr("SEED_WORKER_PASSWORD", "worker123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_WORKER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_WORKER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := make([]domain.User, 0, 4)
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, domain.RoleAdmin},
		{"kurir-a", workerPwd, domain.RoleWorker},
		{"kurir-b", workerPwd, domain.RoleWorker},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users = append(users, domain.User{
			ID:           uuid.NewString(),
			Username:     u.username,
			Role:         u.role,
			PasswordHash: string(hash),
			Active:       true,
			CreatedAt:    now,
		})
	}
	users = append(users, domain.User{
		ID:          uuid.NewString(),
		Phone:       "+628111000111",
		Role:        domain.RoleCustomer,
		CreditCents: 25000,
		Active:      true,
		CreatedAt:   now,
	})
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	categories := []domain.Category{
		{ID: uuid.NewString(), Name: "Pakaian", Slug: "pakaian", CreatedAt: now},
		{ID: uuid.NewString(), Name: "Sepatu", Slug: "sepatu", CreatedAt: now},
		{ID: uuid.NewString(), Name: "Aksesoris", Slug: "aksesoris", CreatedAt: now},
	}
	for _, c := range categories {
		s.categories[c.ID] = c
	}

	products := []domain.Product{
		{Name: "Kaos Polos Hitam", CategoryID: categories[0].ID, PriceCents: 65000, DiscountPercent: 0, Stock: 40, Available: true},
		{Name: "Kemeja Flanel", CategoryID: categories[0].ID, PriceCents: 185000, DiscountPercent: 10, Stock: 25, Available: true},
		{Name: "Celana Chino", CategoryID: categories[0].ID, PriceCents: 220000, DiscountPercent: 0, Stock: 18, Available: true},
		{Name: "Sepatu Lari Ringan", CategoryID: categories[1].ID, PriceCents: 540000, DiscountPercent: 15, Stock: 12, Available: true},
		{Name: "Sandal Jepit", CategoryID: categories[1].ID, PriceCents: 38000, DiscountPercent: 0, Stock: 60, Available: true},
		{Name: "Topi Baseball", CategoryID: categories[2].ID, PriceCents: 75000, DiscountPercent: 5, Stock: 30, Available: true},
		{Name: "Tas Selempang", CategoryID: categories[2].ID, PriceCents: 130000, DiscountPercent: 0, Stock: 0, Available: true},
		{Name: "Jam Tangan Analog", CategoryID: categories[2].ID, PriceCents: 450000, DiscountPercent: 0, Stock: 8, Available: false},
	}
	for _, p := range products {
		p.ID = uuid.NewString()
		p.CreatedAt = now
		s.products[p.ID] = p
	}

	for _, u := range seedUsers() {
		user := u
		s.usersByID[user.ID] = &user
		if user.Phone != "" {
			s.userIDByPhone[user.Phone] = user.ID
		}
		if user.Username != "" {
			s.userIDByName[user.Username] = user.ID
		}
	}

	return s
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

func (s *Store) SearchProducts(_ context.Context, query string) ([]domain.Product, error) {
	query = strings.ToLower(strings.TrimSpace(query))

	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, 16)
	for _, p := range s.products {
		if query == "" || strings.Contains(strings.ToLower(p.Name), query) || strings.Contains(strings.ToLower(p.Description), query) {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

func (s *Store) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &product, nil
}

func (s *Store) GetProductsByIDs(_ context.Context, ids []string) (map[string]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if product, ok := s.products[id]; ok {
			result[id] = product
		}
	}
	return result, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" || product.Name == "" || product.PriceCents < 1 {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; exists {
		return nil, store.ErrConflict
	}
	if product.CategoryID != "" {
		if _, ok := s.categories[product.CategoryID]; !ok {
			return nil, fmt.Errorf("%w: unknown category", store.ErrValidation)
		}
	}
	s.products[product.ID] = product
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" || product.Name == "" || product.PriceCents < 1 {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.products[product.ID] = product
	saved := product
	return &saved, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *Store) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (s *Store) CreateCategory(_ context.Context, category domain.Category) (*domain.Category, error) {
	if category.ID == "" || category.Name == "" || category.Slug == "" {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.categories {
		if existing.Slug == category.Slug {
			return nil, fmt.Errorf("%w: slug already in use", store.ErrConflict)
		}
	}
	s.categories[category.ID] = category
	created := category
	return &created, nil
}

func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.categories[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) CreateOrder(_ context.Context, order domain.Order) (*domain.Order, error) {
	if order.ID == "" || order.UserID == "" || len(order.Lines) == 0 {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ordersByID[order.ID]; exists {
		return nil, store.ErrConflict
	}
	user, ok := s.usersByID[order.UserID]
	if !ok {
		return nil, fmt.Errorf("%w: user", store.ErrNotFound)
	}
	if order.CreditUsedCents > 0 {
		if order.CreditUsedCents > user.CreditCents {
			return nil, fmt.Errorf("%w: credit exceeds balance", store.ErrValidation)
		}
		user.CreditCents -= order.CreditUsedCents
	}

	stored := cloneOrder(order)
	s.ordersByID[order.ID] = &stored
	created := cloneOrder(stored)
	return &created, nil
}

func (s *Store) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.ordersByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := cloneOrder(*order)
	return &found, nil
}

func (s *Store) ListOrdersByUser(_ context.Context, userID string) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]domain.Order, 0, 8)
	for _, order := range s.ordersByID {
		if order.UserID == userID {
			orders = append(orders, cloneOrder(*order))
		}
	}
	sortOrdersNewestFirst(orders)
	return orders, nil
}

func (s *Store) ListOrders(_ context.Context, status string, limit int) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]domain.Order, 0, len(s.ordersByID))
	for _, order := range s.ordersByID {
		if status != "" && order.Status != status {
			continue
		}
		orders = append(orders, cloneOrder(*order))
	}
	sortOrdersNewestFirst(orders)
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (s *Store) UpdateOrderStatus(_ context.Context, id string, status string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.ordersByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	order.Status = status
	updated := cloneOrder(*order)
	return &updated, nil
}

func (s *Store) MarkOrderPaid(_ context.Context, id string, reference string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.ordersByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if order.PaymentStatus != domain.PaymentStatusPaid {
		order.PaymentStatus = domain.PaymentStatusPaid
		order.PaymentRef = reference
		order.AmountDueCents = 0
	}
	updated := cloneOrder(*order)
	return &updated, nil
}

func (s *Store) AssignOrderWorker(_ context.Context, id string, workerID string, deliveryDate string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.ordersByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	order.WorkerID = workerID
	order.DeliveryDate = deliveryDate
	updated := cloneOrder(*order)
	return &updated, nil
}

func (s *Store) ListOrdersForDelivery(_ context.Context, date string, workerID string) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]domain.Order, 0, 16)
	for _, order := range s.ordersByID {
		if order.Status != domain.OrderStatusConfirmed {
			continue
		}
		if date != "" && order.DeliveryDate != date {
			continue
		}
		if workerID != "" && order.WorkerID != workerID {
			continue
		}
		orders = append(orders, cloneOrder(*order))
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.Before(orders[j].CreatedAt) })
	return orders, nil
}

func (s *Store) CreateReturnRequest(_ context.Context, ret domain.ReturnRequest) (*domain.ReturnRequest, error) {
	if ret.ID == "" || ret.OrderID == "" || len(ret.Items) == 0 {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.returnByOrder[ret.OrderID]; exists {
		return nil, fmt.Errorf("%w: order already has a return request", store.ErrConflict)
	}
	s.returnsByID[ret.ID] = ret
	s.returnByOrder[ret.OrderID] = ret.ID
	created := ret
	return &created, nil
}

func (s *Store) GetReturnRequestByID(_ context.Context, id string) (*domain.ReturnRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ret, ok := s.returnsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &ret, nil
}

func (s *Store) GetReturnRequestByOrder(_ context.Context, orderID string) (*domain.ReturnRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.returnByOrder[orderID]
	if !ok {
		return nil, store.ErrNotFound
	}
	ret := s.returnsByID[id]
	return &ret, nil
}

func (s *Store) UpdateReturnStatus(_ context.Context, id string, status string, decidedAt time.Time) (*domain.ReturnRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ret, ok := s.returnsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	ret.Status = status
	ret.DecidedAt = &decidedAt
	s.returnsByID[id] = ret
	return &ret, nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.usersByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := *user
	return &found, nil
}

func (s *Store) GetUserByPhone(_ context.Context, phone string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.userIDByPhone[phone]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := *s.usersByID[id]
	return &found, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.userIDByName[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := *s.usersByID[id]
	return &found, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.User) (*domain.User, error) {
	if user.ID == "" || user.Role == "" {
		return nil, store.ErrValidation
	}
	if user.Phone == "" && user.Username == "" {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Phone != "" {
		if _, exists := s.userIDByPhone[user.Phone]; exists {
			return nil, store.ErrConflict
		}
	}
	if user.Username != "" {
		if _, exists := s.userIDByName[user.Username]; exists {
			return nil, store.ErrConflict
		}
	}

	stored := user
	s.usersByID[user.ID] = &stored
	if user.Phone != "" {
		s.userIDByPhone[user.Phone] = user.ID
	}
	if user.Username != "" {
		s.userIDByName[user.Username] = user.ID
	}
	created := stored
	return &created, nil
}

func (s *Store) ListWorkers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	workers := make([]domain.User, 0, 8)
	for _, user := range s.usersByID {
		if user.Role == domain.RoleWorker && user.Active {
			workers = append(workers, *user)
		}
	}
	sort.Slice(workers, func(i, j int) bool { return workers[i].Username < workers[j].Username })
	return workers, nil
}

func (s *Store) GetDashboardSummary(_ context.Context) (domain.DashboardSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := domain.DashboardSummary{
		OrdersByStatus: make(map[string]int64, 5),
	}
	for _, order := range s.ordersByID {
		summary.OrdersByStatus[order.Status]++
		if order.PaymentStatus == domain.PaymentStatusPaid {
			summary.RevenueCents += order.TotalCents
		}
	}
	for _, ret := range s.returnsByID {
		if ret.Status == domain.ReturnStatusRequested {
			summary.PendingReturns++
		}
	}
	summary.ProductCount = int64(len(s.products))
	return summary, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := make([]domain.AuditLog, 0, limit)
	for _, entry := range s.auditLogs {
		if entry.CreatedAt.Before(from) || !entry.CreatedAt.Before(to) {
			continue
		}
		logs = append(logs, entry)
		if limit > 0 && len(logs) >= limit {
			break
		}
	}
	return logs, nil
}

func cloneOrder(order domain.Order) domain.Order {
	cloned := order
	cloned.Lines = make([]domain.OrderLine, len(order.Lines))
	copy(cloned.Lines, order.Lines)
	return cloned
}

func sortOrdersNewestFirst(orders []domain.Order) {
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
}
