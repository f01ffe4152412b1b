package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"belanjaku/backend/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAlreadyPaid is a Conflict: re-requesting payment on a settled order.
	ErrAlreadyPaid = fmt.Errorf("%w: order already paid", ErrConflict)
)

type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	SearchProducts(ctx context.Context, query string) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	// CreateOrder persists the order and, when creditUsed > 0, deducts the
	// credit from the owning user in the same atomic operation.
	CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error)
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListOrders(ctx context.Context, status string, limit int) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status string) (*domain.Order, error)
	MarkOrderPaid(ctx context.Context, id string, reference string) (*domain.Order, error)
	AssignOrderWorker(ctx context.Context, id string, workerID string, deliveryDate string) (*domain.Order, error)
	ListOrdersForDelivery(ctx context.Context, date string, workerID string) ([]domain.Order, error)

	CreateReturnRequest(ctx context.Context, ret domain.ReturnRequest) (*domain.ReturnRequest, error)
	GetReturnRequestByID(ctx context.Context, id string) (*domain.ReturnRequest, error)
	GetReturnRequestByOrder(ctx context.Context, orderID string) (*domain.ReturnRequest, error)
	UpdateReturnStatus(ctx context.Context, id string, status string, decidedAt time.Time) (*domain.ReturnRequest, error)

	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	CreateUser(ctx context.Context, user domain.User) (*domain.User, error)
	ListWorkers(ctx context.Context) ([]domain.User, error)

	GetDashboardSummary(ctx context.Context) (domain.DashboardSummary, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)
}
