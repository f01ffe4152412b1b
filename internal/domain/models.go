package domain

import "time"

type Product struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	CategoryID      string    `json:"category_id"`
	Description     string    `json:"description,omitempty"`
	ImageURL        string    `json:"image_url,omitempty"`
	PriceCents      int64     `json:"price_cents"`
	DiscountPercent float64   `json:"discount_percent"`
	Stock           int       `json:"stock"`
	Available       bool      `json:"available"`
	CreatedAt       time.Time `json:"created_at"`
}

type ProductCreateRequest struct {
	Name            string  `json:"name"`
	CategoryID      string  `json:"category_id"`
	Description     string  `json:"description"`
	ImageURL        string  `json:"image_url"`
	PriceCents      int64   `json:"price_cents"`
	DiscountPercent float64 `json:"discount_percent"`
	Stock           int     `json:"stock"`
}

// ProductUpdateRequest is the allow-listed PATCH body: only fields present
// in the request are applied, everything else is left untouched.
type ProductUpdateRequest struct {
	Name            *string  `json:"name,omitempty"`
	CategoryID      *string  `json:"category_id,omitempty"`
	Description     *string  `json:"description,omitempty"`
	ImageURL        *string  `json:"image_url,omitempty"`
	PriceCents      *int64   `json:"price_cents,omitempty"`
	DiscountPercent *float64 `json:"discount_percent,omitempty"`
	Stock           *int     `json:"stock,omitempty"`
	Available       *bool    `json:"available,omitempty"`
}

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

type CategoryCreateRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// CartLine is a client-held cart snapshot line. It is never persisted
// server-side; unit price and discount are the values the client captured
// when the line was added.
type CartLine struct {
	ProductID       string  `json:"product_id"`
	Quantity        int     `json:"quantity"`
	UnitPriceCents  int64   `json:"unit_price_cents"`
	DiscountPercent float64 `json:"discount_percent"`
}

type ReconcileRequest struct {
	Items []CartLine `json:"items"`
}

const (
	ChangeRemoved           = "REMOVED"
	ChangeUnavailable       = "UNAVAILABLE"
	ChangeOutOfStock        = "OUT_OF_STOCK"
	ChangeInsufficientStock = "INSUFFICIENT_STOCK"
	ChangePriceChanged      = "PRICE_CHANGED"
)

const (
	ActionRemove         = "remove"
	ActionUpdateQuantity = "update_quantity"
	ActionUpdatePrice    = "update_price"
)

// ChangeRecord describes one correction the client must apply to its local
// cart. Produced fresh on every reconciliation call, never stored.
type ChangeRecord struct {
	ProductID          string   `json:"product_id"`
	Kind               string   `json:"kind"`
	Message            string   `json:"message"`
	Action             string   `json:"action"`
	NewStock           *int     `json:"new_stock,omitempty"`
	NewPriceCents      *int64   `json:"new_price_cents,omitempty"`
	NewDiscountPercent *float64 `json:"new_discount_percent,omitempty"`
	NewFinalPriceCents *int64   `json:"new_final_price_cents,omitempty"`
}

type ReconcileResponse struct {
	Valid   bool           `json:"valid"`
	Changes []ChangeRecord `json:"changes"`
}

const (
	OrderStatusPending   = "PENDING"
	OrderStatusConfirmed = "CONFIRMED"
	OrderStatusShipped   = "SHIPPED"
	OrderStatusDelivered = "DELIVERED"
	OrderStatusCancelled = "CANCELLED"
)

const (
	PaymentStatusUnpaid = "UNPAID"
	PaymentStatusPaid   = "PAID"
)

type ShippingAddress struct {
	Line string  `json:"line"`
	City string  `json:"city"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

type OrderLine struct {
	ID              string  `json:"id"`
	ProductID       string  `json:"product_id"`
	Name            string  `json:"name"`
	Quantity        int     `json:"quantity"`
	UnitPriceCents  int64   `json:"unit_price_cents"`
	DiscountPercent float64 `json:"discount_percent"`
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Lines           []OrderLine     `json:"lines"`
	Status          string          `json:"status"`
	PaymentStatus   string          `json:"payment_status"`
	PaymentRef      string          `json:"payment_ref,omitempty"`
	TotalCents      int64           `json:"total_cents"`
	CreditUsedCents int64           `json:"credit_used_cents"`
	AmountDueCents  int64           `json:"amount_due_cents"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	DeliveryDate    string          `json:"delivery_date,omitempty"`
	WorkerID        string          `json:"worker_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

type CheckoutRequest struct {
	Items           []CartLine      `json:"items"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	UseCredit       bool            `json:"use_credit"`
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
}

type AssignWorkerRequest struct {
	WorkerID     string `json:"worker_id"`
	DeliveryDate string `json:"delivery_date"`
}

type PaymentRequestResponse struct {
	OrderID        string `json:"order_id"`
	AmountDueCents int64  `json:"amount_due_cents"`
	PaymentURL     string `json:"payment_url"`
}

// PaymentCallback is the gateway's verified-callback payload. The HMAC
// signature over the raw body travels in the X-Signature header.
type PaymentCallback struct {
	OrderID   string `json:"order_id"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

const (
	ReturnStatusRequested = "REQUESTED"
	ReturnStatusApproved  = "APPROVED"
	ReturnStatusRejected  = "REJECTED"
)

type ReturnItem struct {
	OrderItemID string `json:"order_item_id"`
	Quantity    int    `json:"quantity"`
}

type ReturnRequest struct {
	ID        string       `json:"id"`
	OrderID   string       `json:"order_id"`
	UserID    string       `json:"user_id"`
	Items     []ReturnItem `json:"items"`
	Reason    string       `json:"reason"`
	Status    string       `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	DecidedAt *time.Time   `json:"decided_at,omitempty"`
}

type ReturnCreateRequest struct {
	Reason string       `json:"reason"`
	Items  []ReturnItem `json:"items"`
}

type ReturnStatusUpdateRequest struct {
	Status string `json:"status"`
}

// RouteStop is one delivery destination on a worker's route for a date.
type RouteStop struct {
	OrderID     string          `json:"order_id"`
	Destination ShippingAddress `json:"destination"`
	Lines       []OrderLine     `json:"lines"`
}

type WorkerRoute struct {
	WorkerID string      `json:"worker_id"`
	Date     string      `json:"date"`
	Stops    []RouteStop `json:"stops"`
}

type RouteResponse struct {
	Date   string        `json:"date"`
	Routes []WorkerRoute `json:"routes"`
}

const (
	RoleCustomer = "customer"
	RoleWorker   = "worker"
	RoleAdmin    = "admin"
)

// User is the persistence model for accounts. Customers authenticate by
// phone OTP and carry no password hash; workers and admins use passwords.
type User struct {
	ID           string
	Phone        string
	Username     string
	Role         string
	PasswordHash string
	CreditCents  int64
	Active       bool
	CreatedAt    time.Time
}

type Actor struct {
	UserID string
	Role   string
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type OTPRequest struct {
	Phone string `json:"phone"`
}

type OTPVerifyRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type DashboardSummary struct {
	OrdersByStatus map[string]int64 `json:"orders_by_status"`
	RevenueCents   int64            `json:"revenue_cents"`
	PendingReturns int64            `json:"pending_returns"`
	ProductCount   int64            `json:"product_count"`
	GeneratedAt    string           `json:"generated_at"`
}

type AuditLog struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actor_id"`
	ActorRole  string    `json:"actor_role"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}
