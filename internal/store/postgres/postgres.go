package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"belanjaku/backend/internal/domain"
	"belanjaku/backend/internal/store"
	"belanjaku/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const productColumns = `id, name, category_id, COALESCE(description,''), COALESCE(image_url,''),
	price_cents, discount_percent, stock, available, created_at`

func scanProduct(row interface{ Scan(...any) error }) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.CategoryID, &p.Description, &p.ImageURL,
		&p.PriceCents, &p.DiscountPercent, &p.Stock, &p.Available, &p.CreatedAt)
	if err != nil {
		return p, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (s *Store) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE lower(name) LIKE $1 OR lower(COALESCE(description,'')) LIKE $1
		ORDER BY name
	`, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 32)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1
	`, id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	result := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" || product.Name == "" || product.PriceCents < 1 {
		return nil, store.ErrValidation
	}
	if product.DiscountPercent < 0 || product.DiscountPercent > 100 {
		return nil, store.ErrValidation
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, category_id, description, image_url, price_cents, discount_percent, stock, available, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,now())
	`, product.ID, product.Name, nullIfEmpty(product.CategoryID), product.Description, product.ImageURL,
		product.PriceCents, product.DiscountPercent, product.Stock, product.Available, product.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: unknown category", store.ErrValidation)
		}
		return nil, err
	}

	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" || product.Name == "" || product.PriceCents < 1 {
		return nil, store.ErrValidation
	}
	if product.DiscountPercent < 0 || product.DiscountPercent > 100 {
		return nil, store.ErrValidation
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, category_id = $3, description = $4, image_url = $5,
			price_cents = $6, discount_percent = $7, stock = $8, available = $9, updated_at = now()
		WHERE id = $1
	`, product.ID, product.Name, nullIfEmpty(product.CategoryID), product.Description, product.ImageURL,
		product.PriceCents, product.DiscountPercent, product.Stock, product.Available)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: unknown category", store.ErrValidation)
		}
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, slug, created_at
		FROM categories
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]domain.Category, 0, 16)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.CreatedAt = c.CreatedAt.UTC()
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Store) CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error) {
	if category.ID == "" || category.Name == "" || category.Slug == "" {
		return nil, store.ErrValidation
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, slug, created_at)
		VALUES ($1,$2,$3,$4)
	`, category.ID, category.Name, category.Slug, category.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: slug already in use", store.ErrConflict)
		}
		return nil, err
	}

	created := category
	return &created, nil
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
	if order.ID == "" || order.UserID == "" || len(order.Lines) == 0 {
		return nil, store.ErrValidation
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if order.CreditUsedCents > 0 {
		res, err := tx.ExecContext(ctx, `
			UPDATE users
			SET credit_cents = credit_cents - $2
			WHERE id = $1 AND credit_cents >= $2
		`, order.UserID, order.CreditUsedCents)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, fmt.Errorf("%w: credit exceeds balance", store.ErrValidation)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, user_id, status, payment_status, payment_ref, total_cents,
			credit_used_cents, amount_due_cents, address_line, address_city,
			address_lat, address_lng, delivery_date, worker_id, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`, order.ID, order.UserID, order.Status, order.PaymentStatus, nullIfEmpty(order.PaymentRef),
		order.TotalCents, order.CreditUsedCents, order.AmountDueCents,
		order.ShippingAddress.Line, order.ShippingAddress.City,
		order.ShippingAddress.Lat, order.ShippingAddress.Lng,
		nullIfEmpty(order.DeliveryDate), nullIfEmpty(order.WorkerID), order.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: user", store.ErrNotFound)
		}
		return nil, err
	}

	for i := range order.Lines {
		line := &order.Lines[i]
		if line.ID == "" {
			line.ID = xid.New("line")
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, name, qty, unit_price_cents, discount_percent)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, line.ID, order.ID, line.ProductID, line.Name, line.Quantity, line.UnitPriceCents, line.DiscountPercent)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	created := order
	return &created, nil
}

const orderColumns = `id, user_id, status, payment_status, COALESCE(payment_ref,''), total_cents,
	credit_used_cents, amount_due_cents, address_line, address_city, address_lat, address_lng,
	COALESCE(delivery_date,''), COALESCE(worker_id,''), created_at`

func scanOrder(row interface{ Scan(...any) error }) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.PaymentStatus, &o.PaymentRef, &o.TotalCents,
		&o.CreditUsedCents, &o.AmountDueCents, &o.ShippingAddress.Line, &o.ShippingAddress.City,
		&o.ShippingAddress.Lat, &o.ShippingAddress.Lng, &o.DeliveryDate, &o.WorkerID, &o.CreatedAt)
	if err != nil {
		return o, err
	}
	o.CreatedAt = o.CreatedAt.UTC()
	return o, nil
}

func (s *Store) loadOrderLines(ctx context.Context, orders []domain.Order) ([]domain.Order, error) {
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, 0, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids = append(ids, o.ID)
		index[o.ID] = i
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, name, qty, unit_price_cents, discount_percent
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id ASC
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.OrderLine
		var orderID string
		if err := rows.Scan(&line.ID, &orderID, &line.ProductID, &line.Name, &line.Quantity, &line.UnitPriceCents, &line.DiscountPercent); err != nil {
			return nil, err
		}
		i := index[orderID]
		orders[i].Lines = append(orders[i].Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Store) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
	`, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	loaded, err := s.loadOrderLines(ctx, []domain.Order{order})
	if err != nil {
		return nil, err
	}
	return &loaded[0], nil
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, 16)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return s.loadOrderLines(ctx, orders)
}

func (s *Store) ListOrders(ctx context.Context, status string, limit int) ([]domain.Order, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, limit)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return s.loadOrderLines(ctx, orders)
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status string) (*domain.Order, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, updated_at = now()
		WHERE id = $1
	`, id, status)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetOrderByID(ctx, id)
}

func (s *Store) MarkOrderPaid(ctx context.Context, id string, reference string) (*domain.Order, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = $2, payment_ref = $3, amount_due_cents = 0, updated_at = now()
		WHERE id = $1 AND payment_status <> $2
	`, id, domain.PaymentStatusPaid, reference)
	if err != nil {
		return nil, err
	}
	// zero rows affected means either missing or already paid; GetOrderByID
	// disambiguates and keeps the call idempotent for callback replays.
	if _, err := res.RowsAffected(); err != nil {
		return nil, err
	}
	return s.GetOrderByID(ctx, id)
}

func (s *Store) AssignOrderWorker(ctx context.Context, id string, workerID string, deliveryDate string) (*domain.Order, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET worker_id = $2, delivery_date = $3, updated_at = now()
		WHERE id = $1
	`, id, workerID, deliveryDate)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: worker", store.ErrNotFound)
		}
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetOrderByID(ctx, id)
}

func (s *Store) ListOrdersForDelivery(ctx context.Context, date string, workerID string) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE status = $1
			AND ($2 = '' OR delivery_date = $2)
			AND ($3 = '' OR worker_id = $3)
		ORDER BY created_at ASC
	`, domain.OrderStatusConfirmed, date, workerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, 32)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return s.loadOrderLines(ctx, orders)
}

func (s *Store) CreateReturnRequest(ctx context.Context, ret domain.ReturnRequest) (*domain.ReturnRequest, error) {
	if ret.ID == "" || ret.OrderID == "" || len(ret.Items) == 0 {
		return nil, store.ErrValidation
	}
	if ret.CreatedAt.IsZero() {
		ret.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO return_requests (id, order_id, user_id, reason, status, created_at, decided_at)
		VALUES ($1,$2,$3,$4,$5,$6,NULL)
	`, ret.ID, ret.OrderID, ret.UserID, ret.Reason, ret.Status, ret.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: order already has a return request", store.ErrConflict)
		}
		return nil, err
	}

	for _, item := range ret.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO return_request_items (return_request_id, order_item_id, qty)
			VALUES ($1,$2,$3)
		`, ret.ID, item.OrderItemID, item.Quantity)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	created := ret
	return &created, nil
}

const returnColumns = `id, order_id, user_id, reason, status, created_at, decided_at`

func (s *Store) scanReturn(ctx context.Context, row interface{ Scan(...any) error }) (*domain.ReturnRequest, error) {
	var ret domain.ReturnRequest
	var decidedAt sql.NullTime
	err := row.Scan(&ret.ID, &ret.OrderID, &ret.UserID, &ret.Reason, &ret.Status, &ret.CreatedAt, &decidedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	ret.CreatedAt = ret.CreatedAt.UTC()
	if decidedAt.Valid {
		at := decidedAt.Time.UTC()
		ret.DecidedAt = &at
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT order_item_id, qty
		FROM return_request_items
		WHERE return_request_id = $1
	`, ret.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.ReturnItem, 0, 4)
	for rows.Next() {
		var item domain.ReturnItem
		if err := rows.Scan(&item.OrderItemID, &item.Quantity); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	ret.Items = items

	return &ret, nil
}

func (s *Store) GetReturnRequestByID(ctx context.Context, id string) (*domain.ReturnRequest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+returnColumns+`
		FROM return_requests
		WHERE id = $1
	`, id)
	return s.scanReturn(ctx, row)
}

func (s *Store) GetReturnRequestByOrder(ctx context.Context, orderID string) (*domain.ReturnRequest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+returnColumns+`
		FROM return_requests
		WHERE order_id = $1
	`, orderID)
	return s.scanReturn(ctx, row)
}

func (s *Store) UpdateReturnStatus(ctx context.Context, id string, status string, decidedAt time.Time) (*domain.ReturnRequest, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE return_requests
		SET status = $2, decided_at = $3
		WHERE id = $1
	`, id, status, decidedAt)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetReturnRequestByID(ctx, id)
}

const userColumns = `id, COALESCE(phone,''), COALESCE(username,''), role, COALESCE(password_hash,''),
	credit_cents, active, created_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Phone, &u.Username, &u.Role, &u.PasswordHash, &u.CreditCents, &u.Active, &u.CreatedAt)
	if err != nil {
		return u, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByPhone(ctx context.Context, phone string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) (*domain.User, error) {
	if user.ID == "" || user.Role == "" {
		return nil, store.ErrValidation
	}
	if user.Phone == "" && user.Username == "" {
		return nil, store.ErrValidation
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, phone, username, role, password_hash, credit_cents, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, user.ID, nullIfEmpty(user.Phone), nullIfEmpty(user.Username), user.Role,
		nullIfEmpty(user.PasswordHash), user.CreditCents, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	created := user
	return &created, nil
}

func (s *Store) ListWorkers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE role = $1 AND active = true
		ORDER BY username
	`, domain.RoleWorker)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workers := make([]domain.User, 0, 8)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		workers = append(workers, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return workers, nil
}

func (s *Store) GetDashboardSummary(ctx context.Context) (domain.DashboardSummary, error) {
	summary := domain.DashboardSummary{
		OrdersByStatus: make(map[string]int64, 5),
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*)::bigint
		FROM orders
		GROUP BY status
	`)
	if err != nil {
		return summary, err
	}
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			_ = rows.Close()
			return summary, err
		}
		summary.OrdersByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return summary, err
	}
	_ = rows.Close()

	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total_cents),0)::bigint
		FROM orders
		WHERE payment_status = $1
	`, domain.PaymentStatusPaid).Scan(&summary.RevenueCents)
	if err != nil {
		return summary, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)::bigint
		FROM return_requests
		WHERE status = $1
	`, domain.ReturnStatusRequested).Scan(&summary.PendingReturns)
	if err != nil {
		return summary, err
	}

	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*)::bigint FROM products`).Scan(&summary.ProductCount)
	if err != nil {
		return summary, err
	}

	return summary, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_id, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.ActorID, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_id, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.ActorID, &entry.ActorRole, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}
