package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/sellista/orderflow/internal/domain"
)

// Repository is the Postgres-backed store for products, profiles, committed
// orders, and the order-event outbox.
type Repository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "orderflow_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT id, name, price, stock_quantity, COALESCE(image_url, '')
	          FROM products WHERE id = $1`

	var p domain.Product
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Price,
		&p.StockQuantity,
		&p.ImageURL,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product by id: %w", err)
	}
	return &p, nil
}

func (r *Repository) GetProfile(ctx context.Context, userID int64) (*domain.CustomerProfile, error) {
	query := `SELECT COALESCE(full_name, ''), COALESCE(phone, ''), COALESCE(address, ''), COALESCE(city, '')
	          FROM customers WHERE id = $1`

	var p domain.CustomerProfile
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.FullName,
		&p.Phone,
		&p.Address,
		&p.City,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query customer profile: %w", err)
	}
	return &p, nil
}

// CreateOrder commits a draft in a single transaction: lock the product
// rows, re-check stock, write the order and its lines, decrement stock, and
// queue the order-created outbox event. Any failure rolls everything back.
func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, item := range order.Items {
		var stock int
		err := tx.QueryRowContext(ctx,
			`SELECT stock_quantity FROM products WHERE id = $1 FOR UPDATE`,
			item.ProductID).Scan(&stock)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		if err != nil {
			return fmt.Errorf("lock product %d: %w", item.ProductID, err)
		}
		if stock < item.Quantity {
			return ErrInsufficientStock
		}
	}

	var orderID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (order_number, customer_id, status, total_amount, tax_amount,
		                     shipping_fee, discount_amount, recipient_name, shipping_address,
		                     shipping_city, shipping_phone, payment_method, payment_status,
		                     customer_notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW())
		 RETURNING id`,
		order.OrderNumber,
		order.UserID,
		order.Status,
		order.TotalAmount,
		order.TaxAmount,
		order.ShippingFee,
		order.DiscountAmount,
		order.RecipientName,
		order.ShippingAddress,
		order.ShippingCity,
		order.ShippingPhone,
		order.PaymentMethod,
		order.PaymentStatus,
		order.CustomerNotes).Scan(&orderID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateOrderNumber
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.Items {
		unitPrice := decimal.NewFromFloat(item.UnitPrice)
		subtotal := unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))

		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, subtotal)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			orderID, item.ProductID, item.ProductName, item.Quantity, unitPrice, subtotal)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	for _, item := range order.Items {
		result, err := tx.ExecContext(ctx,
			`UPDATE products
			 SET stock_quantity = stock_quantity - $1
			 WHERE id = $2
			   AND stock_quantity >= $1`,
			item.Quantity, item.ProductID)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return ErrInsufficientStock
		}
	}

	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order payload: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO order_outbox (aggregate_id, event_type, payload, created_at)
		 VALUES ($1, $2, $3, NOW())`,
		order.OrderNumber, "order.created", payload)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	return tx.Commit()
}

func (r *Repository) GetOrderByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	query := `SELECT id, order_number, customer_id, status, total_amount, tax_amount,
	                 shipping_fee, discount_amount, recipient_name, shipping_address,
	                 COALESCE(shipping_city, ''), shipping_phone, payment_method, payment_status,
	                 COALESCE(customer_notes, ''), created_at
	          FROM orders WHERE order_number = $1`

	var order domain.Order
	var orderID int64
	err := r.db.QueryRowContext(ctx, query, orderNumber).Scan(
		&orderID,
		&order.OrderNumber,
		&order.UserID,
		&order.Status,
		&order.TotalAmount,
		&order.TaxAmount,
		&order.ShippingFee,
		&order.DiscountAmount,
		&order.RecipientName,
		&order.ShippingAddress,
		&order.ShippingCity,
		&order.ShippingPhone,
		&order.PaymentMethod,
		&order.PaymentStatus,
		&order.CustomerNotes,
		&order.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by number: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT product_id, product_name, quantity, unit_price, subtotal
		 FROM order_items WHERE order_id = $1 ORDER BY id`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.OrderLine
		var unitPrice, subtotal decimal.Decimal
		if err := rows.Scan(&line.ProductID, &line.ProductName, &line.Quantity, &unitPrice, &subtotal); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		line.UnitPrice, _ = unitPrice.Float64()
		line.Subtotal, _ = subtotal.Float64()
		order.Items = append(order.Items, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return &order, nil
}

func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, aggregate_id, event_type, payload, created_at
		 FROM order_outbox
		 WHERE processed_at IS NULL
		 ORDER BY id
		 LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

func (r *Repository) MarkEventAsProcessed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE order_outbox SET processed_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark outbox event processed: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

var _ interface {
	ProductReader
	ProfileReader
	OrderWriter
	OutboxReader
} = (*Repository)(nil)

// SeedProduct upserts a product row (used for initialization and tests).
func (r *Repository) SeedProduct(ctx context.Context, p *domain.Product) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (id, name, price, stock_quantity, image_url)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		 ON CONFLICT (id) DO UPDATE
		 SET name = $2, price = $3, stock_quantity = $4, image_url = NULLIF($5, '')`,
		p.ID, p.Name, p.Price, p.StockQuantity, p.ImageURL)
	if err != nil {
		return fmt.Errorf("seed product: %w", err)
	}
	return nil
}

// SeedCustomer upserts a customer row (used for initialization and tests).
func (r *Repository) SeedCustomer(ctx context.Context, id int64, p *domain.CustomerProfile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO customers (id, full_name, phone, address, city)
		 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''))
		 ON CONFLICT (id) DO UPDATE
		 SET full_name = NULLIF($2, ''), phone = NULLIF($3, ''), address = NULLIF($4, ''), city = NULLIF($5, '')`,
		id, p.FullName, p.Phone, p.Address, p.City)
	if err != nil {
		return fmt.Errorf("seed customer: %w", err)
	}
	return nil
}
