package domain

import "time"

// Product is the catalog view the workflow needs: price, stock, display.
type Product struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	StockQuantity int     `json:"stock_quantity"`
	ImageURL      string  `json:"image_url,omitempty"`
}

// CustomerProfile holds prior shipping defaults for pre-filling a draft.
type CustomerProfile struct {
	FullName string `json:"full_name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	City     string `json:"city,omitempty"`
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

// OrderLine is a persisted order line item.
type OrderLine struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Subtotal    float64 `json:"subtotal"`
}

// Order is the committed form of a draft, written all-or-nothing together
// with its lines and the stock decrements.
type Order struct {
	OrderNumber     string        `json:"order_number"`
	UserID          int64         `json:"user_id"`
	Status          OrderStatus   `json:"status"`
	TotalAmount     float64       `json:"total_amount"`
	TaxAmount       float64       `json:"tax_amount"`
	ShippingFee     float64       `json:"shipping_fee"`
	DiscountAmount  float64       `json:"discount_amount"`
	RecipientName   string        `json:"recipient_name"`
	ShippingAddress string        `json:"shipping_address"`
	ShippingCity    string        `json:"shipping_city"`
	ShippingPhone   string        `json:"shipping_phone"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	CustomerNotes   string        `json:"customer_notes,omitempty"`
	Items           []OrderLine   `json:"items"`
	CreatedAt       time.Time     `json:"created_at"`
}
