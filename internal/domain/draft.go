package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem is a single product line inside a draft.
type OrderItem struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	ImageURL    string  `json:"image_url,omitempty"`
}

func (i OrderItem) Subtotal() float64 {
	return float64(i.Quantity) * i.UnitPrice
}

// ShippingInfo is collected incrementally during the conversation.
type ShippingInfo struct {
	RecipientName string `json:"recipient_name,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Address       string `json:"address,omitempty"`
	City          string `json:"city,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// OrderDraft is the in-progress cart for one conversation. It is owned by
// the workflow engine and mutated only under the session lock.
type OrderDraft struct {
	DraftID        string        `json:"draft_id"`
	UserID         int64         `json:"user_id"`
	ConversationID int64         `json:"conversation_id"`
	Items          []OrderItem   `json:"items"`
	Shipping       ShippingInfo  `json:"shipping"`
	PaymentMethod  PaymentMethod `json:"payment_method"`

	Subtotal       float64 `json:"subtotal"`
	ShippingFee    float64 `json:"shipping_fee"`
	DiscountAmount float64 `json:"discount_amount"`
	TaxAmount      float64 `json:"tax_amount"`

	PaymentQRURL       string     `json:"payment_qr_url,omitempty"`
	PaymentRefCode     string     `json:"payment_ref_code,omitempty"`
	PaymentConfirmedAt *time.Time `json:"payment_confirmed_at,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func NewOrderDraft(userID, conversationID int64) *OrderDraft {
	return &OrderDraft{
		DraftID:        uuid.New().String(),
		UserID:         userID,
		ConversationID: conversationID,
		PaymentMethod:  PaymentBankTransfer,
		CreatedAt:      time.Now(),
	}
}

// TotalAmount is subtotal + shipping + tax - discount, never below zero.
func (d *OrderDraft) TotalAmount() float64 {
	total := d.Subtotal + d.ShippingFee + d.TaxAmount - d.DiscountAmount
	if total < 0 {
		return 0
	}
	return total
}

// calculateSubtotal resums the item subtotals. Always a full resum after a
// mutation, never an incremental patch.
func (d *OrderDraft) calculateSubtotal() {
	var sum float64
	for _, item := range d.Items {
		sum += item.Subtotal()
	}
	d.Subtotal = sum
}

// AddItem merges quantity into an existing line for the same product, or
// appends a new line.
func (d *OrderDraft) AddItem(item OrderItem) {
	for i := range d.Items {
		if d.Items[i].ProductID == item.ProductID {
			d.Items[i].Quantity += item.Quantity
			d.calculateSubtotal()
			return
		}
	}
	d.Items = append(d.Items, item)
	d.calculateSubtotal()
}

func (d *OrderDraft) RemoveItem(productID int64) {
	kept := d.Items[:0]
	for _, item := range d.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	d.Items = kept
	d.calculateSubtotal()
}

func (d *OrderDraft) UpdateQuantity(productID int64, quantity int) {
	for i := range d.Items {
		if d.Items[i].ProductID == productID {
			d.Items[i].Quantity = quantity
			break
		}
	}
	d.calculateSubtotal()
}

// ApplyDiscount sets the discount, capped so the total cannot go negative.
func (d *OrderDraft) ApplyDiscount(amount float64) {
	if amount < 0 {
		amount = 0
	}
	if max := d.Subtotal + d.ShippingFee + d.TaxAmount; amount > max {
		amount = max
	}
	d.DiscountAmount = amount
}

// IsValid reports whether the draft can be committed, and which required
// fields are still missing, in the order the engine asks for them.
func (d *OrderDraft) IsValid() (bool, []string) {
	var missing []string

	if len(d.Items) == 0 {
		missing = append(missing, "products")
	}
	if d.Shipping.RecipientName == "" {
		missing = append(missing, "recipient_name")
	}
	if d.Shipping.Phone == "" {
		missing = append(missing, "phone")
	}
	if d.Shipping.Address == "" {
		missing = append(missing, "address")
	}

	return len(missing) == 0, missing
}
