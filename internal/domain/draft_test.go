package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderDraft_Defaults(t *testing.T) {
	draft := NewOrderDraft(7, 42)

	assert.NotEmpty(t, draft.DraftID)
	assert.Equal(t, int64(7), draft.UserID)
	assert.Equal(t, int64(42), draft.ConversationID)
	assert.Equal(t, PaymentBankTransfer, draft.PaymentMethod)
	assert.Empty(t, draft.Items)
	assert.Zero(t, draft.Subtotal)
}

func TestAddItem_MergesSameProduct(t *testing.T) {
	draft := NewOrderDraft(1, 1)

	draft.AddItem(OrderItem{ProductID: 10, ProductName: "Widget", Quantity: 2, UnitPrice: 500000})
	draft.AddItem(OrderItem{ProductID: 10, ProductName: "Widget", Quantity: 3, UnitPrice: 500000})

	require.Len(t, draft.Items, 1)
	assert.Equal(t, 5, draft.Items[0].Quantity)
	assert.Equal(t, float64(2500000), draft.Subtotal)
}

func TestAddItem_DistinctProductsAppend(t *testing.T) {
	draft := NewOrderDraft(1, 1)

	draft.AddItem(OrderItem{ProductID: 10, Quantity: 1, UnitPrice: 100000})
	draft.AddItem(OrderItem{ProductID: 11, Quantity: 2, UnitPrice: 50000})

	require.Len(t, draft.Items, 2)
	assert.Equal(t, float64(200000), draft.Subtotal)
}

func TestRemoveItem_ResumsSubtotal(t *testing.T) {
	draft := NewOrderDraft(1, 1)
	draft.AddItem(OrderItem{ProductID: 10, Quantity: 1, UnitPrice: 100000})
	draft.AddItem(OrderItem{ProductID: 11, Quantity: 2, UnitPrice: 50000})

	draft.RemoveItem(10)

	require.Len(t, draft.Items, 1)
	assert.Equal(t, int64(11), draft.Items[0].ProductID)
	assert.Equal(t, float64(100000), draft.Subtotal)
}

func TestRemoveItem_UnknownProductIsNoop(t *testing.T) {
	draft := NewOrderDraft(1, 1)
	draft.AddItem(OrderItem{ProductID: 10, Quantity: 1, UnitPrice: 100000})

	draft.RemoveItem(999)

	assert.Len(t, draft.Items, 1)
	assert.Equal(t, float64(100000), draft.Subtotal)
}

func TestUpdateQuantity(t *testing.T) {
	draft := NewOrderDraft(1, 1)
	draft.AddItem(OrderItem{ProductID: 10, Quantity: 2, UnitPrice: 100000})

	draft.UpdateQuantity(10, 7)

	assert.Equal(t, 7, draft.Items[0].Quantity)
	assert.Equal(t, float64(700000), draft.Subtotal)
}

func TestTotalAmount_IncludesFeesAndDiscount(t *testing.T) {
	draft := NewOrderDraft(1, 1)
	draft.AddItem(OrderItem{ProductID: 10, Quantity: 2, UnitPrice: 500000})
	draft.ShippingFee = 30000
	draft.TaxAmount = 10000
	draft.ApplyDiscount(40000)

	assert.Equal(t, float64(1000000+30000+10000-40000), draft.TotalAmount())
}

func TestTotalAmount_NeverNegative(t *testing.T) {
	draft := NewOrderDraft(1, 1)
	draft.AddItem(OrderItem{ProductID: 10, Quantity: 1, UnitPrice: 50000})
	draft.DiscountAmount = 1000000 // set directly, bypassing the cap

	assert.Equal(t, float64(0), draft.TotalAmount())
}

func TestApplyDiscount_CappedAtTotal(t *testing.T) {
	draft := NewOrderDraft(1, 1)
	draft.AddItem(OrderItem{ProductID: 10, Quantity: 1, UnitPrice: 100000})
	draft.ShippingFee = 30000

	draft.ApplyDiscount(500000)

	assert.Equal(t, float64(130000), draft.DiscountAmount)
	assert.Equal(t, float64(0), draft.TotalAmount())
}

func TestApplyDiscount_NegativeBecomesZero(t *testing.T) {
	draft := NewOrderDraft(1, 1)
	draft.ApplyDiscount(-5)

	assert.Equal(t, float64(0), draft.DiscountAmount)
}

func TestIsValid_ReportsMissingInOrder(t *testing.T) {
	draft := NewOrderDraft(1, 1)

	valid, missing := draft.IsValid()
	assert.False(t, valid)
	assert.Equal(t, []string{"products", "recipient_name", "phone", "address"}, missing)

	draft.AddItem(OrderItem{ProductID: 10, Quantity: 1, UnitPrice: 100000})
	draft.Shipping.RecipientName = "Nguyen Van A"

	valid, missing = draft.IsValid()
	assert.False(t, valid)
	assert.Equal(t, []string{"phone", "address"}, missing)

	draft.Shipping.Phone = "0901234567"
	draft.Shipping.Address = "123 Le Loi"

	valid, missing = draft.IsValid()
	assert.True(t, valid)
	assert.Empty(t, missing)
}
