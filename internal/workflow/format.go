package workflow

import (
	"fmt"
	"strings"

	"github.com/sellista/orderflow/internal/domain"
)

// formatAmount renders a VND amount with dot thousands separators, the way
// prices are written locally: 1500000 -> "1.500.000".
func formatAmount(amount float64) string {
	n := int64(amount)
	if n == 0 {
		return "0"
	}

	negative := n < 0
	if negative {
		n = -n
	}

	var groups []string
	for n > 0 {
		groups = append([]string{fmt.Sprintf("%03d", n%1000)}, groups...)
		n /= 1000
	}
	groups[0] = strings.TrimLeft(groups[0], "0")

	out := strings.Join(groups, ".")
	if negative {
		return "-" + out
	}
	return out
}

func formatItems(items []domain.OrderItem) string {
	if len(items) == 0 {
		return "(empty)"
	}
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s x%d - %s VND", i+1, item.ProductName, item.Quantity, formatAmount(item.Subtotal()))
		if i < len(items)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func formatOrderSummary(d *domain.OrderDraft) string {
	var b strings.Builder

	b.WriteString("**Products:**\n")
	b.WriteString(formatItems(d.Items))
	b.WriteString("\n\n**Delivery to:**\n")
	fmt.Fprintf(&b, "%s - %s\n%s", d.Shipping.RecipientName, d.Shipping.Phone, d.Shipping.Address)
	if d.Shipping.City != "" {
		fmt.Fprintf(&b, ", %s", d.Shipping.City)
	}
	if d.Shipping.Notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s", d.Shipping.Notes)
	}

	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Subtotal: %s VND\n", formatAmount(d.Subtotal))
	fmt.Fprintf(&b, "Shipping: %s VND\n", formatAmount(d.ShippingFee))
	if d.DiscountAmount > 0 {
		fmt.Fprintf(&b, "Discount: -%s VND\n", formatAmount(d.DiscountAmount))
	}
	fmt.Fprintf(&b, "**Total: %s VND**\n\nIs everything correct?", formatAmount(d.TotalAmount()))

	return b.String()
}

func formatOrder(o *domain.Order) string {
	var b strings.Builder

	fmt.Fprintf(&b, "**Order %s**\n", o.OrderNumber)
	fmt.Fprintf(&b, "Status: %s | Payment: %s (%s)\n\n", o.Status, o.PaymentStatus, o.PaymentMethod)

	for i, line := range o.Items {
		fmt.Fprintf(&b, "%d. %s x%d - %s VND\n", i+1, line.ProductName, line.Quantity, formatAmount(line.Subtotal))
	}
	fmt.Fprintf(&b, "\nDelivery to: %s - %s\n%s", o.RecipientName, o.ShippingPhone, o.ShippingAddress)
	if o.ShippingCity != "" {
		fmt.Fprintf(&b, ", %s", o.ShippingCity)
	}
	fmt.Fprintf(&b, "\n\n**Total: %s VND**", formatAmount(o.TotalAmount))

	return b.String()
}
