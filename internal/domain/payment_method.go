package domain

// PaymentMethod identifies how the customer settles an order.
type PaymentMethod string

const (
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMomo         PaymentMethod = "MOMO"
	PaymentCOD          PaymentMethod = "COD"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentBankTransfer, PaymentMomo, PaymentCOD:
		return true
	}
	return false
}

// RequiresQR reports whether selecting this method produces a payment QR.
// COD settles on delivery and skips the payment step entirely.
func (m PaymentMethod) RequiresQR() bool {
	return m == PaymentBankTransfer || m == PaymentMomo
}

func (m PaymentMethod) String() string {
	return string(m)
}
