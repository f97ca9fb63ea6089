package payment

import (
	"time"

	"github.com/sellista/orderflow/internal/domain"
)

// Status is the lifecycle state of a payment transaction.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusExpired    Status = "expired"
	StatusCancelled  Status = "cancelled"
)

// settled reports whether the transaction is frozen against mutation.
func (s Status) settled() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ExpiryWindow is how long a customer has to complete a transfer.
const ExpiryWindow = 15 * time.Minute

// Transaction tracks one payment attempt for a draft. The reference code is
// the transfer memo used to match an incoming payment to the transaction.
type Transaction struct {
	TransactionID string               `json:"transaction_id"`
	DraftID       string               `json:"draft_id"`
	UserID        int64                `json:"user_id"`
	Amount        float64              `json:"amount"`
	Method        domain.PaymentMethod `json:"method"`
	Status        Status               `json:"status"`
	RefCode       string               `json:"ref_code"`
	QRURL         string               `json:"qr_url,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	ExpiresAt     time.Time            `json:"expires_at"`
	ConfirmedAt   *time.Time           `json:"confirmed_at,omitempty"`
	Note          string               `json:"note,omitempty"`
}

func (t *Transaction) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}
