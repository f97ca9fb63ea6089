package payment

import (
	"errors"

	"github.com/sellista/orderflow/internal/domain"
)

// Common errors returned by the store
var (
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrTransactionExpired   = errors.New("transaction has expired")
	ErrTransactionCompleted = errors.New("transaction is already completed")
)

// TransactionStore manages payment transactions for drafts. The in-memory
// implementation is the default; the interface exists so a persistent
// backing can be substituted without touching the workflow engine.
type TransactionStore interface {
	// Create generates a transaction with a fresh reference code and, for
	// QR-based methods, a payment QR URL.
	Create(draftID string, userID int64, amount float64, method domain.PaymentMethod) (*Transaction, error)

	// Get returns a transaction by id.
	Get(transactionID string) (*Transaction, error)

	// GetByRef returns a transaction by its reference code.
	GetByRef(refCode string) (*Transaction, error)

	// Confirm marks a transaction completed. Confirming an already
	// completed transaction is an idempotent success. An expired pending
	// transaction is marked expired and ErrTransactionExpired returned.
	Confirm(transactionID, confirmedBy string) (*Transaction, error)

	// Verify reports the current settlement state without asserting it.
	// Same expiry handling as Confirm.
	Verify(transactionID string) (*Transaction, error)

	// Cancel marks a transaction cancelled. Completed transactions are
	// immutable and return ErrTransactionCompleted.
	Cancel(transactionID string) error

	// CleanupExpired removes expired, unsettled transactions and returns
	// how many were dropped. Invoked on a timer, not on the request path.
	CleanupExpired() int

	// InfoFor returns the customer-facing sheet for a payment method.
	InfoFor(method domain.PaymentMethod) MethodInfo

	// Close shuts down the store and any background processes.
	Close() error
}
