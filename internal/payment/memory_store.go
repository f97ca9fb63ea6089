package payment

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sellista/orderflow/internal/domain"
	"github.com/sellista/orderflow/internal/qr"
)

const (
	// RefCodePrefix leads every generated reference code.
	RefCodePrefix = "CRM"

	// CleanupInterval is how often the background sweep runs
	CleanupInterval = time.Minute
)

// BankConfig is the receiving bank account for transfers.
type BankConfig struct {
	BankID        string
	BankName      string
	AccountNumber string
	AccountName   string
	Branch        string
}

// WalletConfig is the receiving wallet for wallet transfers.
type WalletConfig struct {
	Phone string
	Name  string
}

func DefaultBankConfig() BankConfig {
	return BankConfig{
		BankID:        "VCB",
		BankName:      "Vietcombank",
		AccountNumber: "1234567890123",
		AccountName:   "CONG TY TNHH CRM AI",
		Branch:        "Chi nhánh TP.HCM",
	}
}

func DefaultWalletConfig() WalletConfig {
	return WalletConfig{
		Phone: "0901234567",
		Name:  "CRM AI Shop",
	}
}

// MemoryStore implements TransactionStore with in-memory storage
type MemoryStore struct {
	mu           sync.RWMutex
	transactions map[string]*Transaction // transactionID -> transaction
	byRef        map[string]string       // refCode -> transactionID

	bank   BankConfig
	wallet WalletConfig

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

// NewMemoryStore creates a new in-memory transaction store and starts the
// background expiry sweep.
func NewMemoryStore(bank BankConfig, wallet WalletConfig) *MemoryStore {
	s := &MemoryStore{
		transactions: make(map[string]*Transaction),
		byRef:        make(map[string]string),
		bank:         bank,
		wallet:       wallet,
		stopCleanup:  make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

func (s *MemoryStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.CleanupExpired()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *MemoryStore) Create(draftID string, userID int64, amount float64, method domain.PaymentMethod) (*Transaction, error) {
	refCode := generateRefCode()

	var qrURL string
	switch method {
	case domain.PaymentBankTransfer:
		u, err := qr.BankTransferQR(s.bank.BankID, s.bank.AccountNumber, s.bank.AccountName, amount, refCode, "")
		if err != nil {
			return nil, fmt.Errorf("build bank transfer QR: %w", err)
		}
		qrURL = u
	case domain.PaymentMomo:
		qrURL = qr.WalletQR(s.wallet.Phone, amount, refCode)
	}

	now := time.Now()
	txn := &Transaction{
		TransactionID: uuid.New().String(),
		DraftID:       draftID,
		UserID:        userID,
		Amount:        amount,
		Method:        method,
		Status:        StatusPending,
		RefCode:       refCode,
		QRURL:         qrURL,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ExpiryWindow),
	}

	s.mu.Lock()
	s.transactions[txn.TransactionID] = txn
	s.byRef[refCode] = txn.TransactionID
	s.mu.Unlock()

	return txn, nil
}

func (s *MemoryStore) Get(transactionID string) (*Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txn, exists := s.transactions[transactionID]
	if !exists {
		return nil, ErrTransactionNotFound
	}
	copied := *txn
	return &copied, nil
}

func (s *MemoryStore) GetByRef(refCode string) (*Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byRef[refCode]
	if !exists {
		return nil, ErrTransactionNotFound
	}
	copied := *s.transactions[id]
	return &copied, nil
}

func (s *MemoryStore) Confirm(transactionID, confirmedBy string) (*Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn, exists := s.transactions[transactionID]
	if !exists {
		return nil, ErrTransactionNotFound
	}

	// Idempotent: a completed transaction stays untouched.
	if txn.Status == StatusCompleted {
		copied := *txn
		return &copied, nil
	}

	if txn.IsExpired() {
		txn.Status = StatusExpired
		return nil, ErrTransactionExpired
	}

	now := time.Now()
	txn.Status = StatusCompleted
	txn.ConfirmedAt = &now
	if confirmedBy == "" {
		confirmedBy = "system"
	}
	txn.Note = "confirmed by: " + confirmedBy

	copied := *txn
	return &copied, nil
}

func (s *MemoryStore) Verify(transactionID string) (*Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn, exists := s.transactions[transactionID]
	if !exists {
		return nil, ErrTransactionNotFound
	}

	if txn.Status != StatusCompleted && txn.IsExpired() {
		txn.Status = StatusExpired
		return nil, ErrTransactionExpired
	}

	copied := *txn
	return &copied, nil
}

func (s *MemoryStore) Cancel(transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn, exists := s.transactions[transactionID]
	if !exists {
		return ErrTransactionNotFound
	}

	if txn.Status == StatusCompleted {
		return ErrTransactionCompleted
	}

	txn.Status = StatusCancelled
	return nil
}

// CleanupExpired marks and removes every unsettled transaction past expiry.
func (s *MemoryStore) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, txn := range s.transactions {
		if txn.IsExpired() && !txn.Status.settled() {
			txn.Status = StatusExpired
			delete(s.transactions, id)
			delete(s.byRef, txn.RefCode)
			removed++
		}
	}
	return removed
}

// Close stops the background sweep and waits for it to finish
func (s *MemoryStore) Close() error {
	close(s.stopCleanup)
	s.wg.Wait()
	return nil
}

var _ TransactionStore = (*MemoryStore)(nil)

// generateRefCode builds PREFIX + yyyyMMddHHmmss + 6 uppercase chars.
func generateRefCode() string {
	timestamp := time.Now().Format("20060102150405")
	unique := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:6]
	return RefCodePrefix + timestamp + unique
}
