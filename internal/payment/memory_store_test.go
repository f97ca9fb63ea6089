package payment

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellista/orderflow/internal/domain"
)

func setupStore(t *testing.T) *MemoryStore {
	store := NewMemoryStore(DefaultBankConfig(), DefaultWalletConfig())
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreate_BankTransfer(t *testing.T) {
	store := setupStore(t)

	txn, err := store.Create("draft-1", 7, 1500000, domain.PaymentBankTransfer)
	require.NoError(t, err)

	assert.NotEmpty(t, txn.TransactionID)
	assert.Equal(t, "draft-1", txn.DraftID)
	assert.Equal(t, int64(7), txn.UserID)
	assert.Equal(t, StatusPending, txn.Status)
	assert.Contains(t, txn.QRURL, "img.vietqr.io")
	assert.Contains(t, txn.QRURL, "amount=1500000")
	assert.True(t, txn.ExpiresAt.After(time.Now()))

	matched, _ := regexp.MatchString(`^CRM\d{14}[0-9A-F]{6}$`, txn.RefCode)
	assert.True(t, matched, "unexpected ref code %s", txn.RefCode)
}

func TestCreate_Wallet(t *testing.T) {
	store := setupStore(t)

	txn, err := store.Create("draft-1", 7, 50000, domain.PaymentMomo)
	require.NoError(t, err)

	assert.Contains(t, txn.QRURL, "api.qrserver.com")
}

func TestCreate_CODHasNoQR(t *testing.T) {
	store := setupStore(t)

	txn, err := store.Create("draft-1", 7, 50000, domain.PaymentCOD)
	require.NoError(t, err)

	assert.Empty(t, txn.QRURL)
	assert.NotEmpty(t, txn.RefCode)
}

func TestGet_ReturnsCopy(t *testing.T) {
	store := setupStore(t)
	created, err := store.Create("draft-1", 7, 1000, domain.PaymentBankTransfer)
	require.NoError(t, err)

	got, err := store.Get(created.TransactionID)
	require.NoError(t, err)
	got.Status = StatusFailed

	again, err := store.Get(created.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, again.Status)
}

func TestGet_NotFound(t *testing.T) {
	store := setupStore(t)

	_, err := store.Get("missing")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestGetByRef(t *testing.T) {
	store := setupStore(t)
	created, err := store.Create("draft-1", 7, 1000, domain.PaymentBankTransfer)
	require.NoError(t, err)

	got, err := store.GetByRef(created.RefCode)
	require.NoError(t, err)
	assert.Equal(t, created.TransactionID, got.TransactionID)

	_, err = store.GetByRef("CRM00000000000000XXXXXX")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestConfirm(t *testing.T) {
	store := setupStore(t)
	created, err := store.Create("draft-1", 7, 1000, domain.PaymentBankTransfer)
	require.NoError(t, err)

	confirmed, err := store.Confirm(created.TransactionID, "customer")
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedAt)
	assert.Equal(t, "confirmed by: customer", confirmed.Note)
}

func TestConfirm_Idempotent(t *testing.T) {
	store := setupStore(t)
	created, err := store.Create("draft-1", 7, 1000, domain.PaymentBankTransfer)
	require.NoError(t, err)

	first, err := store.Confirm(created.TransactionID, "customer")
	require.NoError(t, err)

	second, err := store.Confirm(created.TransactionID, "someone-else")
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, second.Status)
	assert.Equal(t, first.ConfirmedAt, second.ConfirmedAt)
	assert.Equal(t, first.Note, second.Note)
}

func TestConfirm_Expired(t *testing.T) {
	store := setupStore(t)
	created, err := store.Create("draft-1", 7, 1000, domain.PaymentBankTransfer)
	require.NoError(t, err)

	// Force the transaction past its window.
	store.mu.Lock()
	store.transactions[created.TransactionID].ExpiresAt = time.Now().Add(-time.Minute)
	store.mu.Unlock()

	_, err = store.Confirm(created.TransactionID, "customer")
	assert.ErrorIs(t, err, ErrTransactionExpired)

	got, err := store.Get(created.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, got.Status)
}

func TestCancel(t *testing.T) {
	store := setupStore(t)
	created, err := store.Create("draft-1", 7, 1000, domain.PaymentBankTransfer)
	require.NoError(t, err)

	require.NoError(t, store.Cancel(created.TransactionID))

	got, err := store.Get(created.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
}

func TestCancel_CompletedRejected(t *testing.T) {
	store := setupStore(t)
	created, err := store.Create("draft-1", 7, 1000, domain.PaymentBankTransfer)
	require.NoError(t, err)

	_, err = store.Confirm(created.TransactionID, "customer")
	require.NoError(t, err)

	err = store.Cancel(created.TransactionID)
	assert.ErrorIs(t, err, ErrTransactionCompleted)
}

func TestCleanupExpired(t *testing.T) {
	store := setupStore(t)

	expired, err := store.Create("draft-1", 7, 1000, domain.PaymentBankTransfer)
	require.NoError(t, err)
	kept, err := store.Create("draft-2", 7, 2000, domain.PaymentBankTransfer)
	require.NoError(t, err)
	settled, err := store.Create("draft-3", 7, 3000, domain.PaymentBankTransfer)
	require.NoError(t, err)
	_, err = store.Confirm(settled.TransactionID, "customer")
	require.NoError(t, err)

	store.mu.Lock()
	store.transactions[expired.TransactionID].ExpiresAt = time.Now().Add(-time.Minute)
	store.transactions[settled.TransactionID].ExpiresAt = time.Now().Add(-time.Minute)
	store.mu.Unlock()

	removed := store.CleanupExpired()
	assert.Equal(t, 1, removed)

	_, err = store.Get(expired.TransactionID)
	assert.ErrorIs(t, err, ErrTransactionNotFound)
	_, err = store.GetByRef(expired.RefCode)
	assert.ErrorIs(t, err, ErrTransactionNotFound)

	_, err = store.Get(kept.TransactionID)
	assert.NoError(t, err)
	// settled transactions survive cleanup even past expiry
	_, err = store.Get(settled.TransactionID)
	assert.NoError(t, err)
}

func TestInfoFor(t *testing.T) {
	store := setupStore(t)

	bank := store.InfoFor(domain.PaymentBankTransfer)
	require.NotNil(t, bank.BankInfo)
	assert.Equal(t, "Vietcombank", bank.BankInfo.BankName)
	assert.NotEmpty(t, bank.Instructions)

	wallet := store.InfoFor(domain.PaymentMomo)
	assert.Nil(t, wallet.BankInfo)
	assert.Equal(t, "0901234567", wallet.WalletPhone)

	cod := store.InfoFor(domain.PaymentCOD)
	assert.Nil(t, cod.BankInfo)
	assert.NotEmpty(t, cod.Instructions)
}
