package payment

import "github.com/sellista/orderflow/internal/domain"

// MethodInfo is the customer-facing sheet for one payment method.
type MethodInfo struct {
	Method       domain.PaymentMethod `json:"method"`
	MethodName   string               `json:"method_name"`
	BankInfo     *domain.BankInfo     `json:"bank_info,omitempty"`
	WalletPhone  string               `json:"wallet_phone,omitempty"`
	Instructions []string             `json:"instructions,omitempty"`
}

// InfoFor returns the info sheet for a method using the store's configured
// receiving accounts.
func (s *MemoryStore) InfoFor(method domain.PaymentMethod) MethodInfo {
	switch method {
	case domain.PaymentBankTransfer:
		return MethodInfo{
			Method:     method,
			MethodName: "Bank transfer",
			BankInfo: &domain.BankInfo{
				BankName:      s.bank.BankName,
				AccountNumber: s.bank.AccountNumber,
				AccountName:   s.bank.AccountName,
				Branch:        s.bank.Branch,
			},
			Instructions: []string{
				"Scan the QR code or transfer using the account details",
				"Use the exact transfer memo shown",
				"Complete the payment within 15 minutes",
				"Tap 'I have paid' once the transfer is done",
			},
		}
	case domain.PaymentMomo:
		return MethodInfo{
			Method:      method,
			MethodName:  "Mobile wallet",
			WalletPhone: s.wallet.Phone,
			Instructions: []string{
				"Open the wallet app and scan the QR code",
				"Or transfer to the phone number shown",
				"Use the exact note shown",
				"Tap 'I have paid' once the transfer is done",
			},
		}
	case domain.PaymentCOD:
		return MethodInfo{
			Method:     method,
			MethodName: "Cash on delivery",
			Instructions: []string{
				"Inspect the goods on delivery",
				"Pay the courier in cash",
				"Keep the receipt for returns or exchanges",
			},
		}
	}
	return MethodInfo{Method: method, MethodName: method.String()}
}
