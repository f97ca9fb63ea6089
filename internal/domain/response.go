package domain

// ActionType tells the chat surface how to render an action.
type ActionType string

const (
	ActionButton ActionType = "button"
	ActionLink   ActionType = "link"
	ActionQR     ActionType = "qr"
)

// ActionStyle is a rendering hint for the chat surface.
type ActionStyle string

const (
	StylePrimary   ActionStyle = "primary"
	StyleSecondary ActionStyle = "secondary"
	StyleDanger    ActionStyle = "danger"
)

// Action is a clickable affordance surfaced alongside a workflow response.
type Action struct {
	ActionID string                 `json:"action_id"`
	Label    string                 `json:"label"`
	Type     ActionType             `json:"type"`
	Style    ActionStyle            `json:"style"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// BankInfo identifies the receiving account for bank transfers.
type BankInfo struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	Branch        string `json:"branch,omitempty"`
}

// PaymentInfo carries the payment instructions for a pending transaction.
type PaymentInfo struct {
	Method           PaymentMethod `json:"method"`
	RefCode          string        `json:"ref_code"`
	Amount           float64       `json:"amount"`
	QRURL            string        `json:"qr_url,omitempty"`
	BankInfo         *BankInfo     `json:"bank_info,omitempty"`
	ExpiresInMinutes int           `json:"expires_in_minutes"`
}

// QuantitySuggestion is attached when a requested quantity exceeds stock,
// so the surface can offer the available amount as a one-click correction.
type QuantitySuggestion struct {
	ProductID int64 `json:"product_id"`
	Available int   `json:"available"`
}

// WorkflowResponse is what every engine operation returns to the caller.
// Actions are attached afterwards by the action protocol adapter.
type WorkflowResponse struct {
	State       OrderState          `json:"state"`
	Message     string              `json:"message"`
	Draft       *OrderDraft         `json:"draft,omitempty"`
	Actions     []Action            `json:"actions"`
	PaymentInfo *PaymentInfo        `json:"payment_info,omitempty"`
	OrderNumber string              `json:"order_number,omitempty"`
	Suggestion  *QuantitySuggestion `json:"suggestion,omitempty"`
}
