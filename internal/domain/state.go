package domain

// OrderState is the per-conversation position in the order workflow.
type OrderState string

const (
	StateIdle               OrderState = "idle"
	StateCollectingProducts OrderState = "collecting_products"
	StateCollectingInfo     OrderState = "collecting_info"
	StateDraftReview        OrderState = "draft_review"
	StateAwaitingConfirm    OrderState = "awaiting_confirm"
	StatePaymentPending     OrderState = "payment_pending"
	StatePaymentConfirmed   OrderState = "payment_confirmed"
	StateOrderCreated       OrderState = "order_created"
	StateCancelled          OrderState = "cancelled"
)

func (s OrderState) IsTerminal() bool {
	return s == StateOrderCreated || s == StateCancelled
}

// String representation (for logging)
func (s OrderState) String() string {
	return string(s)
}

// transitions lists the legal forward and backward edges of the workflow.
// Cancellation is handled separately: any non-terminal state may cancel.
var transitions = map[OrderState][]OrderState{
	StateIdle:               {StateCollectingProducts},
	StateCollectingProducts: {StateCollectingInfo},
	StateCollectingInfo:     {StateDraftReview, StateCollectingProducts},
	StateDraftReview:        {StateAwaitingConfirm, StateCollectingInfo, StateCollectingProducts},
	StateAwaitingConfirm:    {StatePaymentPending},
	// COD commits without a payment-confirmed step; a failed commit or a
	// change of payment method walks back.
	StatePaymentPending:   {StatePaymentConfirmed, StateOrderCreated, StateAwaitingConfirm, StateDraftReview},
	StatePaymentConfirmed: {StateOrderCreated, StateDraftReview},
}

// CanTransitionTo reports whether moving from one state to another is legal.
func CanTransitionTo(from, to OrderState) bool {
	if to == StateCancelled {
		return !from.IsTerminal()
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
