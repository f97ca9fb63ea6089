// Package actions maps the workflow engine onto the chat action protocol:
// it decorates engine responses with clickable actions and dispatches
// incoming action ids back to engine operations.
package actions

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sellista/orderflow/internal/domain"
	"github.com/sellista/orderflow/internal/workflow"
)

// Adapter sits between the chat surface and the workflow engine.
type Adapter struct {
	engine *workflow.Engine
}

func NewAdapter(engine *workflow.Engine) *Adapter {
	return &Adapter{engine: engine}
}

// Decorate attaches the actions a customer can take next, derived from the
// response state. Mutates and returns the same response.
func (a *Adapter) Decorate(resp *domain.WorkflowResponse) *domain.WorkflowResponse {
	resp.Actions = suggestedFor(resp)
	return resp
}

func suggestedFor(resp *domain.WorkflowResponse) []domain.Action {
	if resp.Suggestion != nil {
		s := resp.Suggestion
		return []domain.Action{
			button("reduce_quantity", fmt.Sprintf("Take %d instead", s.Available), domain.StylePrimary, map[string]interface{}{
				"product_id": s.ProductID,
				"quantity":   s.Available,
			}),
			button("cancel_order", "Cancel", domain.StyleDanger, nil),
		}
	}

	switch resp.State {
	case domain.StateIdle:
		return []domain.Action{
			button("start_order", "Start an order", domain.StylePrimary, nil),
		}

	case domain.StateCollectingProducts:
		acts := []domain.Action{
			button("browse_products", "Browse products", domain.StyleSecondary, nil),
		}
		if resp.Draft != nil && len(resp.Draft.Items) > 0 {
			acts = append([]domain.Action{
				button("proceed_checkout", "Checkout", domain.StylePrimary, nil),
			}, acts...)
		}
		return append(acts, button("cancel_order", "Cancel", domain.StyleDanger, nil))

	case domain.StateCollectingInfo:
		return []domain.Action{
			button("cancel_order", "Cancel", domain.StyleDanger, nil),
		}

	case domain.StateDraftReview:
		return []domain.Action{
			button("confirm_order", "Confirm order", domain.StylePrimary, nil),
			button("edit_info", "Edit shipping info", domain.StyleSecondary, nil),
			button("edit_cart", "Edit cart", domain.StyleSecondary, nil),
			button("cancel_order", "Cancel", domain.StyleDanger, nil),
		}

	case domain.StateAwaitingConfirm:
		return []domain.Action{
			button("pay_bank_transfer", "Bank transfer", domain.StylePrimary, nil),
			button("pay_momo", "Mobile wallet", domain.StylePrimary, nil),
			button("pay_cod", "Cash on delivery", domain.StyleSecondary, nil),
			button("cancel_order", "Cancel", domain.StyleDanger, nil),
		}

	case domain.StatePaymentPending:
		acts := []domain.Action{}
		if resp.PaymentInfo != nil && resp.PaymentInfo.QRURL != "" {
			acts = append(acts, domain.Action{
				ActionID: "payment_qr",
				Label:    "Payment QR",
				Type:     domain.ActionQR,
				Style:    domain.StylePrimary,
				Data:     map[string]interface{}{"qr_url": resp.PaymentInfo.QRURL},
			})
		}
		return append(acts,
			button("confirm_payment", "I have paid", domain.StylePrimary, nil),
			button("change_payment", "Change payment method", domain.StyleSecondary, nil),
			button("cancel_order", "Cancel", domain.StyleDanger, nil),
		)

	case domain.StateOrderCreated:
		acts := []domain.Action{}
		if resp.OrderNumber != "" {
			acts = append(acts, button("view_order_"+resp.OrderNumber, "View order", domain.StyleSecondary, nil))
		}
		return append(acts, button("start_order", "Place another order", domain.StylePrimary, nil))

	case domain.StateCancelled:
		return []domain.Action{
			button("start_order", "Start a new order", domain.StylePrimary, nil),
		}
	}
	return nil
}

// DefaultActions returns the canned action set for a chat surface context
// outside the order workflow, e.g. the buttons under a product
// recommendation or a complaint reply.
func DefaultActions(surface string) []domain.Action {
	switch surface {
	case "after_recommendation":
		return []domain.Action{
			button("start_order", "Order now", domain.StylePrimary, nil),
			button("browse_products", "See more products", domain.StyleSecondary, nil),
		}
	case "complaint":
		return []domain.Action{
			button("contact_support", "Talk to support", domain.StylePrimary, nil),
			button("view_orders", "My orders", domain.StyleSecondary, nil),
		}
	default: // "general"
		return []domain.Action{
			button("browse_products", "Browse products", domain.StylePrimary, nil),
			button("start_order", "Place an order", domain.StyleSecondary, nil),
			button("view_orders", "My orders", domain.StyleSecondary, nil),
		}
	}
}

// SuggestedActions returns the default action set for a conversation's
// current position without dispatching anything, so a surface can render
// buttons before the customer clicks one.
func (a *Adapter) SuggestedActions(conversationID, userID int64) []domain.Action {
	return suggestedFor(a.engine.Snapshot(conversationID, userID))
}

// Dispatch routes an action id, plus optional action data, to the engine
// operation it names and decorates the result. Unknown ids never error;
// the customer gets told the button did nothing.
func (a *Adapter) Dispatch(ctx context.Context, conversationID, userID int64, actionID string, data map[string]interface{}) (*domain.WorkflowResponse, error) {
	resp, err := a.dispatch(ctx, conversationID, userID, actionID, data)
	if err != nil {
		return nil, err
	}
	return a.Decorate(resp), nil
}

func (a *Adapter) dispatch(ctx context.Context, conversationID, userID int64, actionID string, data map[string]interface{}) (*domain.WorkflowResponse, error) {
	switch actionID {
	case "start_order":
		return a.engine.StartOrder(ctx, conversationID, userID, nil)
	case "proceed_checkout":
		return a.engine.ProceedToCheckout(ctx, conversationID, userID)
	case "confirm_order", "change_payment":
		return a.engine.ConfirmOrder(ctx, conversationID, userID)
	case "confirm_payment":
		return a.engine.ConfirmPayment(ctx, conversationID, userID)
	case "cancel_order":
		return a.engine.CancelOrder(ctx, conversationID, userID)
	case "edit_info":
		return a.engine.EditShipping(ctx, conversationID, userID)
	case "edit_cart":
		return a.engine.EditCart(ctx, conversationID, userID)
	case "pay_bank_transfer":
		return a.engine.SelectPaymentMethod(ctx, conversationID, userID, domain.PaymentBankTransfer)
	case "pay_momo":
		return a.engine.SelectPaymentMethod(ctx, conversationID, userID, domain.PaymentMomo)
	case "pay_cod":
		return a.engine.SelectPaymentMethod(ctx, conversationID, userID, domain.PaymentCOD)
	case "reduce_quantity":
		productID, okID := intField(data, "product_id")
		quantity, okQty := intField(data, "quantity")
		if !okID || !okQty {
			return a.unsupported(conversationID, userID, actionID), nil
		}
		return a.engine.AddProduct(ctx, conversationID, userID, productID, int(quantity))
	}

	if orderNumber, ok := strings.CutPrefix(actionID, "view_order_"); ok {
		return a.engine.ViewOrder(ctx, conversationID, userID, orderNumber)
	}
	if rawID, ok := strings.CutPrefix(actionID, "order_product_"); ok {
		productID, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			return a.unsupported(conversationID, userID, actionID), nil
		}
		return a.engine.StartOrder(ctx, conversationID, userID, &productID)
	}
	if rawID, ok := strings.CutPrefix(actionID, "remove_product_"); ok {
		productID, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			return a.unsupported(conversationID, userID, actionID), nil
		}
		return a.engine.RemoveProduct(ctx, conversationID, userID, productID)
	}

	return a.unsupported(conversationID, userID, actionID), nil
}

func (a *Adapter) unsupported(conversationID, userID int64, actionID string) *domain.WorkflowResponse {
	resp := a.engine.Snapshot(conversationID, userID)
	resp.Message = fmt.Sprintf("That action (%s) isn't available. Please use one of the buttons below.", actionID)
	return resp
}

// intField reads a numeric data field, tolerating the float64 that JSON
// decoding produces for all numbers.
func intField(data map[string]interface{}, key string) (int64, bool) {
	switch v := data[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	}
	return 0, false
}

func button(id, label string, style domain.ActionStyle, data map[string]interface{}) domain.Action {
	return domain.Action{
		ActionID: id,
		Label:    label,
		Type:     domain.ActionButton,
		Style:    style,
		Data:     data,
	}
}
