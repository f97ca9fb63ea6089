// Package workflow drives the per-conversation order state machine: product
// collection, shipping info, draft review, payment, and the final commit.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sellista/orderflow/internal/cache"
	"github.com/sellista/orderflow/internal/domain"
	"github.com/sellista/orderflow/internal/payment"
	"github.com/sellista/orderflow/internal/repository"
)

// shippingFees maps city to delivery fee; anywhere else pays the default.
var shippingFees = map[string]float64{
	"Hà Nội": 15000,
	"TP.HCM": 15000,
}

const defaultShippingFee = 30000

func shippingFeeFor(city string) float64 {
	if fee, ok := shippingFees[city]; ok {
		return fee
	}
	return defaultShippingFee
}

// ProductFinder is the catalog lookup the engine needs.
type ProductFinder interface {
	GetProduct(ctx context.Context, productID int64) (*domain.Product, error)
}

// ShippingUpdate carries partially supplied shipping fields; empty strings
// mean "not provided" and leave the current value alone.
type ShippingUpdate struct {
	RecipientName string `json:"recipient_name,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Address       string `json:"address,omitempty"`
	City          string `json:"city,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// Config wires the engine's collaborators.
type Config struct {
	Sessions SessionStore
	Catalog  ProductFinder
	Profiles repository.ProfileReader
	Orders   repository.OrderWriter
	Payments payment.TransactionStore
	Drafts   cache.DraftCache

	// ManualConfirm accepts customer-asserted payment confirmation. This
	// is a demo-mode trust assumption; with it off, ConfirmPayment refuses
	// and the PAYMENT_CONFIRMED transition waits for a gateway callback
	// that is out of scope here.
	ManualConfirm bool
}

// Engine owns the workflow state and draft for every conversation. All
// entry points serialize on the session lock, so there is exactly one
// in-flight operation per conversation.
type Engine struct {
	sessions SessionStore
	catalog  ProductFinder
	profiles repository.ProfileReader
	orders   repository.OrderWriter
	payments payment.TransactionStore
	drafts   cache.DraftCache

	manualConfirm bool
}

func NewEngine(cfg Config) *Engine {
	return &Engine{
		sessions:      cfg.Sessions,
		catalog:       cfg.Catalog,
		profiles:      cfg.Profiles,
		orders:        cfg.Orders,
		payments:      cfg.Payments,
		drafts:        cfg.Drafts,
		manualConfirm: cfg.ManualConfirm,
	}
}

// StartOrder enters product collection. With a product id, the product is
// looked up and added as a single-quantity line right away.
func (e *Engine) StartOrder(ctx context.Context, conversationID, userID int64, productID *int64) (*domain.WorkflowResponse, error) {
	sess := e.sessions.Get(conversationID, userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.State = domain.StateCollectingProducts

	if productID != nil {
		product, err := e.catalog.GetProduct(ctx, *productID)
		if errors.Is(err, repository.ErrProductNotFound) {
			return &domain.WorkflowResponse{
				State:   sess.State,
				Message: "I couldn't find that product. Please try again.",
			}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("look up product %d: %w", *productID, err)
		}

		sess.Draft.AddItem(domain.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    1,
			UnitPrice:   product.Price,
			ImageURL:    product.ImageURL,
		})
		e.writeDraft(ctx, sess)
		return e.cartView(sess), nil
	}

	return &domain.WorkflowResponse{
		State:   sess.State,
		Message: "Which product would you like to order? Tell me the name or product code.",
	}, nil
}

// AddProduct adds a quantity of a product to the draft, merging with an
// existing line for the same product.
func (e *Engine) AddProduct(ctx context.Context, conversationID, userID int64, productID int64, quantity int) (*domain.WorkflowResponse, error) {
	sess := e.sessions.Get(conversationID, userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.State == domain.StateIdle {
		sess.State = domain.StateCollectingProducts
	}
	if sess.State != domain.StateCollectingProducts {
		return &domain.WorkflowResponse{
			State:   sess.State,
			Message: "You can only add products while building your cart. Start a new order first.",
		}, nil
	}
	if quantity < 1 {
		return &domain.WorkflowResponse{
			State:   sess.State,
			Message: "Quantity must be at least 1.",
		}, nil
	}

	product, err := e.catalog.GetProduct(ctx, productID)
	if errors.Is(err, repository.ErrProductNotFound) {
		return &domain.WorkflowResponse{
			State:   sess.State,
			Message: "I couldn't find that product. Please try again.",
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("look up product %d: %w", productID, err)
	}

	if product.StockQuantity < quantity {
		return &domain.WorkflowResponse{
			State:   sess.State,
			Message: fmt.Sprintf("Only %d of %s left in stock.", product.StockQuantity, product.Name),
			Suggestion: &domain.QuantitySuggestion{
				ProductID: productID,
				Available: product.StockQuantity,
			},
		}, nil
	}

	sess.Draft.AddItem(domain.OrderItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    quantity,
		UnitPrice:   product.Price,
		ImageURL:    product.ImageURL,
	})
	e.writeDraft(ctx, sess)
	return e.cartView(sess), nil
}

// RemoveProduct drops a line from the draft.
func (e *Engine) RemoveProduct(ctx context.Context, conversationID, userID int64, productID int64) (*domain.WorkflowResponse, error) {
	sess := e.sessions.Get(conversationID, userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.State != domain.StateCollectingProducts {
		return &domain.WorkflowResponse{
			State:   sess.State,
			Message: "You can only edit the cart while building it.",
		}, nil
	}

	sess.Draft.RemoveItem(productID)
	e.writeDraft(ctx, sess)
	return e.cartView(sess), nil
}

// ProceedToCheckout moves on to shipping-info collection, pre-filling what
// the customer profile already knows without overwriting anything supplied
// in this conversation.
func (e *Engine) ProceedToCheckout(ctx context.Context, conversationID, userID int64) (*domain.WorkflowResponse, error) {
	sess := e.sessions.Get(conversationID, userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if len(sess.Draft.Items) == 0 {
		return &domain.WorkflowResponse{
			State:   sess.State,
			Message: "Your cart is empty. Please add a product first.",
		}, nil
	}
	if sess.State != domain.StateCollectingInfo && !domain.CanTransitionTo(sess.State, domain.StateCollectingInfo) {
		return e.wrongState(sess), nil
	}
	sess.State = domain.StateCollectingInfo

	profile, err := e.profiles.GetProfile(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrProfileNotFound) {
		log.Printf("profile lookup failed for user %d: %v", userID, err)
	}
	if profile != nil {
		shipping := &sess.Draft.Shipping
		if shipping.RecipientName == "" {
			shipping.RecipientName = profile.FullName
		}
		if shipping.Phone == "" {
			shipping.Phone = profile.Phone
		}
		if shipping.Address == "" {
			shipping.Address = profile.Address
		}
		if shipping.City == "" {
			shipping.City = profile.City
		}
	}
	if sess.Draft.Shipping.City != "" {
		sess.Draft.ShippingFee = shippingFeeFor(sess.Draft.Shipping.City)
	}
	e.writeDraft(ctx, sess)

	if valid, missing := sess.Draft.IsValid(); !valid {
		return e.askMissingInfo(sess, missing), nil
	}
	return e.draftReview(ctx, sess), nil
}

// UpdateShippingInfo applies partial shipping fields, advancing to draft
// review once everything required is present.
func (e *Engine) UpdateShippingInfo(ctx context.Context, conversationID, userID int64, upd ShippingUpdate) (*domain.WorkflowResponse, error) {
	sess := e.sessions.Get(conversationID, userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.State != domain.StateCollectingInfo && sess.State != domain.StateDraftReview {
		return e.wrongState(sess), nil
	}

	shipping := &sess.Draft.Shipping
	if upd.RecipientName != "" {
		shipping.RecipientName = upd.RecipientName
	}
	if upd.Phone != "" {
		shipping.Phone = upd.Phone
	}
	if upd.Address != "" {
		shipping.Address = upd.Address
	}
	if upd.City != "" {
		shipping.City = upd.City
		sess.Draft.ShippingFee = shippingFeeFor(upd.City)
	}
	if upd.Notes != "" {
		shipping.Notes = upd.Notes
	}
	e.writeDraft(ctx, sess)

	if valid, missing := sess.Draft.IsValid(); !valid {
		sess.State = domain.StateCollectingInfo
		return e.askMissingInfo(sess, missing), nil
	}
	return e.draftReview(ctx, sess), nil
}

// ConfirmOrder presents the payment-method choices. Reached forward from
// draft review, or backward from payment pending when the customer changes
// their mind; the pending transaction is cancelled on the way back.
func (e *Engine) ConfirmOrder(ctx context.Context, conversationID, userID int64) (*domain.WorkflowResponse, error) {
	sess := e.sessions.Get(conversationID, userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !domain.CanTransitionTo(sess.State, domain.StateAwaitingConfirm) {
		return e.wrongState(sess), nil
	}
	if sess.State == domain.StatePaymentPending && sess.TransactionID != "" {
		if err := e.payments.Cancel(sess.TransactionID); err != nil && !errors.Is(err, payment.ErrTransactionNotFound) {
			log.Printf("cancel pending transaction %s: %v", sess.TransactionID, err)
		}
		sess.TransactionID = ""
		sess.Draft.PaymentQRURL = ""
		sess.Draft.PaymentRefCode = ""
	}
	sess.State = domain.StateAwaitingConfirm

	return &domain.WorkflowResponse{
		State:   sess.State,
		Message: "Please choose a payment method:",
		Draft:   sess.Draft,
	}, nil
}

// SelectPaymentMethod records the method. COD commits the order right away;
// QR methods create a payment transaction and return the instructions.
func (e *Engine) SelectPaymentMethod(ctx context.Context, conversationID, userID int64, method domain.PaymentMethod) (*domain.WorkflowResponse, error) {
	sess := e.sessions.Get(conversationID, userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !method.IsValid() {
		return &domain.WorkflowResponse{
			State:   sess.State,
			Message: fmt.Sprintf("Unknown payment method %q. Please pick one of the options.", method),
		}, nil
	}
	if !domain.CanTransitionTo(sess.State, domain.StatePaymentPending) {
		return e.wrongState(sess), nil
	}

	sess.Draft.PaymentMethod = method
	sess.State = domain.StatePaymentPending

	if !method.RequiresQR() {
		return e.commitOrder(ctx, sess)
	}

	txn, err := e.payments.Create(sess.Draft.DraftID, userID, sess.Draft.TotalAmount(), method)
	if err != nil {
		return nil, fmt.Errorf("create payment transaction: %w", err)
	}
	sess.TransactionID = txn.TransactionID
	sess.Draft.PaymentQRURL = txn.QRURL
	sess.Draft.PaymentRefCode = txn.RefCode
	e.writeDraft(ctx, sess)

	info := e.payments.InfoFor(method)
	return &domain.WorkflowResponse{
		State: sess.State,
		Message: fmt.Sprintf(
			"**PAYMENT**\n\nScan the QR code or transfer using the details below:\n\n**Amount:** %s VND\n**Transfer memo:** %s\n\nThe order is cancelled automatically if not paid within %d minutes.",
			formatAmount(txn.Amount), txn.RefCode, int(payment.ExpiryWindow.Minutes())),
		Draft: sess.Draft,
		PaymentInfo: &domain.PaymentInfo{
			Method:           method,
			RefCode:          txn.RefCode,
			Amount:           txn.Amount,
			QRURL:            txn.QRURL,
			BankInfo:         info.BankInfo,
			ExpiresInMinutes: int(payment.ExpiryWindow.Minutes()),
		},
	}, nil
}

// ConfirmPayment accepts the customer's claim of having paid and commits
// the order. Only honored in manual-confirm mode; the production flow gates
// this transition on a gateway callback instead.
func (e *Engine) ConfirmPayment(ctx context.Context, conversationID, userID int64) (*domain.WorkflowResponse, error) {
	sess := e.sessions.Get(conversationID, userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !domain.CanTransitionTo(sess.State, domain.StatePaymentConfirmed) {
		return e.wrongState(sess), nil
	}
	if !e.manualConfirm {
		return &domain.WorkflowResponse{
			State:   sess.State,
			Message: "Your payment is being verified with the payment provider. You will be notified once it is confirmed.",
			Draft:   sess.Draft,
		}, nil
	}

	_, err := e.payments.Confirm(sess.TransactionID, "customer")
	if errors.Is(err, payment.ErrTransactionExpired) || errors.Is(err, payment.ErrTransactionNotFound) {
		sess.State = domain.StateAwaitingConfirm
		sess.TransactionID = ""
		sess.Draft.PaymentQRURL = ""
		sess.Draft.PaymentRefCode = ""
		return &domain.WorkflowResponse{
			State:   sess.State,
			Message: "The payment window has expired. Please choose a payment method again.",
			Draft:   sess.Draft,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("confirm payment transaction: %w", err)
	}

	now := time.Now()
	sess.Draft.PaymentConfirmedAt = &now
	sess.State = domain.StatePaymentConfirmed

	return e.commitOrder(ctx, sess)
}

// CancelOrder cancels from any state and leaves the conversation with a
// fresh idle session so it stays reusable.
func (e *Engine) CancelOrder(ctx context.Context, conversationID, userID int64) (*domain.WorkflowResponse, error) {
	sess := e.sessions.Get(conversationID, userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.TransactionID != "" {
		if err := e.payments.Cancel(sess.TransactionID); err != nil && !errors.Is(err, payment.ErrTransactionNotFound) {
			log.Printf("cancel transaction %s: %v", sess.TransactionID, err)
		}
	}
	e.dropDraft(ctx, sess)

	sess.State = domain.StateIdle
	sess.Draft = domain.NewOrderDraft(userID, conversationID)
	sess.TransactionID = ""

	return &domain.WorkflowResponse{
		State:   domain.StateCancelled,
		Message: "Your order has been cancelled. Feel free to keep browsing or reach out if you need help.",
	}, nil
}

// EditShipping walks back from draft review to shipping-info collection.
func (e *Engine) EditShipping(ctx context.Context, conversationID, userID int64) (*domain.WorkflowResponse, error) {
	sess := e.sessions.Get(conversationID, userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !domain.CanTransitionTo(sess.State, domain.StateCollectingInfo) {
		return e.wrongState(sess), nil
	}
	sess.State = domain.StateCollectingInfo

	return &domain.WorkflowResponse{
		State:   sess.State,
		Message: "Send the shipping details you'd like to change (name, phone, address, city, or notes).",
		Draft:   sess.Draft,
	}, nil
}

// EditCart walks back to product collection and re-renders the cart.
func (e *Engine) EditCart(ctx context.Context, conversationID, userID int64) (*domain.WorkflowResponse, error) {
	sess := e.sessions.Get(conversationID, userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.State != domain.StateCollectingProducts && !domain.CanTransitionTo(sess.State, domain.StateCollectingProducts) {
		return e.wrongState(sess), nil
	}
	sess.State = domain.StateCollectingProducts

	return e.cartView(sess), nil
}

// ViewOrder renders a committed order by its order number.
func (e *Engine) ViewOrder(ctx context.Context, conversationID, userID int64, orderNumber string) (*domain.WorkflowResponse, error) {
	sess := e.sessions.Get(conversationID, userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	order, err := e.orders.GetOrderByNumber(ctx, orderNumber)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return &domain.WorkflowResponse{
			State:   sess.State,
			Message: fmt.Sprintf("I couldn't find order %s.", orderNumber),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("look up order %s: %w", orderNumber, err)
	}

	return &domain.WorkflowResponse{
		State:       sess.State,
		Message:     formatOrder(order),
		OrderNumber: order.OrderNumber,
	}, nil
}

// Snapshot returns the current state and draft without mutating anything.
func (e *Engine) Snapshot(conversationID, userID int64) *domain.WorkflowResponse {
	sess := e.sessions.Get(conversationID, userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	return &domain.WorkflowResponse{
		State:   sess.State,
		Message: "Here is your current order.",
		Draft:   sess.Draft,
	}
}

// commitOrder turns the draft into a persisted order. Called with the
// session lock held. On failure the workflow walks back to draft review so
// the customer can retry without re-entering anything.
func (e *Engine) commitOrder(ctx context.Context, sess *Session) (*domain.WorkflowResponse, error) {
	draft := sess.Draft

	status := domain.OrderStatusConfirmed
	if draft.PaymentMethod == domain.PaymentCOD {
		status = domain.OrderStatusPending
	}
	paymentStatus := domain.PaymentStatusPending
	if draft.PaymentConfirmedAt != nil {
		paymentStatus = domain.PaymentStatusPaid
	}

	order := &domain.Order{
		OrderNumber:     generateOrderNumber(),
		UserID:          draft.UserID,
		Status:          status,
		TotalAmount:     draft.TotalAmount(),
		TaxAmount:       draft.TaxAmount,
		ShippingFee:     draft.ShippingFee,
		DiscountAmount:  draft.DiscountAmount,
		RecipientName:   draft.Shipping.RecipientName,
		ShippingAddress: draft.Shipping.Address,
		ShippingCity:    draft.Shipping.City,
		ShippingPhone:   draft.Shipping.Phone,
		PaymentMethod:   draft.PaymentMethod,
		PaymentStatus:   paymentStatus,
		CustomerNotes:   draft.Shipping.Notes,
	}
	for _, item := range draft.Items {
		order.Items = append(order.Items, domain.OrderLine{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal(),
		})
	}

	if err := e.orders.CreateOrder(ctx, order); err != nil {
		sess.State = domain.StateDraftReview

		msg := "Something went wrong while creating your order. Please try again."
		if errors.Is(err, repository.ErrInsufficientStock) {
			msg = "Some items in your cart are no longer available in the requested quantity. Please review your cart and try again."
		} else {
			log.Printf("order commit failed for draft %s: %v", draft.DraftID, err)
		}
		return &domain.WorkflowResponse{
			State:   sess.State,
			Message: msg,
			Draft:   draft,
		}, nil
	}

	e.dropDraft(ctx, sess)
	sess.State = domain.StateOrderCreated
	sess.Draft = domain.NewOrderDraft(sess.UserID, sess.ConversationID)
	sess.TransactionID = ""

	return &domain.WorkflowResponse{
		State: sess.State,
		Message: fmt.Sprintf(
			"**ORDER PLACED!**\n\nOrder number: **%s**\n\nWe will start processing it shortly. Reach out any time if you need help.",
			order.OrderNumber),
		OrderNumber: order.OrderNumber,
	}, nil
}

func (e *Engine) cartView(sess *Session) *domain.WorkflowResponse {
	return &domain.WorkflowResponse{
		State: sess.State,
		Message: fmt.Sprintf(
			"**Current cart:**\n%s\n\n**Subtotal:** %s VND\n\nWould you like to add anything else?",
			formatItems(sess.Draft.Items), formatAmount(sess.Draft.Subtotal)),
		Draft: sess.Draft,
	}
}

func (e *Engine) draftReview(ctx context.Context, sess *Session) *domain.WorkflowResponse {
	sess.State = domain.StateDraftReview
	if sess.Draft.Shipping.City != "" {
		sess.Draft.ShippingFee = shippingFeeFor(sess.Draft.Shipping.City)
	}
	e.writeDraft(ctx, sess)

	return &domain.WorkflowResponse{
		State:   sess.State,
		Message: "**ORDER REVIEW**\n\n" + formatOrderSummary(sess.Draft),
		Draft:   sess.Draft,
	}
}

var infoPrompts = map[string]string{
	"recipient_name": "Please tell me the **recipient's full name**:",
	"phone":          "Please tell me a **contact phone number**:",
	"address":        "Please tell me the **full delivery address**:",
}

func (e *Engine) askMissingInfo(sess *Session, missing []string) *domain.WorkflowResponse {
	first := missing[0]
	prompt, ok := infoPrompts[first]
	if !ok {
		prompt = fmt.Sprintf("Please provide %s:", first)
	}

	return &domain.WorkflowResponse{
		State:   sess.State,
		Message: prompt,
		Draft:   sess.Draft,
	}
}

func (e *Engine) wrongState(sess *Session) *domain.WorkflowResponse {
	return &domain.WorkflowResponse{
		State:   sess.State,
		Message: "That step isn't available right now.",
		Draft:   sess.Draft,
	}
}

// writeDraft mirrors the draft into the snapshot cache; failures are logged
// and ignored, the in-memory session stays authoritative.
func (e *Engine) writeDraft(ctx context.Context, sess *Session) {
	if err := e.drafts.Set(ctx, sess.Draft); err != nil {
		log.Printf("draft cache set error: %v", err)
	}
}

func (e *Engine) dropDraft(ctx context.Context, sess *Session) {
	if err := e.drafts.Delete(ctx, sess.ConversationID); err != nil {
		log.Printf("draft cache delete error: %v", err)
	}
}

// generateOrderNumber builds ORD-YYYYMMDD-XXXXXXXX. Uniqueness is enforced
// by the order store's unique index; the suffix makes collisions negligible.
func generateOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
	return fmt.Sprintf("ORD-%s-%s", time.Now().Format("20060102"), suffix)
}
