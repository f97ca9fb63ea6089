package actions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellista/orderflow/internal/domain"
	"github.com/sellista/orderflow/internal/payment"
	"github.com/sellista/orderflow/internal/repository"
	"github.com/sellista/orderflow/internal/workflow"
)

type stubCatalog struct {
	products map[int64]*domain.Product
}

func (s *stubCatalog) GetProduct(_ context.Context, productID int64) (*domain.Product, error) {
	product, ok := s.products[productID]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return product, nil
}

type stubProfiles struct{}

func (stubProfiles) GetProfile(context.Context, int64) (*domain.CustomerProfile, error) {
	return nil, repository.ErrProfileNotFound
}

type stubOrders struct {
	created []*domain.Order
}

func (s *stubOrders) CreateOrder(_ context.Context, order *domain.Order) error {
	s.created = append(s.created, order)
	return nil
}

func (s *stubOrders) GetOrderByNumber(_ context.Context, orderNumber string) (*domain.Order, error) {
	for _, order := range s.created {
		if order.OrderNumber == orderNumber {
			return order, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

type stubDrafts struct{}

func (stubDrafts) Get(context.Context, int64) (*domain.OrderDraft, error) { return nil, nil }
func (stubDrafts) Set(context.Context, *domain.OrderDraft) error         { return nil }
func (stubDrafts) Delete(context.Context, int64) error                   { return nil }

func setupAdapter(t *testing.T) *Adapter {
	payments := payment.NewMemoryStore(payment.DefaultBankConfig(), payment.DefaultWalletConfig())
	sessions := workflow.NewMemorySessionStore(workflow.SessionTTL)
	t.Cleanup(func() {
		payments.Close()
		sessions.Close()
	})

	engine := workflow.NewEngine(workflow.Config{
		Sessions: sessions,
		Catalog: &stubCatalog{products: map[int64]*domain.Product{
			42: {ID: 42, Name: "Ceramic Mug", Price: 500000, StockQuantity: 5},
		}},
		Profiles:      stubProfiles{},
		Orders:        &stubOrders{},
		Payments:      payments,
		Drafts:        stubDrafts{},
		ManualConfirm: true,
	})
	return NewAdapter(engine)
}

func actionIDs(actions []domain.Action) []string {
	ids := make([]string, 0, len(actions))
	for _, a := range actions {
		ids = append(ids, a.ActionID)
	}
	return ids
}

func TestDecorate_Idle(t *testing.T) {
	a := setupAdapter(t)

	resp := a.Decorate(&domain.WorkflowResponse{State: domain.StateIdle})
	assert.Equal(t, []string{"start_order"}, actionIDs(resp.Actions))
}

func TestDecorate_CollectingProductsWithItems(t *testing.T) {
	a := setupAdapter(t)

	draft := domain.NewOrderDraft(1, 1)
	draft.AddItem(domain.OrderItem{ProductID: 42, Quantity: 1, UnitPrice: 500000})

	resp := a.Decorate(&domain.WorkflowResponse{
		State: domain.StateCollectingProducts,
		Draft: draft,
	})
	assert.Equal(t, []string{"proceed_checkout", "browse_products", "cancel_order"}, actionIDs(resp.Actions))
}

func TestDecorate_CollectingProductsEmptyCartHidesCheckout(t *testing.T) {
	a := setupAdapter(t)

	resp := a.Decorate(&domain.WorkflowResponse{State: domain.StateCollectingProducts})
	assert.Equal(t, []string{"browse_products", "cancel_order"}, actionIDs(resp.Actions))
}

func TestDecorate_DraftReview(t *testing.T) {
	a := setupAdapter(t)

	resp := a.Decorate(&domain.WorkflowResponse{State: domain.StateDraftReview})
	assert.Equal(t, []string{"confirm_order", "edit_info", "edit_cart", "cancel_order"}, actionIDs(resp.Actions))
}

func TestDecorate_AwaitingConfirmOffersPaymentMethods(t *testing.T) {
	a := setupAdapter(t)

	resp := a.Decorate(&domain.WorkflowResponse{State: domain.StateAwaitingConfirm})
	assert.Equal(t, []string{"pay_bank_transfer", "pay_momo", "pay_cod", "cancel_order"}, actionIDs(resp.Actions))
}

func TestDecorate_PaymentPendingIncludesQR(t *testing.T) {
	a := setupAdapter(t)

	resp := a.Decorate(&domain.WorkflowResponse{
		State: domain.StatePaymentPending,
		PaymentInfo: &domain.PaymentInfo{
			QRURL: "https://img.vietqr.io/image/x.png",
		},
	})

	ids := actionIDs(resp.Actions)
	assert.Equal(t, []string{"payment_qr", "confirm_payment", "change_payment", "cancel_order"}, ids)
	assert.Equal(t, domain.ActionQR, resp.Actions[0].Type)
	assert.Equal(t, "https://img.vietqr.io/image/x.png", resp.Actions[0].Data["qr_url"])
}

func TestDecorate_SuggestionOverridesStateActions(t *testing.T) {
	a := setupAdapter(t)

	resp := a.Decorate(&domain.WorkflowResponse{
		State:      domain.StateCollectingProducts,
		Suggestion: &domain.QuantitySuggestion{ProductID: 42, Available: 3},
	})

	require.Len(t, resp.Actions, 2)
	assert.Equal(t, "reduce_quantity", resp.Actions[0].ActionID)
	assert.Equal(t, int64(42), resp.Actions[0].Data["product_id"])
	assert.Equal(t, 3, resp.Actions[0].Data["quantity"])
}

func TestDecorate_OrderCreated(t *testing.T) {
	a := setupAdapter(t)

	resp := a.Decorate(&domain.WorkflowResponse{
		State:       domain.StateOrderCreated,
		OrderNumber: "ORD-20250101-ABCDEF12",
	})
	assert.Equal(t, []string{"view_order_ORD-20250101-ABCDEF12", "start_order"}, actionIDs(resp.Actions))
}

func TestDefaultActions_PerSurface(t *testing.T) {
	assert.Equal(t, []string{"browse_products", "start_order", "view_orders"},
		actionIDs(DefaultActions("general")))
	assert.Equal(t, []string{"start_order", "browse_products"},
		actionIDs(DefaultActions("after_recommendation")))
	assert.Equal(t, []string{"contact_support", "view_orders"},
		actionIDs(DefaultActions("complaint")))
	// unknown surfaces fall back to the general set
	assert.Equal(t, actionIDs(DefaultActions("general")), actionIDs(DefaultActions("whatever")))
}

func TestSuggestedActions_FreshConversation(t *testing.T) {
	a := setupAdapter(t)

	ids := actionIDs(a.SuggestedActions(1, 1))
	assert.Equal(t, []string{"start_order"}, ids)
}

func TestDispatch_StartOrder(t *testing.T) {
	a := setupAdapter(t)

	resp, err := a.Dispatch(context.Background(), 1, 1, "start_order", nil)
	require.NoError(t, err)

	assert.Equal(t, domain.StateCollectingProducts, resp.State)
	assert.NotEmpty(t, resp.Actions)
}

func TestDispatch_OrderProductPrefix(t *testing.T) {
	a := setupAdapter(t)

	resp, err := a.Dispatch(context.Background(), 1, 1, "order_product_42", nil)
	require.NoError(t, err)

	require.NotNil(t, resp.Draft)
	require.Len(t, resp.Draft.Items, 1)
	assert.Equal(t, int64(42), resp.Draft.Items[0].ProductID)
}

func TestDispatch_ReduceQuantity(t *testing.T) {
	a := setupAdapter(t)

	// JSON decoding delivers numbers as float64
	resp, err := a.Dispatch(context.Background(), 1, 1, "reduce_quantity", map[string]interface{}{
		"product_id": float64(42),
		"quantity":   float64(3),
	})
	require.NoError(t, err)

	require.NotNil(t, resp.Draft)
	assert.Equal(t, 3, resp.Draft.Items[0].Quantity)
}

func TestDispatch_ReduceQuantityMissingData(t *testing.T) {
	a := setupAdapter(t)

	resp, err := a.Dispatch(context.Background(), 1, 1, "reduce_quantity", nil)
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "isn't available")
}

func TestDispatch_UnknownAction(t *testing.T) {
	a := setupAdapter(t)

	resp, err := a.Dispatch(context.Background(), 1, 1, "launch_rocket", nil)
	require.NoError(t, err)

	assert.Contains(t, resp.Message, "launch_rocket")
	assert.NotEmpty(t, resp.Actions)
}

func TestDispatch_FullCODFlow(t *testing.T) {
	a := setupAdapter(t)
	ctx := context.Background()

	_, err := a.Dispatch(ctx, 1, 1, "order_product_42", nil)
	require.NoError(t, err)
	_, err = a.Dispatch(ctx, 1, 1, "proceed_checkout", nil)
	require.NoError(t, err)

	_, err = a.engine.UpdateShippingInfo(ctx, 1, 1, workflow.ShippingUpdate{
		RecipientName: "A", Phone: "0901", Address: "addr", City: "TP.HCM",
	})
	require.NoError(t, err)

	_, err = a.Dispatch(ctx, 1, 1, "confirm_order", nil)
	require.NoError(t, err)

	resp, err := a.Dispatch(ctx, 1, 1, "pay_cod", nil)
	require.NoError(t, err)

	assert.Equal(t, domain.StateOrderCreated, resp.State)
	assert.NotEmpty(t, resp.OrderNumber)
	assert.Equal(t, "view_order_"+resp.OrderNumber, resp.Actions[0].ActionID)

	viewed, err := a.Dispatch(ctx, 1, 1, resp.Actions[0].ActionID, nil)
	require.NoError(t, err)
	assert.Equal(t, resp.OrderNumber, viewed.OrderNumber)
}
