package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sellista/orderflow/internal/actions"
	"github.com/sellista/orderflow/internal/workflow"
)

// ChatHandler exposes the action protocol and the order workflow over HTTP.
type ChatHandler struct {
	adapter *actions.Adapter
	engine  *workflow.Engine
	timeout time.Duration
}

func NewChatHandler(adapter *actions.Adapter, engine *workflow.Engine, timeout time.Duration) *ChatHandler {
	return &ChatHandler{
		adapter: adapter,
		engine:  engine,
		timeout: timeout,
	}
}

type ActionRequestDTO struct {
	ActionID string                 `json:"action_id"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

type StartOrderRequestDTO struct {
	ProductID *int64 `json:"product_id,omitempty"`
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// DispatchAction handles POST /api/v1/chat/{conversation_id}/actions.
func (h *ChatHandler) DispatchAction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	conversationID, ok := conversationIDParam(w, r)
	if !ok {
		return
	}

	var req ActionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ActionID == "" {
		respondError(w, http.StatusBadRequest, "invalid_action", "action_id is required")
		return
	}

	resp, err := h.adapter.Dispatch(ctx, conversationID, userID, req.ActionID, req.Data)
	if err != nil {
		log.Printf("dispatch %s failed (request %s): %v", req.ActionID, getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// StartOrder handles POST /api/v1/chat/{conversation_id}/order/start.
func (h *ChatHandler) StartOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	conversationID, ok := conversationIDParam(w, r)
	if !ok {
		return
	}

	var req StartOrderRequestDTO
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
			return
		}
	}

	resp, err := h.engine.StartOrder(ctx, conversationID, userID, req.ProductID)
	if err != nil {
		log.Printf("start order failed: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, h.adapter.Decorate(resp))
}

// AddItem handles POST /api/v1/chat/{conversation_id}/order/items.
func (h *ChatHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	conversationID, ok := conversationIDParam(w, r)
	if !ok {
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	resp, err := h.engine.AddProduct(ctx, conversationID, userID, req.ProductID, req.Quantity)
	if err != nil {
		log.Printf("add item failed: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, h.adapter.Decorate(resp))
}

// UpdateShipping handles PUT /api/v1/chat/{conversation_id}/order/shipping.
func (h *ChatHandler) UpdateShipping(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	conversationID, ok := conversationIDParam(w, r)
	if !ok {
		return
	}

	var req workflow.ShippingUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	resp, err := h.engine.UpdateShippingInfo(ctx, conversationID, userID, req)
	if err != nil {
		log.Printf("update shipping failed: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, h.adapter.Decorate(resp))
}

// GetWorkflow handles GET /api/v1/chat/{conversation_id}/order, returning
// the current state and draft without advancing anything.
func (h *ChatHandler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	conversationID, ok := conversationIDParam(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, h.adapter.Decorate(h.engine.Snapshot(conversationID, userID)))
}

func conversationIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	conversationID, err := parseInt64(chi.URLParam(r, "conversation_id"))
	if err != nil || conversationID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_conversation_id", "conversation_id must be a positive integer")
		return 0, false
	}
	return conversationID, true
}
