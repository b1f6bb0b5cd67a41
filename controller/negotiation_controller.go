package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"negotiation-backend/model"
	"negotiation-backend/usecase"
)

type NegotiationService interface {
	HandleTurn(ctx context.Context, req usecase.TurnRequest) (*usecase.TurnResponse, error)
	StartNegotiation(ctx context.Context, productID string) (*usecase.StartResult, error)
	GetNegotiation(ctx context.Context, id string) (*model.Negotiation, error)
	ListTurns(ctx context.Context, id string) ([]model.Turn, error)
}

type NegotiationController struct {
	usecase NegotiationService
}

func NewNegotiationController(usecase NegotiationService) *NegotiationController {
	return &NegotiationController{usecase: usecase}
}

type negotiateRequest struct {
	UserMessage   string `json:"userMessage"`
	NegotiationID string `json:"negotiationId"`
	ProductID     string `json:"productId"`
}

type negotiateResponse struct {
	Message     string   `json:"message"`
	OfferAmount *float64 `json:"offerAmount,omitempty"`
	Accepted    bool     `json:"accepted"`
	FinalPrice  *float64 `json:"finalPrice,omitempty"`
	OrderID     string   `json:"orderId,omitempty"`
}

type startRequest struct {
	ProductID string `json:"productId"`
}

type negotiationResponse struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"productId"`
	Status       string    `json:"status"`
	CurrentOffer *float64  `json:"currentOffer,omitempty"`
	FinalPrice   *float64  `json:"finalPrice,omitempty"`
	OrderID      string    `json:"orderId,omitempty"`
	Version      int       `json:"version"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Message      string    `json:"message,omitempty"`
}

type turnResponse struct {
	ID          string    `json:"id"`
	Sender      string    `json:"sender"`
	Content     string    `json:"content"`
	OfferAmount *float64  `json:"offerAmount,omitempty"`
	Category    string    `json:"category,omitempty"`
	Decision    string    `json:"decision,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Negotiate handles POST /api/v1/negotiate.
func (c *NegotiationController) Negotiate(w http.ResponseWriter, r *http.Request) {
	var req negotiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, errors.Wrap(model.ErrValidation, "request body must be JSON"))
		return
	}

	resp, err := c.usecase.HandleTurn(r.Context(), usecase.TurnRequest{
		UserMessage:    req.UserMessage,
		NegotiationID:  req.NegotiationID,
		ProductID:      req.ProductID,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, negotiateResponse{
		Message:     resp.Message,
		OfferAmount: amount(resp.OfferAmount),
		Accepted:    resp.Accepted,
		FinalPrice:  amount(resp.FinalPrice),
		OrderID:     resp.OrderID,
	})
}

// Start handles POST /api/v1/negotiations.
func (c *NegotiationController) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, errors.Wrap(model.ErrValidation, "request body must be JSON"))
		return
	}

	res, err := c.usecase.StartNegotiation(r.Context(), req.ProductID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	body := toNegotiationResponse(res.Negotiation)
	body.Message = res.Message
	respondJSON(w, http.StatusCreated, body)
}

func (c *NegotiationController) Get(w http.ResponseWriter, r *http.Request) {
	n, err := c.usecase.GetNegotiation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toNegotiationResponse(n))
}

func (c *NegotiationController) Turns(w http.ResponseWriter, r *http.Request) {
	turns, err := c.usecase.ListTurns(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]turnResponse, 0, len(turns))
	for _, t := range turns {
		out = append(out, turnResponse{
			ID:          t.ID,
			Sender:      string(t.Sender),
			Content:     t.Content,
			OfferAmount: amount(t.OfferAmount),
			Category:    t.Category,
			Decision:    t.Decision,
			CreatedAt:   t.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func toNegotiationResponse(n *model.Negotiation) negotiationResponse {
	out := negotiationResponse{
		ID:           n.ID,
		ProductID:    n.ProductID,
		Status:       string(n.Status),
		CurrentOffer: amount(n.CurrentOffer),
		FinalPrice:   amount(n.FinalPrice),
		Version:      n.Version,
		CreatedAt:    n.CreatedAt,
		UpdatedAt:    n.UpdatedAt,
	}
	if n.OrderID != nil {
		out.OrderID = *n.OrderID
	}
	return out
}
