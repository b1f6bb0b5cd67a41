package usecase

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"negotiation-backend/model"
	"negotiation-backend/pkg/events"
	"negotiation-backend/pkg/metrics"
	"negotiation-backend/pkg/pricing"
	"negotiation-backend/pkg/prose"
)

const historyWindow = 10

type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*model.Product, error)
}

type NegotiationRepository interface {
	Create(ctx context.Context, n *model.Negotiation, opening *model.Turn) error
	GetByID(ctx context.Context, id string) (*model.Negotiation, error)
	ListTurns(ctx context.Context, negotiationID string) ([]model.Turn, error)
	CountShopperTurns(ctx context.Context, negotiationID string) (int, error)
	Commit(ctx context.Context, n *model.Negotiation, expectedVersion int, turns ...model.Turn) error
	ExpireIdle(ctx context.Context, before time.Time) (int64, error)
}

// IdempotencyStore caches turn responses per negotiation and client key.
type IdempotencyStore interface {
	Get(ctx context.Context, scope, key string, dest any) (bool, error)
	Put(ctx context.Context, scope, key string, v any) error
}

type Deps struct {
	Products     ProductRepository
	Negotiations NegotiationRepository
	// Generator writes the reply prose. Nil means templated replies only.
	Generator   prose.Generator
	Publisher   events.Publisher
	Idempotency IdempotencyStore
	Metrics     *metrics.Registry
	SessionTTL  time.Duration
}

type NegotiationUsecase struct {
	products     ProductRepository
	negotiations NegotiationRepository
	generator    prose.Generator
	publisher    events.Publisher
	idempotency  IdempotencyStore
	metrics      *metrics.Registry
	sessionTTL   time.Duration

	locks *keyedMutex
	now   func() time.Time
}

func NewNegotiationUsecase(d Deps) *NegotiationUsecase {
	u := &NegotiationUsecase{
		products:     d.Products,
		negotiations: d.Negotiations,
		generator:    d.Generator,
		publisher:    d.Publisher,
		idempotency:  d.Idempotency,
		metrics:      d.Metrics,
		sessionTTL:   d.SessionTTL,
		locks:        newKeyedMutex(),
		now:          func() time.Time { return time.Now().UTC() },
	}
	if u.publisher == nil {
		u.publisher = events.NopPublisher{}
	}
	if u.metrics == nil {
		u.metrics = metrics.NewRegistry()
	}
	return u
}

type TurnRequest struct {
	UserMessage    string
	NegotiationID  string
	ProductID      string
	IdempotencyKey string
}

type TurnResponse struct {
	Message     string              `json:"message"`
	OfferAmount decimal.NullDecimal `json:"offer_amount"`
	Accepted    bool                `json:"accepted"`
	FinalPrice  decimal.NullDecimal `json:"final_price"`
	OrderID     string              `json:"order_id,omitempty"`
}

func (r TurnRequest) validate() error {
	switch {
	case strings.TrimSpace(r.UserMessage) == "":
		return errors.Wrap(model.ErrValidation, "userMessage is required")
	case strings.TrimSpace(r.NegotiationID) == "":
		return errors.Wrap(model.ErrValidation, "negotiationId is required")
	case strings.TrimSpace(r.ProductID) == "":
		return errors.Wrap(model.ErrValidation, "productId is required")
	}
	return nil
}

// HandleTurn runs one shopper message through the engine and persists the outcome.
func (u *NegotiationUsecase) HandleTurn(ctx context.Context, req TurnRequest) (*TurnResponse, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	// Held across the cache lookup so a retry waiting on the lock sees the first reply.
	unlock := u.locks.Lock(req.NegotiationID)
	defer unlock()

	if u.idempotency != nil && req.IdempotencyKey != "" {
		var cached TurnResponse
		hit, err := u.idempotency.Get(ctx, req.NegotiationID, req.IdempotencyKey, &cached)
		if err != nil {
			log.WithError(err).WithField("negotiation_id", req.NegotiationID).Warn("idempotency lookup failed")
		} else if hit {
			return &cached, nil
		}
	}

	resp, err := u.handleTurn(ctx, req)
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			u.metrics.Conflicts.Inc()
		}
		return nil, err
	}

	if u.idempotency != nil && req.IdempotencyKey != "" {
		if err := u.idempotency.Put(ctx, req.NegotiationID, req.IdempotencyKey, resp); err != nil {
			log.WithError(err).WithField("negotiation_id", req.NegotiationID).Warn("idempotency store failed")
		}
	}
	return resp, nil
}

func (u *NegotiationUsecase) handleTurn(ctx context.Context, req TurnRequest) (*TurnResponse, error) {
	product, err := u.products.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	n, err := u.negotiations.GetByID(ctx, req.NegotiationID)
	if err != nil {
		return nil, err
	}
	if n.ProductID != product.ID {
		return nil, errors.Wrapf(model.ErrValidation, "negotiation %s is not for product %s", n.ID, product.ID)
	}

	now := u.now()
	if err := u.expireIfIdle(ctx, n, now); err != nil {
		return nil, err
	}
	if n.Status != model.StatusActive {
		return closedResponse(product, n), nil
	}

	prior, err := u.negotiations.CountShopperTurns(ctx, n.ID)
	if err != nil {
		return nil, err
	}
	round := model.RoundFor(prior)

	cls := pricing.Classify(req.UserMessage)
	if !n.CurrentOffer.Valid && (cls.Category == pricing.CategoryAgreement || cls.Category == pricing.CategoryAgreementWithPrice) {
		// nothing to agree to yet
		cls.Category = pricing.CategoryOther
	}
	u.metrics.Turns.WithLabelValues(string(cls.Category)).Inc()

	logger := log.WithFields(log.Fields{
		"negotiation_id": n.ID,
		"round":          round,
		"category":       cls.Category,
	})

	shopperTurn := model.Turn{
		ID:            newID(),
		NegotiationID: n.ID,
		Sender:        model.SenderShopper,
		Content:       req.UserMessage,
		OfferAmount:   cls.Amount,
		Category:      string(cls.Category),
		CreatedAt:     now,
	}
	version := n.Version

	input := pricing.OfferInput{
		OriginalPrice: product.OriginalPrice,
		FloorPrice:    product.FloorPrice,
		Round:         round,
		CurrentOffer:  n.CurrentOffer,
		ShopperOffer:  cls.Amount,
		Inventory:     product.Inventory,
		Intent:        cls.Intent(),
	}

	switch cls.Category {
	case pricing.CategoryAgreement:
		return u.accept(ctx, logger, product, n, version, shopperTurn, now)
	case pricing.CategoryAgreementWithPrice:
		if cls.Amount.Decimal.GreaterThanOrEqual(n.CurrentOffer.Decimal) {
			return u.accept(ctx, logger, product, n, version, shopperTurn, now)
		}
		if d := pricing.NextOffer(input); d.Kind == pricing.DecisionAccept {
			if err := n.ApplyOffer(d.Amount, product, now); err != nil {
				return nil, errors.Wrap(err, "apply agreed price")
			}
			return u.accept(ctx, logger, product, n, version, shopperTurn, now)
		}
		// a lower figure the calculator won't take outright is a counteroffer
	}

	decision := pricing.NextOffer(input)
	u.metrics.Offers.WithLabelValues(string(decision.Kind)).Inc()

	previous := n.CurrentOffer
	text := u.generate(ctx, logger, product, n, req.UserMessage, decision)
	rec := pricing.Reconcile(text, decision.Offer(), product.FloorPrice, previous)
	if rec.Drift {
		u.metrics.ReconcileDrift.Inc()
		logger.WithFields(log.Fields{
			"quoted":        rec.Extracted.Decimal.String(),
			"authoritative": decision.Offer().Decimal.String(),
		}).Warn("generated reply quoted a different price")
	}

	if rec.Offer.Valid {
		if err := n.ApplyOffer(rec.Offer.Decimal, product, now); err != nil {
			return nil, errors.Wrap(err, "apply offer")
		}
	} else {
		n.UpdatedAt = now
	}

	engineTurn := model.Turn{
		ID:            newID(),
		NegotiationID: n.ID,
		Sender:        model.SenderEngine,
		Content:       rec.Message,
		OfferAmount:   rec.Offer,
		Decision:      string(decision.Kind),
		CreatedAt:     now,
	}
	if err := u.negotiations.Commit(ctx, n, version, shopperTurn, engineTurn); err != nil {
		return nil, err
	}

	logger.WithFields(log.Fields{"decision": decision.Kind, "offer": rec.Offer.Decimal.String()}).Info("turn handled")
	return &TurnResponse{Message: rec.Message, OfferAmount: rec.Offer}, nil
}

func (u *NegotiationUsecase) accept(ctx context.Context, logger *log.Entry, product *model.Product, n *model.Negotiation, version int, shopperTurn model.Turn, now time.Time) (*TurnResponse, error) {
	orderID := newOrderID()
	if err := n.Accept(orderID, now); err != nil {
		return nil, errors.Wrap(err, "accept offer")
	}
	message := prose.Confirmation(product.Name, n.FinalPrice.Decimal, orderID)
	engineTurn := model.Turn{
		ID:            newID(),
		NegotiationID: n.ID,
		Sender:        model.SenderEngine,
		Content:       message,
		OfferAmount:   n.FinalPrice,
		Decision:      string(pricing.DecisionAccept),
		CreatedAt:     now,
	}
	if err := u.negotiations.Commit(ctx, n, version, shopperTurn, engineTurn); err != nil {
		return nil, err
	}
	u.metrics.Accepted.Inc()
	logger.WithFields(log.Fields{"final_price": n.FinalPrice.Decimal.String(), "order_id": orderID}).Info("negotiation accepted")

	event := events.AcceptedEvent{
		NegotiationID: n.ID,
		ProductID:     n.ProductID,
		OrderID:       orderID,
		FinalPrice:    n.FinalPrice.Decimal,
		AcceptedAt:    now,
	}
	if err := u.publisher.PublishAccepted(ctx, event); err != nil {
		logger.WithError(err).Error("publish accepted event")
	}

	return &TurnResponse{
		Message:    message,
		Accepted:   true,
		FinalPrice: n.FinalPrice,
		OrderID:    orderID,
	}, nil
}

// generate asks the generation service for the reply, falling back to a template when
// it is missing, slow or failing.
func (u *NegotiationUsecase) generate(ctx context.Context, logger *log.Entry, product *model.Product, n *model.Negotiation, message string, decision pricing.Decision) string {
	fallback := prose.Fallback(product.Name, decision.Kind, decision.Offer(), n.CurrentOffer)
	if u.generator == nil {
		return fallback
	}

	history, err := u.history(ctx, n.ID)
	if err != nil {
		logger.WithError(err).Warn("load history for prompt")
	}
	prompt := prose.BuildPrompt(prose.PromptInput{
		ProductName:    product.Name,
		Description:    product.Description,
		OriginalPrice:  product.OriginalPrice,
		Inventory:      product.Inventory,
		PreviousOffer:  n.CurrentOffer,
		Offer:          decision.Offer(),
		Decision:       decision.Kind,
		ShopperMessage: message,
		History:        history,
	})

	start := time.Now()
	text, err := u.generator.Generate(ctx, prompt)
	u.metrics.GenerationLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		u.metrics.GenerationFallbacks.Inc()
		logger.WithError(err).Warn("generation unavailable, using template reply")
		return fallback
	}
	return text
}

func (u *NegotiationUsecase) history(ctx context.Context, negotiationID string) ([]prose.HistoryLine, error) {
	turns, err := u.negotiations.ListTurns(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	if len(turns) > historyWindow {
		turns = turns[len(turns)-historyWindow:]
	}
	lines := make([]prose.HistoryLine, 0, len(turns))
	for _, t := range turns {
		who := "Seller"
		if t.Sender == model.SenderShopper {
			who = "Shopper"
		}
		lines = append(lines, prose.HistoryLine{Sender: who, Content: t.Content})
	}
	return lines, nil
}

type StartResult struct {
	Negotiation *model.Negotiation
	Message     string
}

// StartNegotiation opens a session for a product with a welcome message anchored at the
// original price.
func (u *NegotiationUsecase) StartNegotiation(ctx context.Context, productID string) (*StartResult, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, errors.Wrap(model.ErrValidation, "productId is required")
	}
	product, err := u.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	now := u.now()
	n := model.NewNegotiation(newID(), product.ID, now)
	message := prose.Welcome(product.Name, product.OriginalPrice)
	opening := &model.Turn{
		ID:            newID(),
		NegotiationID: n.ID,
		Sender:        model.SenderEngine,
		Content:       message,
		Decision:      string(pricing.DecisionNone),
		CreatedAt:     now,
	}
	if err := u.negotiations.Create(ctx, n, opening); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"negotiation_id": n.ID, "product_id": product.ID}).Info("negotiation started")
	return &StartResult{Negotiation: n, Message: message}, nil
}

func (u *NegotiationUsecase) GetNegotiation(ctx context.Context, id string) (*model.Negotiation, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.Wrap(model.ErrValidation, "negotiation id is required")
	}
	unlock := u.locks.Lock(id)
	defer unlock()

	n, err := u.negotiations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := u.expireIfIdle(ctx, n, u.now()); err != nil {
		return nil, err
	}
	return n, nil
}

func (u *NegotiationUsecase) ListTurns(ctx context.Context, id string) ([]model.Turn, error) {
	if _, err := u.GetNegotiation(ctx, id); err != nil {
		return nil, err
	}
	return u.negotiations.ListTurns(ctx, id)
}

// ExpireIdle closes every active session idle for longer than the session TTL.
func (u *NegotiationUsecase) ExpireIdle(ctx context.Context) (int64, error) {
	if u.sessionTTL <= 0 {
		return 0, nil
	}
	count, err := u.negotiations.ExpireIdle(ctx, u.now().Add(-u.sessionTTL))
	if err != nil {
		return 0, err
	}
	if count > 0 {
		u.metrics.Expired.Add(float64(count))
		log.WithField("count", count).Info("expired idle negotiations")
	}
	return count, nil
}

// RunExpirySweeper calls ExpireIdle every interval until ctx is done.
func (u *NegotiationUsecase) RunExpirySweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 || u.sessionTTL <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := u.ExpireIdle(ctx); err != nil {
				log.WithError(err).Error("expire idle negotiations")
			}
		case <-ctx.Done():
			return
		}
	}
}

func (u *NegotiationUsecase) expireIfIdle(ctx context.Context, n *model.Negotiation, now time.Time) error {
	if !n.IsIdle(now, u.sessionTTL) {
		return nil
	}
	version := n.Version
	if err := n.Expire(now); err != nil {
		return err
	}
	if err := u.negotiations.Commit(ctx, n, version); err != nil {
		return err
	}
	u.metrics.Expired.Inc()
	log.WithField("negotiation_id", n.ID).Info("negotiation expired on access")
	return nil
}

func closedResponse(product *model.Product, n *model.Negotiation) *TurnResponse {
	resp := &TurnResponse{Message: prose.Closed(product.Name, n.FinalPrice)}
	if n.Status == model.StatusAccepted {
		resp.Accepted = true
		resp.FinalPrice = n.FinalPrice
		if n.OrderID != nil {
			resp.OrderID = *n.OrderID
		}
	}
	return resp
}

func newID() string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return ulid.MustNew(ulid.Now(), entropy).String()
}

func newOrderID() string {
	return strings.ToUpper(uuid.NewString()[:8])
}
