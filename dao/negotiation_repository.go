package dao

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"negotiation-backend/model"
)

type NegotiationRepository struct {
	db *sqlx.DB
}

func NewNegotiationRepository(db *sqlx.DB) *NegotiationRepository {
	return &NegotiationRepository{db: db}
}

// Create stores a new negotiation together with its opening turn.
func (r *NegotiationRepository) Create(ctx context.Context, n *model.Negotiation, opening *model.Turn) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	query := `INSERT INTO negotiations (id, product_id, status, current_offer, final_price, order_id, version, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, query, n.ID, n.ProductID, n.Status, n.CurrentOffer, n.FinalPrice, n.OrderID, n.Version, n.CreatedAt, n.UpdatedAt); err != nil {
		return errors.Wrap(err, "insert negotiation")
	}
	if opening != nil {
		if err := insertTurn(ctx, tx, opening); err != nil {
			return err
		}
	}
	return errors.Wrap(tx.Commit(), "commit negotiation")
}

func (r *NegotiationRepository) GetByID(ctx context.Context, id string) (*model.Negotiation, error) {
	query := `
		SELECT id, product_id, status, current_offer, final_price, order_id, version, created_at, updated_at
		FROM negotiations
		WHERE id = ?
	`
	var n model.Negotiation
	if err := r.db.GetContext(ctx, &n, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(model.ErrNotFound, "negotiation %s", id)
		}
		return nil, errors.Wrap(err, "get negotiation")
	}
	return &n, nil
}

func (r *NegotiationRepository) ListTurns(ctx context.Context, negotiationID string) ([]model.Turn, error) {
	query := `
		SELECT id, negotiation_id, sender, content, offer_amount, category, decision, created_at
		FROM negotiation_turns
		WHERE negotiation_id = ?
		ORDER BY seq ASC
	`
	turns := []model.Turn{}
	if err := r.db.SelectContext(ctx, &turns, query, negotiationID); err != nil {
		return nil, errors.Wrap(err, "list turns")
	}
	return turns, nil
}

func (r *NegotiationRepository) CountShopperTurns(ctx context.Context, negotiationID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM negotiation_turns WHERE negotiation_id = ? AND sender = ?`
	if err := r.db.GetContext(ctx, &count, query, negotiationID, model.SenderShopper); err != nil {
		return 0, errors.Wrap(err, "count shopper turns")
	}
	return count, nil
}

// Commit writes the negotiation's new state and appends turns in one transaction. The
// update only applies if the stored version still equals expectedVersion.
func (r *NegotiationRepository) Commit(ctx context.Context, n *model.Negotiation, expectedVersion int, turns ...model.Turn) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	query := `UPDATE negotiations
	          SET status = ?, current_offer = ?, final_price = ?, order_id = ?, version = version + 1, updated_at = ?
	          WHERE id = ? AND version = ?`
	res, err := tx.ExecContext(ctx, query, n.Status, n.CurrentOffer, n.FinalPrice, n.OrderID, n.UpdatedAt, n.ID, expectedVersion)
	if err != nil {
		return errors.Wrap(err, "update negotiation")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "update negotiation")
	}
	if affected == 0 {
		return errors.Wrapf(model.ErrConflict, "negotiation %s changed since version %d", n.ID, expectedVersion)
	}

	for i := range turns {
		if err := insertTurn(ctx, tx, &turns[i]); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit turn")
	}
	n.Version = expectedVersion + 1
	return nil
}

// ExpireIdle marks active negotiations untouched since before as expired.
func (r *NegotiationRepository) ExpireIdle(ctx context.Context, before time.Time) (int64, error) {
	query := `UPDATE negotiations SET status = ?, version = version + 1, updated_at = ? WHERE status = ? AND updated_at < ?`
	res, err := r.db.ExecContext(ctx, query, model.StatusExpired, time.Now().UTC(), model.StatusActive, before)
	if err != nil {
		return 0, errors.Wrap(err, "expire idle negotiations")
	}
	return res.RowsAffected()
}

func insertTurn(ctx context.Context, tx *sqlx.Tx, t *model.Turn) error {
	query := `INSERT INTO negotiation_turns (id, negotiation_id, sender, content, offer_amount, category, decision, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, query, t.ID, t.NegotiationID, t.Sender, t.Content, t.OfferAmount, t.Category, t.Decision, t.CreatedAt)
	return errors.Wrap(err, "insert turn")
}
