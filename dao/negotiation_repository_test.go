package dao

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"negotiation-backend/model"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "mysql"), mock
}

func TestProductRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "description", "original_price", "floor_price", "inventory"}).
		AddRow("p1", "Lamp", "brass", "200.00", "150.00", 20)
	mock.ExpectQuery(regexp.QuoteMeta("FROM products")).WithArgs("p1").WillReturnRows(rows)

	p, err := repo.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, p.OriginalPrice.Equal(decimal.NewFromInt(200)))
	assert.True(t, p.FloorPrice.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, 20, p.Inventory)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM products")).WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestNegotiationRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNegotiationRepository(db)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "product_id", "status", "current_offer", "final_price", "order_id", "version", "created_at", "updated_at"}).
		AddRow("n1", "p1", "active", "194.00", nil, nil, 3, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM negotiations")).WithArgs("n1").WillReturnRows(rows)

	n, err := repo.GetByID(context.Background(), "n1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, n.Status)
	assert.True(t, n.CurrentOffer.Valid)
	assert.Equal(t, "194", n.CurrentOffer.Decimal.String())
	assert.False(t, n.FinalPrice.Valid)
	assert.Nil(t, n.OrderID)
	assert.Equal(t, 3, n.Version)
}

func TestNegotiationRepository_Commit(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNegotiationRepository(db)
	now := time.Now().UTC()
	n := model.NewNegotiation("n1", "p1", now)
	n.CurrentOffer = decimal.NewNullDecimal(decimal.NewFromInt(194))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE negotiations")).
		WithArgs(n.Status, n.CurrentOffer, n.FinalPrice, n.OrderID, n.UpdatedAt, "n1", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO negotiation_turns")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO negotiation_turns")).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err := repo.Commit(context.Background(), n, 1,
		model.Turn{ID: "t1", NegotiationID: "n1", Sender: model.SenderShopper, CreatedAt: now},
		model.Turn{ID: "t2", NegotiationID: "n1", Sender: model.SenderEngine, CreatedAt: now},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, n.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNegotiationRepository_CommitConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNegotiationRepository(db)
	n := model.NewNegotiation("n1", "p1", time.Now().UTC())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE negotiations")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Commit(context.Background(), n, 1, model.Turn{ID: "t1"})
	assert.ErrorIs(t, err, model.ErrConflict)
	assert.Equal(t, 1, n.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNegotiationRepository_CountShopperTurns(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNegotiationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM negotiation_turns")).
		WithArgs("n1", model.SenderShopper).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountShopperTurns(context.Background(), "n1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNegotiationRepository_ExpireIdle(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNegotiationRepository(db)
	before := time.Now().UTC().Add(-time.Hour)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE negotiations SET status = ?")).
		WithArgs(model.StatusExpired, sqlmock.AnyArg(), model.StatusActive, before).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.ExpireIdle(context.Background(), before)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
}
