package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var paymentRow = []string{"id", "branch_id", "member_id", "subscription_id", "pt_subscription_id", "kind", "method", "amount_cents", "created_at"}

func setupMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { sqlxDB.Close() })
	return sqlxDB, mock
}

func TestRepository_RecordInTransaction(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewRepository(db)
	subID := 12

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO payments (branch_id, member_id, subscription_id, pt_subscription_id, kind, method, amount_cents)")).
		WithArgs(1, 5, 12, nil, KindRenewal, "upi", int64(120000)).
		WillReturnRows(sqlmock.NewRows(paymentRow).AddRow(7, 1, 5, 12, nil, KindRenewal, "upi", 120000, time.Now()))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	p, err := repo.Record(context.Background(), tx, Payment{
		BranchID: 1, MemberID: 5, SubscriptionID: &subID, Kind: KindRenewal, Method: "upi", AmountCents: 120000,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, 7, p.ID)
	assert.Nil(t, p.PTSubscriptionID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_RecordValidation(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewRepository(db)

	tests := []struct {
		name    string
		p       Payment
		wantErr error
	}{
		{"zero amount", Payment{Kind: KindPT, Method: "cash"}, ErrInvalidAmount},
		{"negative amount", Payment{Kind: KindPT, Method: "cash", AmountCents: -1}, ErrInvalidAmount},
		{"unknown method", Payment{Kind: KindPT, Method: "barter", AmountCents: 100}, ErrInvalidMethod},
		{"unknown kind", Payment{Kind: "refund", Method: "cash", AmountCents: 100}, ErrInvalidKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Record(context.Background(), db, tt.p)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListByBranchClampsLimit(t *testing.T) {
	db, mock := setupMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM payments WHERE branch_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3")).
		WithArgs(1, 50, 0).
		WillReturnRows(sqlmock.NewRows(paymentRow))

	payments, err := NewRepository(db).ListByBranch(context.Background(), 1, 10000, -5)
	require.NoError(t, err)
	assert.Empty(t, payments)
	assert.NotNil(t, payments)
}

func TestHandler_ListByMember(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock := setupMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM payments WHERE branch_id = $1 AND member_id = $2")).
		WithArgs(1, 5).
		WillReturnRows(sqlmock.NewRows(paymentRow).AddRow(7, 1, 5, nil, 3, KindPT, "cash", 300000, time.Now()))

	r := gin.New()
	r.GET("/branches/:branchID/members/:memberID/payments", NewHandler(NewRepository(db)).ListByMember)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/branches/1/members/5/payments", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"pt"`)
}
