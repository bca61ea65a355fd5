package trainer

import (
	"bytes"
	"context"
	"database/sql"
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

var trainerRow = []string{"id", "branch_id", "name", "phone", "monthly_fee_cents", "active", "created_at"}

func setupService(t *testing.T) (Service, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewService(NewRepository(sqlx.NewDb(db, "sqlmock"))), mock
}

func TestService_Create(t *testing.T) {
	svc, mock := setupService(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO trainers (branch_id, name, phone, monthly_fee_cents)")).
		WithArgs(2, "Ravi", "9830000000", int64(150000)).
		WillReturnRows(sqlmock.NewRows(trainerRow).AddRow(1, 2, "Ravi", "9830000000", 150000, true, time.Now()))

	tr, err := svc.Create(context.Background(), 2, CreateTrainerRequest{Name: " Ravi ", Phone: "9830000000", MonthlyFeeCents: 150000})
	require.NoError(t, err)
	assert.Equal(t, int64(150000), tr.MonthlyFeeCents)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestService_CreateRejectsFee(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Create(context.Background(), 2, CreateTrainerRequest{Name: "Ravi"})
	assert.ErrorIs(t, err, ErrInvalidFee)
}

func TestService_Get(t *testing.T) {
	tests := []struct {
		name      string
		branchID  int
		rowBranch int
		active    bool
		wantErr   error
	}{
		{"same branch", 2, 2, true, nil},
		{"other branch", 3, 2, true, ErrTrainerNotFound},
		{"inactive", 2, 2, false, ErrTrainerNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock := setupService(t)
			mock.ExpectQuery(regexp.QuoteMeta("FROM trainers WHERE id = $1")).
				WithArgs(1).
				WillReturnRows(sqlmock.NewRows(trainerRow).AddRow(1, tt.rowBranch, "Ravi", "", 150000, tt.active, time.Now()))

			tr, err := svc.Get(context.Background(), tt.branchID, 1)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Ravi", tr.Name)
		})
	}
}

func TestService_GetMissing(t *testing.T) {
	svc, mock := setupService(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM trainers WHERE id = $1")).WithArgs(5).WillReturnError(sql.ErrNoRows)

	_, err := svc.Get(context.Background(), 2, 5)
	assert.ErrorIs(t, err, ErrTrainerNotFound)
}

func TestHandler_List(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, mock := setupService(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM trainers WHERE branch_id = $1 AND active ORDER BY name")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(trainerRow).AddRow(1, 2, "Ravi", "", 150000, true, time.Now()))

	h := NewHandler(svc)
	r := gin.New()
	r.GET("/branches/:branchID/trainers", h.List)
	r.POST("/admin/branches/:branchID/trainers", h.Create)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/branches/2/trainers", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ravi")

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/branches/2/trainers", bytes.NewBufferString(`{"name":"Ravi"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
