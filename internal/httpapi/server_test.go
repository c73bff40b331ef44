package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanzas/internal/categories"
	"finanzas/internal/core"
	"finanzas/internal/errs"
	"finanzas/internal/reports"
)

// fakeBackend implements every service surface the server depends on.
type fakeBackend struct {
	categoryList []string

	created   []string
	createErr error

	renameResult categories.RenameResult
	renameErr    error

	deleteResult categories.DeleteResult
	deleteErr    error

	balance    decimal.Decimal
	balanceErr error
	trends     []reports.CategoryTrend
	trendsErr  error
	diagnostic reports.Diagnostic
	statement  *reports.Statement

	added      []core.Transaction
	addErr     error
	latest     []core.Transaction
	latestErr  error
	published  []string
	publishErr error
}

func (f *fakeBackend) List(ctx context.Context, userID string) []string {
	return f.categoryList
}

func (f *fakeBackend) Create(ctx context.Context, userID, rawName string) (core.Category, error) {
	if f.createErr != nil {
		return core.Category{}, f.createErr
	}
	name := core.NormalizeCategory(rawName)
	f.created = append(f.created, name)
	return core.Category{ID: "cat-1", UserID: userID, Name: name, CreatedAt: time.Now()}, nil
}

func (f *fakeBackend) Rename(ctx context.Context, userID, oldRaw, newRaw string) (categories.RenameResult, error) {
	if f.renameErr != nil {
		return categories.RenameResult{}, f.renameErr
	}
	return f.renameResult, nil
}

func (f *fakeBackend) Delete(ctx context.Context, userID, rawName string) (categories.DeleteResult, error) {
	if f.deleteErr != nil {
		return categories.DeleteResult{}, f.deleteErr
	}
	return f.deleteResult, nil
}

func (f *fakeBackend) CurrentBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	return f.balance, f.balanceErr
}

func (f *fakeBackend) MonthlyTrend(ctx context.Context, userID string) ([]reports.CategoryTrend, error) {
	return f.trends, f.trendsErr
}

func (f *fakeBackend) MostProblematic(ctx context.Context, userID string) reports.Diagnostic {
	return f.diagnostic
}

func (f *fakeBackend) BuildStatement(ctx context.Context, userID string) (*reports.Statement, error) {
	if f.statement == nil {
		return &reports.Statement{UserID: userID}, nil
	}
	return f.statement, nil
}

func (f *fakeBackend) TransactionsByUser(ctx context.Context, userID string) ([]core.Transaction, error) {
	return f.added, nil
}

func (f *fakeBackend) LatestTransactions(ctx context.Context, userID string, limit int) ([]core.Transaction, error) {
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	if len(f.latest) > limit {
		return f.latest[:limit], nil
	}
	return f.latest, nil
}

func (f *fakeBackend) ExpensesSince(ctx context.Context, userID string, since time.Time) ([]core.Transaction, error) {
	return nil, nil
}

func (f *fakeBackend) AddTransaction(ctx context.Context, t core.Transaction) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, t)
	return nil
}

func (f *fakeBackend) TransactionByID(ctx context.Context, id string) (*core.Transaction, error) {
	return nil, nil
}

func (f *fakeBackend) ReassignTransactions(ctx context.Context, userID, from, to string) (int64, error) {
	return 0, nil
}

func (f *fakeBackend) PublishTransactionCreated(ctx context.Context, id, userID string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, id)
	return nil
}

type fakeRenderer struct{}

func (fakeRenderer) Render(s *reports.Statement) ([]byte, error) {
	return []byte("%PDF-1.4 test"), nil
}

func newTestServer(fb *fakeBackend) *Server {
	return NewServer("127.0.0.1:0", Deps{
		Categories: fb,
		Mutations:  fb,
		Reports:    fb,
		Statements: fb,
		Renderer:   fakeRenderer{},
		TxReader:   fb,
		TxWriter:   fb,
		Publisher:  fb,
	})
}

func doRequest(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestRootAndProbes(t *testing.T) {
	s := newTestServer(&fakeBackend{})

	rec := doRequest(t, s, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "finanzas")

	rec = doRequest(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListCategories(t *testing.T) {
	fb := &fakeBackend{categoryList: []string{"Comida", "Renta", "Otros"}}
	s := newTestServer(fb)

	rec := doRequest(t, s, http.MethodGet, "/api/categories/u1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Categories []string `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"Comida", "Renta", "Otros"}, body.Categories)
}

func TestCreateCategory(t *testing.T) {
	fb := &fakeBackend{}
	s := newTestServer(fb)

	rec := doRequest(t, s, http.MethodPost, "/api/categories/u1", `{"category_name": " viajes "}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"Viajes"}, fb.created)
	assert.Contains(t, rec.Body.String(), "Viajes")
}

func TestCreateCategoryConflict(t *testing.T) {
	fb := &fakeBackend{createErr: errs.NewConflictError("category 'Comida' already exists")}
	s := newTestServer(fb)

	rec := doRequest(t, s, http.MethodPost, "/api/categories/u1", `{"category_name": "comida"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already exists")
}

func TestCreateCategoryInvalidBody(t *testing.T) {
	s := newTestServer(&fakeBackend{})

	rec := doRequest(t, s, http.MethodPost, "/api/categories/u1", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRenameCategory(t *testing.T) {
	fb := &fakeBackend{renameResult: categories.RenameResult{OldName: "Viajes", NewName: "Vacaciones", Reassigned: 4}}
	s := newTestServer(fb)

	rec := doRequest(t, s, http.MethodPut, "/api/categories/u1?old_name=Viajes", `{"new_name": "Vacaciones"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Vacaciones", body["new_name"])
	assert.Equal(t, float64(4), body["updated_transactions"])
}

func TestDeleteCategoryForbidden(t *testing.T) {
	fb := &fakeBackend{deleteErr: errs.NewForbiddenError("category 'Comida' is a default category and cannot be deleted")}
	s := newTestServer(fb)

	rec := doRequest(t, s, http.MethodDelete, "/api/categories/u1?name=Comida", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteCategoryNotFound(t *testing.T) {
	fb := &fakeBackend{deleteErr: errs.NewNotFoundError("category 'Fantasma' not found among custom categories")}
	s := newTestServer(fb)

	rec := doRequest(t, s, http.MethodDelete, "/api/categories/u1?name=Fantasma", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteCategory(t *testing.T) {
	fb := &fakeBackend{deleteResult: categories.DeleteResult{Deleted: 1, Reassigned: 3}}
	s := newTestServer(fb)

	rec := doRequest(t, s, http.MethodDelete, "/api/categories/u1?name=Viajes", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["deleted_count"])
	assert.Equal(t, float64(3), body["reassigned_transactions"])
}

func TestCreateTransaction(t *testing.T) {
	fb := &fakeBackend{}
	s := newTestServer(fb)

	rec := doRequest(t, s, http.MethodPost, "/api/transactions/u1",
		`{"type": "expense", "amount": 120.50, "category": " comida ", "description": "tacos", "date": "2024-03-05"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, fb.added, 1)
	tx := fb.added[0]
	assert.Equal(t, "u1", tx.UserID)
	assert.Equal(t, core.Expense, tx.Type)
	assert.Equal(t, "Comida", tx.Category)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("120.50")))
	assert.Equal(t, []string{tx.ID}, fb.published)
}

func TestCreateTransactionMissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "missing type", body: `{"amount": 1, "category": "Comida", "description": "x", "date": "2024-03-05"}`, want: "type"},
		{name: "missing amount", body: `{"type": "expense", "category": "Comida", "description": "x", "date": "2024-03-05"}`, want: "amount"},
		{name: "missing category", body: `{"type": "expense", "amount": 1, "description": "x", "date": "2024-03-05"}`, want: "category"},
		{name: "missing description", body: `{"type": "expense", "amount": 1, "category": "Comida", "date": "2024-03-05"}`, want: "description"},
		{name: "missing date", body: `{"type": "expense", "amount": 1, "category": "Comida", "description": "x"}`, want: "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := &fakeBackend{}
			s := newTestServer(fb)

			rec := doRequest(t, s, http.MethodPost, "/api/transactions/u1", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
			assert.Empty(t, fb.added, "nothing may be persisted on invalid input")
			assert.Empty(t, fb.published)
		})
	}
}

func TestCreateTransactionInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "bad date", body: `{"type": "expense", "amount": 1, "category": "Comida", "description": "x", "date": "05/03/2024"}`},
		{name: "bad type", body: `{"type": "transfer", "amount": 1, "category": "Comida", "description": "x", "date": "2024-03-05"}`},
		{name: "negative amount", body: `{"type": "expense", "amount": -5, "category": "Comida", "description": "x", "date": "2024-03-05"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := &fakeBackend{}
			s := newTestServer(fb)

			rec := doRequest(t, s, http.MethodPost, "/api/transactions/u1", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, fb.added)
		})
	}
}

func TestCreateTransactionPublishFailureStillSucceeds(t *testing.T) {
	fb := &fakeBackend{publishErr: errors.New("broker down")}
	s := newTestServer(fb)

	rec := doRequest(t, s, http.MethodPost, "/api/transactions/u1",
		`{"type": "income", "amount": 500, "category": "Otros", "description": "salario", "date": "2024-03-01"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, fb.added, 1)
}

func TestLatestTransactions(t *testing.T) {
	fb := &fakeBackend{latest: []core.Transaction{
		{ID: "a", Type: core.Expense, Amount: decimal.NewFromInt(10), Category: "Comida", Date: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
		{ID: "b", Type: core.Income, Amount: decimal.NewFromInt(20), Category: "Otros", Date: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)},
	}}
	s := newTestServer(fb)

	rec := doRequest(t, s, http.MethodGet, "/api/transactions/u1/latest?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Transactions []transactionPayload `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Transactions, 1)
	assert.Equal(t, "a", body.Transactions[0].ID)
	assert.Equal(t, "2024-03-10", body.Transactions[0].Date)
}

func TestLatestTransactionsBadLimit(t *testing.T) {
	s := newTestServer(&fakeBackend{})

	rec := doRequest(t, s, http.MethodGet, "/api/transactions/u1/latest?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBalance(t *testing.T) {
	fb := &fakeBackend{balance: decimal.NewFromInt(300)}
	s := newTestServer(fb)

	rec := doRequest(t, s, http.MethodGet, "/api/balance/u1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(300), body["current_balance"])
}

func TestBalanceStorageError(t *testing.T) {
	fb := &fakeBackend{balanceErr: errors.New("store unreachable")}
	s := newTestServer(fb)

	rec := doRequest(t, s, http.MethodGet, "/api/balance/u1", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
	assert.NotContains(t, rec.Body.String(), "unreachable")
}

func TestProblematicCategory(t *testing.T) {
	fb := &fakeBackend{diagnostic: reports.Diagnostic{
		Category:     "Comida",
		CurrentSpend: 600,
		GoalAmount:   500,
		ExceedsGoal:  true,
	}}
	s := newTestServer(fb)

	rec := doRequest(t, s, http.MethodGet, "/api/reports/problematic_category/u1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got reports.Diagnostic
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, fb.diagnostic, got)
}

func TestMonthlyReport(t *testing.T) {
	fb := &fakeBackend{trends: []reports.CategoryTrend{{
		CategoryName: "Comida",
		TotalAmount:  100,
		MonthlyTrend: []float64{0, 100},
		Type:         core.Expense,
	}}}
	s := newTestServer(fb)

	rec := doRequest(t, s, http.MethodGet, "/api/reports/monthly?user_id=u1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []reports.CategoryTrend
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, []float64{0, 100}, got[0].MonthlyTrend)
}

func TestMonthlyReportRequiresUserID(t *testing.T) {
	s := newTestServer(&fakeBackend{})

	rec := doRequest(t, s, http.MethodGet, "/api/reports/monthly", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadReport(t *testing.T) {
	s := newTestServer(&fakeBackend{})

	rec := doRequest(t, s, http.MethodGet, "/api/reports/download?user_id=u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(&fakeBackend{})

	rec := doRequest(t, s, http.MethodGet, "/api/balance/u1", "")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < maxPerMinute; i++ {
		assert.True(t, rl.allow("1.2.3.4"), "request %d should pass", i)
	}
	assert.False(t, rl.allow("1.2.3.4"), "request past the limit should be rejected")
	assert.True(t, rl.allow("5.6.7.8"), "other clients are unaffected")
}
