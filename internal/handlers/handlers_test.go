package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/sacco-api/internal/config"
	"github.com/sjperalta/sacco-api/internal/database"
	"github.com/sjperalta/sacco-api/internal/jobs"
	"github.com/sjperalta/sacco-api/internal/messaging"
	"github.com/sjperalta/sacco-api/internal/repository"
	"github.com/sjperalta/sacco-api/internal/services"
	"github.com/sjperalta/sacco-api/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGatewayKey = "gw-key"

type testAPI struct {
	router  *gin.Engine
	admin   string
	officer string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenSQLite(":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	worker := jobs.NewWorker(1)
	t.Cleanup(func() {
		worker.Shutdown()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := &config.Config{JWTSecret: "test-secret", JWTExpirationHours: 1, WhatsAppAPIKey: testGatewayKey}
	svcs := services.NewServices(
		repository.NewRepositories(db),
		repository.NewScheduleCache("", 0),
		messaging.NewLogTransport(),
		worker,
		store,
		cfg,
		db,
	)

	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), NewHandlers(svcs, db), svcs.Auth, cfg.WhatsAppAPIKey)

	admin, _, err := svcs.Auth.IssueToken(1, "Ada", services.RoleAdmin, 0)
	require.NoError(t, err)
	officer, _, err := svcs.Auth.IssueToken(2, "Olive", services.RoleOfficer, 0)
	require.NoError(t, err)

	return &testAPI{router: router, admin: admin, officer: officer}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (a *testAPI) createMember(t *testing.T, name, phone string) uint {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/members", a.officer, gin.H{"member": gin.H{"name": name, "phone": phone}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	member := decode(t, w)["member"].(map[string]interface{})
	return uint(member["id"].(float64))
}

func (a *testAPI) createLoan(t *testing.T, memberID uint) uint {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/loans", a.officer, gin.H{
		"member_id":     memberID,
		"amount":        "1000",
		"interest_rate": "12",
		"loan_type":     "reducing",
		"term_months":   10,
		"start_date":    "2026-01-01T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	loan := decode(t, w)["loan"].(map[string]interface{})
	return uint(loan["id"].(float64))
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["database"])
}

func TestRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodGet, "/api/v1/members", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMembers(t *testing.T) {
	api := newTestAPI(t)
	id := api.createMember(t, "Alice Achieng", "0700000001")

	t.Run("duplicate phone", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/members", api.officer, gin.H{"name": "Other", "phone": "0700000001"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("missing body", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/members", api.officer, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing phone", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/members", api.officer, gin.H{"name": "No Phone"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("show", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/v1/members/1", api.officer, nil)
		require.Equal(t, http.StatusOK, w.Code)
		member := decode(t, w)["member"].(map[string]interface{})
		assert.Equal(t, "Alice Achieng", member["name"])
	})

	t.Run("bad id", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/v1/members/abc", api.officer, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/v1/members/999", api.officer, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("update", func(t *testing.T) {
		w := api.do(t, http.MethodPut, "/api/v1/members/1", api.officer, gin.H{"name": "Alice A."})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "Alice A.", decode(t, w)["member"].(map[string]interface{})["name"])
	})

	t.Run("list", func(t *testing.T) {
		api.createMember(t, "Brian Otieno", "0700000002")
		w := api.do(t, http.MethodGet, "/api/v1/members?search=brian", api.officer, nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Len(t, body["members"], 1)
		assert.EqualValues(t, 1, body["pagination"].(map[string]interface{})["total"])
	})

	t.Run("delete needs admin", func(t *testing.T) {
		w := api.do(t, http.MethodDelete, "/api/v1/members/1", api.officer, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("delete with loans refused", func(t *testing.T) {
		api.createLoan(t, id)
		w := api.do(t, http.MethodDelete, "/api/v1/members/1", api.admin, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestMembers_XML(t *testing.T) {
	api := newTestAPI(t)
	api.createMember(t, "Alice", "0700000001")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/members/1", nil)
	req.Header.Set("Authorization", "Bearer "+api.officer)
	req.Header.Set("Accept", "application/xml")
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/xml")
	assert.Contains(t, w.Body.String(), "Alice")
}

func TestTransactions(t *testing.T) {
	api := newTestAPI(t)
	memberID := api.createMember(t, "Alice", "0700000001")

	w := api.do(t, http.MethodPost, "/api/v1/transactions", api.officer, gin.H{
		"transaction": gin.H{"member_id": memberID, "amount": 500, "type": "deposit"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	t.Run("overdraw refused", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/transactions", api.officer, gin.H{"member_id": memberID, "amount": 600, "type": "withdrawal"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("loan entries are not manual", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/transactions", api.officer, gin.H{"member_id": memberID, "amount": 10, "type": "repayment"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("withdrawal within balance", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/transactions", api.officer, gin.H{"member_id": memberID, "amount": 200, "type": "withdrawal"})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("summary", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/v1/members/1/summary", api.officer, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.EqualValues(t, 300, decode(t, w)["savings_balance"])
	})

	t.Run("filter by type", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/v1/transactions?type=withdrawal", api.officer, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode(t, w)["transactions"], 1)
	})

	t.Run("csv export", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/v1/reports/transactions.csv", api.officer, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
		assert.Contains(t, w.Body.String(), "Alice")
	})
}

func TestContributions(t *testing.T) {
	api := newTestAPI(t)
	memberID := api.createMember(t, "Alice", "0700000001")

	w := api.do(t, http.MethodPost, "/api/v1/contributions", api.officer, gin.H{"member_id": memberID, "amount": "50", "reason": "welfare"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(t, http.MethodPost, "/api/v1/contributions", api.officer, gin.H{"member_id": memberID, "amount": "0"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/members/1/contributions", api.officer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	contributions := decode(t, w)["contributions"].([]interface{})
	require.Len(t, contributions, 1)
	assert.Equal(t, "welfare", contributions[0].(map[string]interface{})["reason"])
}

func TestLoanLifecycle(t *testing.T) {
	api := newTestAPI(t)
	memberID := api.createMember(t, "Alice", "0700000001")
	loanID := api.createLoan(t, memberID)
	require.EqualValues(t, 1, loanID)

	t.Run("unknown method rejected", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/loans", api.officer, gin.H{
			"member_id": memberID, "amount": "1000", "interest_rate": "12", "loan_type": "balloon", "term_months": 10,
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("term over fifty years rejected", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/loans", api.officer, gin.H{
			"member_id": memberID, "amount": "1000", "interest_rate": "12", "loan_type": "reducing", "term_months": 100000000,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("schedule", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/v1/loans/1/schedule", api.officer, nil)
		require.Equal(t, http.StatusOK, w.Code)
		schedule := decode(t, w)["schedule"].(map[string]interface{})
		assert.Len(t, schedule["schedule"], 10)
		assert.EqualValues(t, 105.58, schedule["monthly_payment"])
	})

	t.Run("officer cannot change status", func(t *testing.T) {
		w := api.do(t, http.MethodPut, "/api/v1/loans/1", api.officer, gin.H{"status": "defaulted"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("officer can change description", func(t *testing.T) {
		w := api.do(t, http.MethodPut, "/api/v1/loans/1", api.officer, gin.H{"description": "school fees"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "school fees", decode(t, w)["loan"].(map[string]interface{})["description"])
	})

	t.Run("unknown status", func(t *testing.T) {
		w := api.do(t, http.MethodPut, "/api/v1/loans/1", api.admin, gin.H{"status": "closed"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("zero payment rejected", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/loans/1/payments", api.officer, gin.H{"amount": 0})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("payments pay off once", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/loans/1/payments", api.officer, gin.H{"payment": gin.H{"amount": "400"}})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		receipt := decode(t, w)
		assert.Equal(t, false, receipt["just_paid_off"])
		assert.EqualValues(t, 600, receipt["remaining_balance"])

		w = api.do(t, http.MethodPost, "/api/v1/loans/1/payments", api.officer, gin.H{"amount": "600"})
		require.Equal(t, http.StatusCreated, w.Code)
		receipt = decode(t, w)
		assert.Equal(t, true, receipt["just_paid_off"])
		assert.Equal(t, "paid", receipt["loan_status"])

		w = api.do(t, http.MethodPost, "/api/v1/loans/1/payments", api.officer, gin.H{"amount": "10"})
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, false, decode(t, w)["just_paid_off"])
	})

	t.Run("show", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/v1/loans/1", api.officer, nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Len(t, body["payments"], 3)
		totals := body["totals"].(map[string]interface{})
		assert.EqualValues(t, 1010, totals["total_paid"])
		assert.Equal(t, true, totals["is_fully_paid"])
	})

	t.Run("final statement archived", func(t *testing.T) {
		require.Eventually(t, func() bool {
			w := api.do(t, http.MethodGet, "/api/v1/loans/1/statement/archived", api.officer, nil)
			return w.Code == http.StatusOK
		}, 5*time.Second, 50*time.Millisecond)
	})

	t.Run("exports", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/v1/loans/1/statement.pdf", api.officer, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

		w = api.do(t, http.MethodGet, "/api/v1/loans/1/schedule.xlsx", api.officer, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
	})

	t.Run("ledger has disbursement and repayments", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/v1/transactions?loan_id=1", api.officer, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode(t, w)["transactions"], 4)
	})

	t.Run("audit trail", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/v1/audits?entity=Loan&entity_id=1", api.officer, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = api.do(t, http.MethodGet, "/api/v1/audits?entity=Loan&entity_id=1", api.admin, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, decode(t, w)["audits"])
	})
}

func TestWhatsApp(t *testing.T) {
	api := newTestAPI(t)

	t.Run("qr not available", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/v1/whatsapp/qr", api.officer, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("webhook needs key", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/whatsapp/events", "", gin.H{"event": "qr", "qr": "2@abc"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("webhook qr then ready", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/whatsapp/events", bytes.NewBufferString(`{"event":"qr","qr":"2@abc"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Api-Key", testGatewayKey)
		w := httptest.NewRecorder()
		api.router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decode(t, w)["applied"])

		w = api.do(t, http.MethodGet, "/api/v1/whatsapp/qr", api.officer, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2@abc", decode(t, w)["qr_code"])

		req = httptest.NewRequest(http.MethodPost, "/api/v1/whatsapp/events", bytes.NewBufferString(`{"event":"ready"}`))
		req.Header.Set("X-Api-Key", testGatewayKey)
		w = httptest.NewRecorder()
		api.router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		w = api.do(t, http.MethodGet, "/api/v1/whatsapp/status", api.officer, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decode(t, w)["ready"])
	})

	t.Run("send to number", func(t *testing.T) {
		api.createMember(t, "Alice", "0700000001")
		w := api.do(t, http.MethodPost, "/api/v1/whatsapp/send", api.officer, gin.H{"number": "0700000001", "message": "hello"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		msg := decode(t, w)["message"].(map[string]interface{})
		assert.Equal(t, "0700000001@c.us", msg["recipient"])
		assert.Equal(t, "whatsapp", msg["channel"])
	})

	t.Run("invalid number", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/whatsapp/send", api.officer, gin.H{"number": "abc", "message": "hello"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("bulk needs admin", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/whatsapp/bulk", api.officer, gin.H{"message": "hi"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("bulk with no match", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/whatsapp/bulk", api.admin, gin.H{"filter": "nobody", "message": "hi"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bulk", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/whatsapp/bulk", api.admin, gin.H{"filter": "ali", "message": "AGM on Saturday"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decode(t, w)
		assert.EqualValues(t, 1, body["success"])
		assert.EqualValues(t, 0, body["failed"])
		assert.NotEmpty(t, body["batch_id"])
	})

	t.Run("message log", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/v1/members/1/messages", api.officer, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode(t, w)["messages"], 2)
	})
}

func TestLoanReminders(t *testing.T) {
	api := newTestAPI(t)

	t.Run("no active loans", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/loans/reminders", api.admin, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	memberID := api.createMember(t, "Alice", "0700000001")
	api.createLoan(t, memberID)

	t.Run("preview", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/v1/loans/1/reminder", api.officer, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, decode(t, w)["message"], "Alice")
	})

	t.Run("preview override", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/v1/loans/1/reminder?message=Pay+today", api.officer, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Pay today", decode(t, w)["message"])
	})

	t.Run("send", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/loans/reminders", api.admin, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decode(t, w)
		assert.EqualValues(t, 1, body["success"])
		details := body["success_details"].([]interface{})
		require.Len(t, details, 1)
		assert.EqualValues(t, 1, details[0].(map[string]interface{})["loan_id"])
	})

	t.Run("messages logged with batch", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/v1/messages?channel=whatsapp", api.officer, nil)
		require.Equal(t, http.StatusOK, w.Code)
		messages := decode(t, w)["messages"].([]interface{})
		require.Len(t, messages, 1)
		assert.NotEmpty(t, messages[0].(map[string]interface{})["batch_id"])
	})
}

func TestAuthEndpoints(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/api/v1/auth/me", api.officer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode(t, w)
	assert.Equal(t, "Olive", me["name"])
	assert.Equal(t, "officer", me["role"])

	w = api.do(t, http.MethodPost, "/api/v1/auth/refresh", api.officer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["token"])
}
