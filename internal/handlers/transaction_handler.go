package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/sacco-api/internal/middleware"
	"github.com/sjperalta/sacco-api/internal/models"
	"github.com/sjperalta/sacco-api/internal/services"
)

// transactionFilters are the query parameters the ledger can be filtered by
var transactionFilters = []string{"member_id", "loan_id", "type", "from", "to"}

type TransactionHandler struct {
	transactionService *services.TransactionService
	reportService      *services.ReportService
}

func NewTransactionHandler(transactionSvc *services.TransactionService, reportSvc *services.ReportService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionSvc,
		reportService:      reportSvc,
	}
}

type createTransactionRequest struct {
	MemberID    uint            `json:"member_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type" binding:"required,oneof=deposit withdrawal"`
	Description *string         `json:"description"`
	Timestamp   *time.Time      `json:"timestamp"`
}

// @Summary List Transactions
// @Tags Transactions
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param member_id query int false "Member ID"
// @Param loan_id query int false "Loan ID"
// @Param type query string false "deposit, withdrawal, loan or repayment"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /transactions [get]
func (h *TransactionHandler) Index(c *gin.Context) {
	query := listQuery(c, transactionFilters...)
	txns, total, err := h.transactionService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.TransactionResponse, 0, len(txns))
	for i := range txns {
		responses = append(responses, txns[i].ToResponse())
	}
	respond(c, http.StatusOK, gin.H{
		"transactions": responses,
		"pagination":   pagination(query, total),
	})
}

// @Summary Get Transaction
// @Tags Transactions
// @Produce json
// @Param id path int true "Transaction ID"
// @Success 200 {object} models.TransactionResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /transactions/{id} [get]
func (h *TransactionHandler) Show(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	txn, err := h.transactionService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"transaction": txn.ToResponse()})
}

// @Summary Record Transaction
// @Description Record a deposit or withdrawal. Withdrawals may not exceed the savings balance.
// @Tags Transactions
// @Accept json
// @Produce json
// @Param transaction body createTransactionRequest true "Transaction"
// @Success 201 {object} models.TransactionResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	var req createTransactionRequest
	if err := bindRequest(c, "transaction", &req); err != nil {
		badRequest(c, err)
		return
	}

	txn := &models.Transaction{
		MemberID:    req.MemberID,
		Amount:      req.Amount,
		Type:        req.Type,
		Description: req.Description,
	}
	if req.Timestamp != nil {
		txn.Timestamp = req.Timestamp.UTC()
	}
	if err := h.transactionService.Create(c.Request.Context(), middleware.Actor(c), txn); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"transaction": txn.ToResponse()})
}

// @Summary Export Transactions
// @Description Download the filtered ledger as CSV
// @Tags Reports
// @Produce text/csv
// @Param member_id query int false "Member ID"
// @Param type query string false "Transaction type"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /reports/transactions.csv [get]
func (h *TransactionHandler) ExportCSV(c *gin.Context) {
	query := listQuery(c, transactionFilters...)
	data, filename, err := h.reportService.TransactionsCSV(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	attachment(c, "text/csv", filename, data)
}
