package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/sacco-api/internal/middleware"
	"github.com/sjperalta/sacco-api/internal/models"
	"github.com/sjperalta/sacco-api/internal/services"
)

type LoanHandler struct {
	loanService    *services.LoanService
	messageService *services.MessageService
	reportService  *services.ReportService
}

func NewLoanHandler(loanSvc *services.LoanService, messageSvc *services.MessageService, reportSvc *services.ReportService) *LoanHandler {
	return &LoanHandler{
		loanService:    loanSvc,
		messageService: messageSvc,
		reportService:  reportSvc,
	}
}

type createLoanRequest struct {
	MemberID     uint            `json:"member_id" binding:"required"`
	Amount       decimal.Decimal `json:"amount"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	LoanType     string          `json:"loan_type" binding:"required"`
	TermMonths   int             `json:"term_months" binding:"required,min=1,max=600"`
	StartDate    *time.Time      `json:"start_date"`
	Description  *string         `json:"description"`
}

type updateLoanRequest struct {
	Status      *string `json:"status"`
	Description *string `json:"description"`
}

type paymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate *time.Time      `json:"payment_date"`
}

type remindersRequest struct {
	Message string `json:"message"`
	LoanIDs []uint `json:"loan_ids"`
}

// @Summary List Loans
// @Description Loans with their member, newest first
// @Tags Loans
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "active, paid, defaulted or restructured"
// @Param member_id query int false "Member ID"
// @Param loan_type query string false "fixed or reducing"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /loans [get]
func (h *LoanHandler) Index(c *gin.Context) {
	query := listQuery(c, "status", "member_id", "loan_type")
	loans, total, err := h.loanService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.LoanResponse, 0, len(loans))
	for i := range loans {
		responses = append(responses, loans[i].ToResponse())
	}
	respond(c, http.StatusOK, gin.H{
		"loans":      responses,
		"pagination": pagination(query, total),
	})
}

// @Summary Get Loan
// @Description Loan with member, payments, total paid and remaining balance
// @Tags Loans
// @Produce json
// @Param id path int true "Loan ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{id} [get]
func (h *LoanHandler) Show(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	detail, err := h.loanService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"loan":     detail.Loan.ToResponse(),
		"payments": paymentResponses(detail.Loan.Payments),
		"totals":   models.NewLoanTotalsResponse(detail.Totals),
	})
}

// @Summary Create Loan
// @Description Originate a loan and record its disbursement
// @Tags Loans
// @Accept json
// @Produce json
// @Param loan body createLoanRequest true "Loan terms"
// @Success 201 {object} models.LoanResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /loans [post]
func (h *LoanHandler) Create(c *gin.Context) {
	var req createLoanRequest
	if err := bindRequest(c, "loan", &req); err != nil {
		badRequest(c, err)
		return
	}

	in := services.CreateLoanInput{
		MemberID:     req.MemberID,
		Amount:       req.Amount,
		InterestRate: req.InterestRate,
		LoanType:     req.LoanType,
		TermMonths:   req.TermMonths,
		Description:  req.Description,
	}
	if req.StartDate != nil {
		in.StartDate = req.StartDate.UTC()
	}
	loan, err := h.loanService.Create(c.Request.Context(), middleware.Actor(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"loan": loan.ToResponse()})
}

// @Summary Update Loan
// @Description Change the description or move the status through the loan lifecycle
// @Tags Loans
// @Accept json
// @Produce json
// @Param id path int true "Loan ID"
// @Param loan body updateLoanRequest true "Fields to change"
// @Success 200 {object} models.LoanResponse
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{id} [put]
func (h *LoanHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req updateLoanRequest
	if err := bindRequest(c, "loan", &req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Status != nil && !models.IsValidLoanStatus(*req.Status) {
		respond(c, http.StatusBadRequest, gin.H{"error": "invalid status " + strconv.Quote(*req.Status)})
		return
	}
	// Status changes are reserved to admins
	if req.Status != nil && !middleware.IsAdmin(c) {
		respond(c, http.StatusForbidden, gin.H{"error": "only admins can change the loan status"})
		return
	}

	loan, err := h.loanService.Update(c.Request.Context(), middleware.Actor(c), id, services.UpdateLoanInput{
		Status:      req.Status,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"loan": loan.ToResponse()})
}

// @Summary Record Payment
// @Description Append a payment; the loan moves to paid the first time it is fully repaid
// @Tags Loans
// @Accept json
// @Produce json
// @Param id path int true "Loan ID"
// @Param payment body paymentRequest true "Payment"
// @Success 201 {object} models.PaymentReceipt
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{id}/payments [post]
func (h *LoanHandler) RecordPayment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req paymentRequest
	if err := bindRequest(c, "payment", &req); err != nil {
		badRequest(c, err)
		return
	}

	var paidAt time.Time
	if req.PaymentDate != nil {
		paidAt = req.PaymentDate.UTC()
	}
	result, err := h.loanService.RecordPayment(c.Request.Context(), middleware.Actor(c), id, req.Amount, paidAt)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, result.Receipt())
}

// @Summary Loan Schedule
// @Description Projected repayment schedule next to the actual payments
// @Tags Loans
// @Produce json
// @Param id path int true "Loan ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /loans/{id}/schedule [get]
func (h *LoanHandler) Schedule(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	view, err := h.loanService.Schedule(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"loan":     view.Loan.ToResponse(),
		"schedule": models.NewScheduleResponse(view.Schedule),
		"payments": paymentResponses(view.Loan.Payments),
		"totals":   models.NewLoanTotalsResponse(view.Totals),
	})
}

// @Summary Loan Statement PDF
// @Tags Reports
// @Produce application/pdf
// @Param id path int true "Loan ID"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /loans/{id}/statement.pdf [get]
func (h *LoanHandler) StatementPDF(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	data, filename, err := h.reportService.LoanStatementPDF(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	attachment(c, "application/pdf", filename, data)
}

// @Summary Loan Schedule XLSX
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path int true "Loan ID"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /loans/{id}/schedule.xlsx [get]
func (h *LoanHandler) ScheduleXLSX(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	data, filename, err := h.reportService.LoanScheduleXLSX(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	attachment(c, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", filename, data)
}

// @Summary Archived Final Statement
// @Description The statement archived when the loan was paid off
// @Tags Reports
// @Produce application/pdf
// @Param id path int true "Loan ID"
// @Success 200 {file} file
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{id}/statement/archived [get]
func (h *LoanHandler) ArchivedStatement(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	f, err := h.reportService.ArchivedStatement(id)
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		respondError(c, err)
		return
	}
	attachment(c, "application/pdf", "loan-"+strconv.FormatUint(uint64(id), 10)+"-final-statement.pdf", data)
}

// @Summary Send Loan Reminders
// @Description Send a reminder to every active loan, or to the listed loans. A message replaces the composed text.
// @Tags WhatsApp
// @Accept json
// @Produce json
// @Param body body remindersRequest false "Override and loan filter"
// @Success 200 {object} messaging.BatchResult
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /loans/reminders [post]
func (h *LoanHandler) Reminders(c *gin.Context) {
	var req remindersRequest
	if err := bindRequest(c, "", &req); err != nil && !errors.Is(err, ErrEmptyBody) {
		badRequest(c, err)
		return
	}

	result, err := h.messageService.SendLoanReminders(c.Request.Context(), middleware.Actor(c), req.Message, req.LoanIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, batchResponse(result))
}

// @Summary Preview Loan Reminder
// @Tags WhatsApp
// @Produce json
// @Param id path int true "Loan ID"
// @Param message query string false "Override text"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{id}/reminder [get]
func (h *LoanHandler) ReminderPreview(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	text, err := h.messageService.PreviewReminder(c.Request.Context(), id, c.Query("message"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"loan_id": id, "message": text})
}

func paymentResponses(payments []models.LoanPayment) []models.LoanPaymentResponse {
	out := make([]models.LoanPaymentResponse, 0, len(payments))
	for i := range payments {
		out = append(out, payments[i].ToResponse())
	}
	return out
}
