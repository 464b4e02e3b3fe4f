package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/sjperalta/sacco-api/internal/amortization"
	"github.com/sjperalta/sacco-api/internal/models"
	"github.com/sjperalta/sacco-api/internal/repository"
	"github.com/sjperalta/sacco-api/internal/storage"
	"github.com/sjperalta/sacco-api/pkg/logger"
	"github.com/xuri/excelize/v2"
)

// StatementStore persists generated documents
type StatementStore interface {
	Save(relativePath string, data []byte) error
	Download(relativePath string) (*os.File, error)
	Exists(relativePath string) bool
}

// ReportService renders ledger exports and loan statements
type ReportService struct {
	loanRepo repository.LoanRepository
	txnRepo  repository.TransactionRepository
	store    StatementStore
	now      func() time.Time
}

func NewReportService(
	loanRepo repository.LoanRepository,
	txnRepo repository.TransactionRepository,
	store StatementStore,
) *ReportService {
	return &ReportService{
		loanRepo: loanRepo,
		txnRepo:  txnRepo,
		store:    store,
		now:      time.Now,
	}
}

// TransactionsCSV exports every ledger entry matching the query filters,
// ignoring its paging
func (s *ReportService) TransactionsCSV(ctx context.Context, query *repository.ListQuery) ([]byte, string, error) {
	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)
	_ = writer.Write([]string{"ID", "Date", "Member ID", "Member", "Type", "Amount", "Loan ID", "Description"})

	page := *query
	page.Page = 1
	page.PerPage = 200
	for {
		txns, total, err := s.txnRepo.List(ctx, &page)
		if err != nil {
			return nil, "", err
		}
		for _, t := range txns {
			loanID := ""
			if t.LoanID != nil {
				loanID = strconv.FormatUint(uint64(*t.LoanID), 10)
			}
			description := ""
			if t.Description != nil {
				description = *t.Description
			}
			_ = writer.Write([]string{
				strconv.FormatUint(uint64(t.ID), 10),
				t.Timestamp.Format("2006-01-02 15:04"),
				strconv.FormatUint(uint64(t.MemberID), 10),
				t.Member.Name,
				t.Type,
				t.Amount.StringFixed(2),
				loanID,
				description,
			})
		}
		if len(txns) == 0 || int64(page.Page*page.PerPage) >= total {
			break
		}
		page.Page++
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("transactions_%s.csv", s.now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// LoanScheduleXLSX exports a loan's schedule and payment history as a workbook
func (s *ReportService) LoanScheduleXLSX(ctx context.Context, loanID uint) ([]byte, string, error) {
	loan, schedule, totals, err := s.loadStatement(ctx, loanID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	sheet := "Schedule"
	_ = f.SetSheetName("Sheet1", sheet)
	_ = f.SetCellValue(sheet, "A1", fmt.Sprintf("Loan %d: %s", loan.ID, loan.Member.Name))
	_ = f.SetCellValue(sheet, "A2", "Principal")
	_ = f.SetCellValue(sheet, "B2", models.Money(loan.Principal))
	_ = f.SetCellValue(sheet, "A3", "Monthly payment")
	_ = f.SetCellValue(sheet, "B3", models.Money(schedule.MonthlyPayment))
	_ = f.SetCellValue(sheet, "A4", "Total interest")
	_ = f.SetCellValue(sheet, "B4", models.Money(schedule.TotalInterest))

	headers := []string{"Period", "Due date", "Payment", "Principal", "Interest", "Cumulative paid", "Balance"}
	_ = f.SetSheetRow(sheet, "A6", &headers)
	_ = f.SetCellStyle(sheet, "A6", "G6", headerStyle)
	for i, e := range schedule.Entries {
		due := ""
		if e.DueDate != nil {
			due = e.DueDate.Format("2006-01-02")
		}
		row := []interface{}{
			e.Period, due,
			models.Money(e.Payment), models.Money(e.Principal), models.Money(e.Interest),
			models.Money(e.CumulativePaid), models.Money(e.RemainingBalance),
		}
		cell, _ := excelize.CoordinatesToCellName(1, 7+i)
		_ = f.SetSheetRow(sheet, cell, &row)
	}

	payments := "Payments"
	_, _ = f.NewSheet(payments)
	paymentHeaders := []string{"ID", "Date", "Amount"}
	_ = f.SetSheetRow(payments, "A1", &paymentHeaders)
	_ = f.SetCellStyle(payments, "A1", "C1", headerStyle)
	for i, p := range loan.Payments {
		row := []interface{}{p.ID, p.PaymentDate.Format("2006-01-02"), models.Money(p.Amount)}
		cell, _ := excelize.CoordinatesToCellName(1, 2+i)
		_ = f.SetSheetRow(payments, cell, &row)
	}
	last := len(loan.Payments) + 3
	_ = f.SetCellValue(payments, fmt.Sprintf("B%d", last), "Total paid")
	_ = f.SetCellValue(payments, fmt.Sprintf("C%d", last), models.Money(totals.TotalPaid))
	_ = f.SetCellValue(payments, fmt.Sprintf("B%d", last+1), "Remaining")
	_ = f.SetCellValue(payments, fmt.Sprintf("C%d", last+1), models.Money(totals.RemainingBalance))

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("loan_%d_schedule.xlsx", loan.ID)
	return buf.Bytes(), filename, nil
}

// LoanStatementPDF renders a loan statement with its payment history
func (s *ReportService) LoanStatementPDF(ctx context.Context, loanID uint) ([]byte, string, error) {
	loan, schedule, totals, err := s.loadStatement(ctx, loanID)
	if err != nil {
		return nil, "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, fmt.Sprintf("Loan Statement #%d", loan.ID))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	rows := [][2]string{
		{"Member:", loan.Member.Name},
		{"Phone:", loan.Member.Phone},
		{"Loan type:", loan.LoanType},
		{"Status:", loan.Status},
		{"Principal:", loan.Principal.StringFixed(2)},
		{"Annual rate:", loan.InterestRate.String() + "%"},
		{"Term:", fmt.Sprintf("%d months", loan.TermMonths)},
		{"Start date:", loan.StartDate.Format("2006-01-02")},
		{"Monthly payment:", schedule.MonthlyPayment.StringFixed(2)},
		{"Total paid:", totals.TotalPaid.StringFixed(2)},
		{"Remaining balance:", totals.RemainingBalance.StringFixed(2)},
	}
	for _, r := range rows {
		pdf.Cell(50, 6, r[0])
		pdf.Cell(60, 6, r[1])
		pdf.Ln(6)
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 10, "Payments")
	pdf.Ln(8)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(20, 7, "#", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 7, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 7, "Amount", "1", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	if len(loan.Payments) == 0 {
		pdf.CellFormat(100, 7, "No payments recorded", "1", 1, "C", false, 0, "")
	}
	for i, p := range loan.Payments {
		pdf.CellFormat(20, 7, strconv.Itoa(i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 7, p.PaymentDate.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 7, p.Amount.StringFixed(2), "1", 1, "R", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "I", 8)
	pdf.Cell(40, 6, "Generated "+s.now().Format("2006-01-02 15:04"))

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("loan_%d_statement.pdf", loan.ID)
	return buf.Bytes(), filename, nil
}

// ArchiveStatement renders the final statement of a loan and stores it
func (s *ReportService) ArchiveStatement(ctx context.Context, loanID uint) (string, error) {
	data, _, err := s.LoanStatementPDF(ctx, loanID)
	if err != nil {
		return "", err
	}
	path := storage.StatementPath(loanID)
	if err := s.store.Save(path, data); err != nil {
		return "", err
	}
	logger.Info("Loan statement archived", "loan_id", loanID, "path", path)
	return path, nil
}

// ArchivedStatement opens the stored statement of a loan
func (s *ReportService) ArchivedStatement(loanID uint) (*os.File, error) {
	path := storage.StatementPath(loanID)
	if !s.store.Exists(path) {
		return nil, fmt.Errorf("statement %w", ErrNotFound)
	}
	return s.store.Download(path)
}

func (s *ReportService) loadStatement(ctx context.Context, loanID uint) (*models.Loan, amortization.Schedule, amortization.Totals, error) {
	loan, err := s.loanRepo.FindByIDWithDetails(ctx, loanID)
	if err != nil {
		return nil, amortization.Schedule{}, amortization.Totals{}, notFound(err, "loan")
	}
	terms := loan.Terms()
	schedule, err := amortization.GenerateSchedule(terms)
	if err != nil {
		return nil, amortization.Schedule{}, amortization.Totals{}, err
	}
	return loan, schedule, amortization.Aggregate(terms, models.EnginePayments(loan.Payments)), nil
}
