package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	db *gorm.DB

	Member       MemberRepository
	Transaction  TransactionRepository
	Contribution ContributionRepository
	Loan         LoanRepository
	LoanPayment  LoanPaymentRepository
	Message      MessageRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:           db,
		Member:       NewMemberRepository(db),
		Transaction:  NewTransactionRepository(db),
		Contribution: NewContributionRepository(db),
		Loan:         NewLoanRepository(db),
		LoanPayment:  NewLoanPaymentRepository(db),
		Message:      NewMessageRepository(db),
	}
}

// Transactor runs a unit of work against repositories bound to one
// database transaction
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(tx *Repositories) error) error
}

// WithTransaction runs fn inside a database transaction. Returning an error
// from fn rolls everything back.
func (r *Repositories) WithTransaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// ListQuery represents common query parameters for listing
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	SortBy  string
	SortDir string
	Filters map[string]string
}

// NewListQuery creates a ListQuery with defaults
func NewListQuery() *ListQuery {
	return &ListQuery{
		Page:    1,
		PerPage: 20,
		Filters: make(map[string]string),
	}
}

// Offset returns the row offset for the current page
func (q *ListQuery) Offset() int {
	if q.Page < 1 {
		q.Page = 1
	}
	return (q.Page - 1) * q.Limit()
}

// Limit returns the page size, clamped to a sane range
func (q *ListQuery) Limit() int {
	if q.PerPage < 1 {
		q.PerPage = 20
	}
	if q.PerPage > 200 {
		q.PerPage = 200
	}
	return q.PerPage
}

// paginate applies ordering and pagination; sortable maps API sort keys to columns
func paginate(db *gorm.DB, query *ListQuery, sortable map[string]string, defaultOrder string) *gorm.DB {
	order := defaultOrder
	if col, ok := sortable[query.SortBy]; ok {
		order = col
		if query.SortDir == "desc" {
			order += " DESC"
		}
	}
	return db.Order(order).Offset(query.Offset()).Limit(query.Limit())
}

// likePattern wraps a search term for a case-insensitive LIKE
func likePattern(term string) string {
	return "%" + term + "%"
}
