package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/credit-service/internal/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrConflict marks a transaction Postgres aborted on a serialization
	// failure or deadlock. The whole unit of work can be retried.
	ErrConflict = errors.New("transaction conflict")
)

// Postgres SQLSTATE codes
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

const customerColumns = `customer_id, first_name, last_name, age, phone_number,
		monthly_salary, approved_limit, current_debt, total_current_emi`

const loanColumns = `loan_id, customer_id, loan_amount, tenure, interest_rate,
		monthly_installment, emis_paid_on_time, start_date, end_date, created_at`

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateCustomer inserts a customer with zero debt and fills in its ID
func (r *Repository) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	query := `
		INSERT INTO credit.customers (first_name, last_name, age, phone_number,
			monthly_salary, approved_limit, current_debt, total_current_emi)
		VALUES ($1, $2, $3, $4, $5, $6, 0, 0)
		RETURNING customer_id`
	err := r.db.QueryRowContext(ctx, query,
		customer.FirstName, customer.LastName, customer.Age, customer.PhoneNumber,
		customer.MonthlySalary, customer.ApprovedLimit,
	).Scan(&customer.ID)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", classify(err))
	}
	customer.CurrentDebt = decimal.Zero
	customer.TotalCurrentEMI = decimal.Zero
	return nil
}

// FindCustomerByID retrieves a customer by ID
func (r *Repository) FindCustomerByID(ctx context.Context, id int64) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM credit.customers WHERE customer_id = $1`
	return findCustomer(ctx, r.db, query, id)
}

// FindLoansByCustomer retrieves every loan on record for a customer
func (r *Repository) FindLoansByCustomer(ctx context.Context, customerID int64) ([]models.Loan, error) {
	return findLoans(ctx, r.db, customerID)
}

// FindLoanByID retrieves a loan by ID
func (r *Repository) FindLoanByID(ctx context.Context, id int64) (*models.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM credit.loans WHERE loan_id = $1`
	loan, err := scanLoan(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("loan %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find loan: %w", err)
	}
	return loan, nil
}

// CustomerTx is a customer row held under lock for the length of a transaction
type CustomerTx interface {
	// Customer is the locked row as read at the start of the transaction and
	// kept in step with every CommitLoan since.
	Customer() *models.Customer
	// Loans reads the customer's loan history inside the transaction
	Loans(ctx context.Context) ([]models.Loan, error)
	// CommitLoan stores a new loan and adds its amount and installment to the
	// customer's aggregates
	CommitLoan(ctx context.Context, loan *models.Loan) error
}

// WithCustomerLock runs fn in a transaction holding the customer's row lock.
// The transaction commits when fn returns nil and rolls back otherwise.
func (r *Repository) WithCustomerLock(ctx context.Context, customerID int64, fn func(tx CustomerTx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", classify(err))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `SELECT ` + customerColumns + ` FROM credit.customers WHERE customer_id = $1 FOR UPDATE`
	customer, err := findCustomer(ctx, tx, query, customerID)
	if err != nil {
		return err
	}

	if err = fn(&lockedCustomer{tx: tx, customer: customer}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", classify(err))
	}
	return nil
}

type lockedCustomer struct {
	tx       *sql.Tx
	customer *models.Customer
}

func (l *lockedCustomer) Customer() *models.Customer {
	return l.customer
}

func (l *lockedCustomer) Loans(ctx context.Context) ([]models.Loan, error) {
	return findLoans(ctx, l.tx, l.customer.ID)
}

func (l *lockedCustomer) CommitLoan(ctx context.Context, loan *models.Loan) error {
	loan.CustomerID = l.customer.ID
	loan.EMIsPaidOnTime = 0

	insert := `
		INSERT INTO credit.loans (customer_id, loan_amount, tenure, interest_rate,
			monthly_installment, emis_paid_on_time, start_date, end_date, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7, CURRENT_TIMESTAMP)
		RETURNING loan_id, created_at`
	err := l.tx.QueryRowContext(ctx, insert,
		loan.CustomerID, loan.LoanAmount, loan.Tenure, loan.InterestRate,
		loan.MonthlyInstallment, loan.StartDate, loan.EndDate,
	).Scan(&loan.ID, &loan.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", classify(err))
	}

	update := `
		UPDATE credit.customers
		SET current_debt = current_debt + $1,
			total_current_emi = total_current_emi + $2
		WHERE customer_id = $3`
	res, err := l.tx.ExecContext(ctx, update, loan.LoanAmount, loan.MonthlyInstallment, loan.CustomerID)
	if err != nil {
		return fmt.Errorf("failed to update customer debt: %w", classify(err))
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update customer debt: %w", err)
	}
	if rows != 1 {
		return fmt.Errorf("customer %d: %w", loan.CustomerID, ErrNotFound)
	}

	l.customer.CurrentDebt = l.customer.CurrentDebt.Add(loan.LoanAmount)
	l.customer.TotalCurrentEMI = l.customer.TotalCurrentEMI.Add(loan.MonthlyInstallment)
	return nil
}

// AggregateDrift is a customer whose stored aggregates differ from the sum
// of its active loans
type AggregateDrift struct {
	CustomerID      int64
	CurrentDebt     decimal.Decimal
	TotalCurrentEMI decimal.Decimal
	ActiveDebt      decimal.Decimal
	ActiveEMI       decimal.Decimal
}

// FindAggregateDrift compares every customer's aggregates with its loans
// still active at asOf
func (r *Repository) FindAggregateDrift(ctx context.Context, asOf time.Time) ([]AggregateDrift, error) {
	query := `
		SELECT c.customer_id, c.current_debt, c.total_current_emi,
			COALESCE(SUM(l.loan_amount) FILTER (WHERE l.end_date > $1), 0) AS active_debt,
			COALESCE(SUM(l.monthly_installment) FILTER (WHERE l.end_date > $1), 0) AS active_emi
		FROM credit.customers c
		LEFT JOIN credit.loans l ON l.customer_id = c.customer_id
		GROUP BY c.customer_id
		HAVING c.current_debt <> COALESCE(SUM(l.loan_amount) FILTER (WHERE l.end_date > $1), 0)
			OR c.total_current_emi <> COALESCE(SUM(l.monthly_installment) FILTER (WHERE l.end_date > $1), 0)
		ORDER BY c.customer_id`
	rows, err := r.db.QueryContext(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to query aggregates: %w", err)
	}
	defer rows.Close()

	var drifts []AggregateDrift
	for rows.Next() {
		var d AggregateDrift
		if err := rows.Scan(&d.CustomerID, &d.CurrentDebt, &d.TotalCurrentEMI, &d.ActiveDebt, &d.ActiveEMI); err != nil {
			return nil, fmt.Errorf("failed to scan aggregates: %w", err)
		}
		drifts = append(drifts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read aggregates: %w", err)
	}
	return drifts, nil
}

func findCustomer(ctx context.Context, q queryer, query string, id int64) (*models.Customer, error) {
	customer := &models.Customer{}
	err := q.QueryRowContext(ctx, query, id).Scan(
		&customer.ID, &customer.FirstName, &customer.LastName, &customer.Age, &customer.PhoneNumber,
		&customer.MonthlySalary, &customer.ApprovedLimit, &customer.CurrentDebt, &customer.TotalCurrentEMI,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find customer: %w", classify(err))
	}
	return customer, nil
}

func findLoans(ctx context.Context, q queryer, customerID int64) ([]models.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM credit.loans WHERE customer_id = $1 ORDER BY loan_id`
	rows, err := q.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query loans: %w", classify(err))
	}
	defer rows.Close()

	var loans []models.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans = append(loans, *loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read loans: %w", err)
	}
	return loans, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLoan(s scanner) (*models.Loan, error) {
	loan := &models.Loan{}
	err := s.Scan(
		&loan.ID, &loan.CustomerID, &loan.LoanAmount, &loan.Tenure, &loan.InterestRate,
		&loan.MonthlyInstallment, &loan.EMIsPaidOnTime, &loan.StartDate, &loan.EndDate, &loan.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// classify maps Postgres error codes onto the package sentinels
func classify(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Message)
	case codeSerializationFailure, codeDeadlockDetected:
		return fmt.Errorf("%w: %s", ErrConflict, pqErr.Message)
	default:
		return err
	}
}
