package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/credit-service/internal/config"
	"github.com/Dan9191/credit-service/internal/credit"
	"github.com/Dan9191/credit-service/internal/models"
	"github.com/Dan9191/credit-service/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrLoanNotFound     = errors.New("loan not found")
	ErrPhoneTaken       = errors.New("customer with this phone number already exists")
	// ErrCommitConflict means the loan could not be committed consistently
	// after every retry. The caller may retry the whole request.
	ErrCommitConflict = errors.New("loan commit conflict")
)

var (
	limitMultiplier = decimal.NewFromInt(36)
	lakh            = decimal.NewFromInt(100000)
)

// Store is the persistence the service relies on. *repository.Repository
// implements it.
type Store interface {
	CreateCustomer(ctx context.Context, customer *models.Customer) error
	FindCustomerByID(ctx context.Context, id int64) (*models.Customer, error)
	FindLoansByCustomer(ctx context.Context, customerID int64) ([]models.Loan, error)
	FindLoanByID(ctx context.Context, id int64) (*models.Loan, error)
	WithCustomerLock(ctx context.Context, customerID int64, fn func(tx repository.CustomerTx) error) error
}

// Service handles business logic
type Service struct {
	store      Store
	log        *logrus.Logger
	validator  *validator.Validate
	maxRetries int
	now        func() time.Time
}

// NewService initializes a new service
func NewService(store Store, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{
		store:      store,
		log:        log,
		validator:  newValidator(),
		maxRetries: cfg.CommitMaxRetries,
		now:        time.Now,
	}
}

// ApprovedLimit is 36 months of income rounded to the nearest lakh
func ApprovedLimit(monthlyIncome decimal.Decimal) decimal.Decimal {
	return monthlyIncome.Mul(limitMultiplier).Div(lakh).RoundBank(0).Mul(lakh)
}

// Register creates a new customer with its approved limit
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	customer := &models.Customer{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Age:           req.Age,
		PhoneNumber:   req.PhoneNumber,
		MonthlySalary: req.MonthlyIncome,
		ApprovedLimit: ApprovedLimit(req.MonthlyIncome),
	}

	if err := s.store.CreateCustomer(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrPhoneTaken
		}
		return nil, err
	}

	s.log.Infof("Customer registered: %d (limit %s)", customer.ID, customer.ApprovedLimit)
	return &RegisterResult{
		CustomerID:    customer.ID,
		Name:          customer.FullName(),
		Age:           customer.Age,
		MonthlyIncome: customer.MonthlySalary,
		ApprovedLimit: customer.ApprovedLimit,
		PhoneNumber:   customer.PhoneNumber,
	}, nil
}

// CheckEligibility scores the customer and applies the policy. Nothing is
// written.
func (s *Service) CheckEligibility(ctx context.Context, req LoanRequest) (*EligibilityResult, error) {
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	customer, err := s.store.FindCustomerByID(ctx, req.CustomerID)
	if err != nil {
		return nil, mapNotFound(err, ErrCustomerNotFound)
	}
	history, err := s.store.FindLoansByCustomer(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	decision, err := s.decide(customer, history, req)
	if err != nil {
		return nil, err
	}

	return &EligibilityResult{
		CustomerID:            customer.ID,
		Approved:              decision.Approved,
		InterestRate:          req.rate(),
		CorrectedInterestRate: decision.CorrectedRate,
		Tenure:                req.Tenure,
		MonthlyInstallment:    decision.MonthlyInstallment,
		CreditScore:           decision.Score.Value,
		Reason:                string(decision.Reason),
	}, nil
}

// CreateLoan decides on the request and commits the loan when approved.
// The decision is taken under the customer's row lock so it sees every loan
// committed before it.
func (s *Service) CreateLoan(ctx context.Context, req LoanRequest) (*CreateLoanResult, error) {
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		result, err := s.createLoanOnce(ctx, req)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return nil, mapNotFound(err, ErrCustomerNotFound)
		}
		if attempt >= s.maxRetries {
			s.log.WithFields(logrus.Fields{
				"customer_id": req.CustomerID,
				"attempts":    attempt,
			}).Errorf("Loan commit gave up: %v", err)
			return nil, fmt.Errorf("%w: %v", ErrCommitConflict, err)
		}
		s.log.WithFields(logrus.Fields{
			"customer_id": req.CustomerID,
			"attempt":     attempt,
		}).Warnf("Loan commit conflict, retrying: %v", err)
	}
}

func (s *Service) createLoanOnce(ctx context.Context, req LoanRequest) (*CreateLoanResult, error) {
	var result *CreateLoanResult
	err := s.store.WithCustomerLock(ctx, req.CustomerID, func(tx repository.CustomerTx) error {
		history, err := tx.Loans(ctx)
		if err != nil {
			return err
		}

		customer := tx.Customer()
		decision, err := s.decide(customer, history, req)
		if err != nil {
			return err
		}

		result = &CreateLoanResult{
			CustomerID:            customer.ID,
			Approved:              decision.Approved,
			InterestRate:          req.rate(),
			CorrectedInterestRate: decision.CorrectedRate,
			Tenure:                req.Tenure,
			MonthlyInstallment:    decision.MonthlyInstallment,
			Reason:                string(decision.Reason),
		}
		if !decision.Approved {
			result.Message = "Loan not approved: " + string(decision.Reason)
			return nil
		}

		start := truncateToDay(s.now())
		loan := &models.Loan{
			LoanAmount:         req.LoanAmount,
			Tenure:             req.Tenure,
			InterestRate:       decision.CorrectedRate,
			MonthlyInstallment: decision.MonthlyInstallment,
			StartDate:          start,
			EndDate:            start.AddDate(0, req.Tenure, 0),
		}
		if err := tx.CommitLoan(ctx, loan); err != nil {
			return err
		}

		result.LoanID = &loan.ID
		result.Message = "Loan approved"
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Approved {
		s.log.WithFields(logrus.Fields{
			"customer_id": result.CustomerID,
			"loan_id":     *result.LoanID,
			"amount":      req.LoanAmount.String(),
		}).Info("Loan committed")
	}
	return result, nil
}

// ViewLoan returns a loan with its borrower
func (s *Service) ViewLoan(ctx context.Context, loanID int64) (*LoanDetails, error) {
	loan, err := s.store.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, mapNotFound(err, ErrLoanNotFound)
	}
	customer, err := s.store.FindCustomerByID(ctx, loan.CustomerID)
	if err != nil {
		return nil, mapNotFound(err, ErrCustomerNotFound)
	}

	return &LoanDetails{
		LoanID: loan.ID,
		Customer: CustomerSummary{
			ID:          customer.ID,
			FirstName:   customer.FirstName,
			LastName:    customer.LastName,
			PhoneNumber: customer.PhoneNumber,
			Age:         customer.Age,
		},
		LoanAmount:         loan.LoanAmount,
		InterestRate:       loan.InterestRate,
		MonthlyInstallment: loan.MonthlyInstallment,
		Tenure:             loan.Tenure,
	}, nil
}

// ViewLoans lists the customer's active loans
func (s *Service) ViewLoans(ctx context.Context, customerID int64) ([]LoanSummary, error) {
	if _, err := s.store.FindCustomerByID(ctx, customerID); err != nil {
		return nil, mapNotFound(err, ErrCustomerNotFound)
	}
	loans, err := s.store.FindLoansByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	summaries := make([]LoanSummary, 0, len(loans))
	for _, loan := range loans {
		if !loan.IsActive(now) {
			continue
		}
		summaries = append(summaries, LoanSummary{
			LoanID:             loan.ID,
			LoanAmount:         loan.LoanAmount,
			InterestRate:       loan.InterestRate,
			MonthlyInstallment: loan.MonthlyInstallment,
			RepaymentsLeft:     loan.RepaymentsLeft(),
		})
	}
	return summaries, nil
}

func (s *Service) decide(customer *models.Customer, history []models.Loan, req LoanRequest) (credit.Decision, error) {
	score := credit.ComputeScore(customer, history, req.LoanAmount, s.now())
	decision, err := credit.Decide(score, customer, req.rate(), req.LoanAmount, req.Tenure)
	if err != nil {
		return credit.Decision{}, err
	}

	s.log.WithFields(logrus.Fields{
		"customer_id": customer.ID,
		"score":       score.Value,
		"approved":    decision.Approved,
		"reason":      decision.Reason,
	}).Debug("Eligibility decided")
	return decision, nil
}

func mapNotFound(err, target error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %v", target, err)
	}
	return err
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
