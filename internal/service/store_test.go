package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/Dan9191/credit-service/internal/models"
	"github.com/Dan9191/credit-service/internal/repository"
)

// memStore is an in-memory Store. WithCustomerLock serializes per customer
// and applies a transaction's loans only when the callback succeeds.
type memStore struct {
	mu        sync.Mutex
	customers map[int64]*models.Customer
	loans     map[int64]*models.Loan
	locks     map[int64]*sync.Mutex
	nextCust  int64
	nextLoan  int64

	// conflicts makes that many WithCustomerLock calls fail with ErrConflict
	conflicts int
	lockCalls int
}

func newMemStore() *memStore {
	return &memStore{
		customers: make(map[int64]*models.Customer),
		loans:     make(map[int64]*models.Loan),
		locks:     make(map[int64]*sync.Mutex),
	}
}

func (m *memStore) addCustomer(c models.Customer, history ...models.Loan) *models.Customer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextCust++
	c.ID = m.nextCust
	m.customers[c.ID] = &c
	for _, l := range history {
		l := l
		m.nextLoan++
		l.ID = m.nextLoan
		l.CustomerID = c.ID
		m.loans[l.ID] = &l
	}
	return &c
}

func (m *memStore) customer(id int64) models.Customer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.customers[id]
}

func (m *memStore) loanCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.loans)
}

func (m *memStore) CreateCustomer(_ context.Context, customer *models.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.customers {
		if c.PhoneNumber == customer.PhoneNumber {
			return fmt.Errorf("failed to create customer: %w", repository.ErrDuplicate)
		}
	}
	m.nextCust++
	customer.ID = m.nextCust
	stored := *customer
	m.customers[customer.ID] = &stored
	return nil
}

func (m *memStore) FindCustomerByID(_ context.Context, id int64) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %d: %w", id, repository.ErrNotFound)
	}
	copied := *c
	return &copied, nil
}

func (m *memStore) FindLoansByCustomer(_ context.Context, customerID int64) ([]models.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loansOf(customerID), nil
}

func (m *memStore) loansOf(customerID int64) []models.Loan {
	var loans []models.Loan
	for id := int64(1); id <= m.nextLoan; id++ {
		if l, ok := m.loans[id]; ok && l.CustomerID == customerID {
			loans = append(loans, *l)
		}
	}
	return loans
}

func (m *memStore) FindLoanByID(_ context.Context, id int64) (*models.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.loans[id]
	if !ok {
		return nil, fmt.Errorf("loan %d: %w", id, repository.ErrNotFound)
	}
	copied := *l
	return &copied, nil
}

func (m *memStore) WithCustomerLock(ctx context.Context, customerID int64, fn func(tx repository.CustomerTx) error) error {
	m.mu.Lock()
	m.lockCalls++
	if m.conflicts > 0 {
		m.conflicts--
		m.mu.Unlock()
		return fmt.Errorf("failed to commit transaction: %w", repository.ErrConflict)
	}
	if _, ok := m.customers[customerID]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("customer %d: %w", customerID, repository.ErrNotFound)
	}
	lock, ok := m.locks[customerID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[customerID] = lock
	}
	m.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()

	m.mu.Lock()
	snapshot := *m.customers[customerID]
	m.mu.Unlock()

	tx := &memTx{store: m, customer: &snapshot}
	if err := fn(tx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range tx.pending {
		m.loans[l.ID] = l
	}
	stored := m.customers[customerID]
	stored.CurrentDebt = snapshot.CurrentDebt
	stored.TotalCurrentEMI = snapshot.TotalCurrentEMI
	return nil
}

type memTx struct {
	store    *memStore
	customer *models.Customer
	pending  []*models.Loan
}

func (t *memTx) Customer() *models.Customer {
	return t.customer
}

func (t *memTx) Loans(_ context.Context) ([]models.Loan, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	return t.store.loansOf(t.customer.ID), nil
}

func (t *memTx) CommitLoan(_ context.Context, loan *models.Loan) error {
	t.store.mu.Lock()
	t.store.nextLoan++
	loan.ID = t.store.nextLoan
	t.store.mu.Unlock()

	loan.CustomerID = t.customer.ID
	loan.EMIsPaidOnTime = 0
	stored := *loan
	t.pending = append(t.pending, &stored)
	t.customer.CurrentDebt = t.customer.CurrentDebt.Add(loan.LoanAmount)
	t.customer.TotalCurrentEMI = t.customer.TotalCurrentEMI.Add(loan.MonthlyInstallment)
	return nil
}
