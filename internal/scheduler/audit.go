package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/credit-service/internal/repository"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DriftFinder lists customers whose aggregates disagree with their active loans
type DriftFinder interface {
	FindAggregateDrift(ctx context.Context, asOf time.Time) ([]repository.AggregateDrift, error)
}

// AuditScheduler periodically checks that current_debt and total_current_emi
// match the customer's active loans. It only reports; nothing is repaired.
type AuditScheduler struct {
	finder  DriftFinder
	log     *logrus.Logger
	cron    *cron.Cron
	timeout time.Duration
	now     func() time.Time
}

func NewAuditScheduler(finder DriftFinder, log *logrus.Logger) *AuditScheduler {
	return &AuditScheduler{
		finder:  finder,
		log:     log,
		cron:    cron.New(),
		timeout: time.Minute,
		now:     time.Now,
	}
}

// Start registers the audit under spec (standard cron or "@every 1h") and
// starts the cron runner
func (s *AuditScheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if _, err := s.RunOnce(ctx); err != nil {
			s.log.Errorf("Aggregate audit failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid audit schedule %q: %w", spec, err)
	}
	s.cron.Start()
	s.log.Infof("Aggregate audit scheduled: %s", spec)
	return nil
}

// Stop waits for a running audit to finish
func (s *AuditScheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce performs one audit and returns the number of drifting customers
func (s *AuditScheduler) RunOnce(ctx context.Context) (int, error) {
	drifts, err := s.finder.FindAggregateDrift(ctx, s.now())
	if err != nil {
		return 0, err
	}

	for _, d := range drifts {
		s.log.WithFields(logrus.Fields{
			"customer_id":       d.CustomerID,
			"current_debt":      d.CurrentDebt.String(),
			"active_debt":       d.ActiveDebt.String(),
			"total_current_emi": d.TotalCurrentEMI.String(),
			"active_emi":        d.ActiveEMI.String(),
		}).Warn("Customer aggregates drift from active loans")
	}
	if len(drifts) == 0 {
		s.log.Debug("Aggregate audit clean")
	}
	return len(drifts), nil
}
