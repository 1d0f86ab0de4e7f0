package services

import (
	"errors"
	"time"

	apperrors "moneta/internal/errors"
	"moneta/internal/logger"
)

// schedulerService implements the scheduling policy: bills are checked on
// every tick since they can fall due any day; income allocation runs only on
// the first of the month. Both underlying operations are idempotent against
// persisted state, so a tick can be re-run or caught up after a crash without
// double-generating or double-allocating.
type schedulerService struct {
	bills      BillServicer
	allocation AllocationServicer
	location   *time.Location
}

// NewSchedulerService creates a new SchedulerServicer. Tick times are
// evaluated in the given location; civil dates never shift with it afterwards.
func NewSchedulerService(bills BillServicer, allocation AllocationServicer, location *time.Location) SchedulerServicer {
	return &schedulerService{bills: bills, allocation: allocation, location: location}
}

// RunScheduledTick dispatches one tick. Failures are logged and surfaced;
// nothing is retried here, because the next tick picks up whatever this one
// left undone.
func (s *schedulerService) RunScheduledTick(now time.Time) (*TickResult, error) {
	local := now.In(s.location)
	result := &TickResult{}
	var errs []error

	generated, err := s.bills.ProcessDueBills(local)
	result.BillsGenerated = generated
	if err != nil {
		logger.Get().Errorw("scheduled bill generation failed", "error", err.Error())
		errs = append(errs, err)
	}

	if local.Day() == 1 {
		ran, err := s.allocation.ProcessMonthlyIncome(local)
		switch {
		case errors.Is(err, apperrors.ErrPlanNotFound):
			// No plan configured: nothing to allocate this month.
			logger.Get().Infow("income allocation skipped, no plan configured")
		case err != nil:
			logger.Get().Errorw("scheduled income allocation failed", "error", err.Error())
			errs = append(errs, err)
		default:
			result.AllocationRan = ran
		}
	}

	if len(errs) > 0 {
		return result, errors.Join(errs...)
	}
	return result, nil
}
