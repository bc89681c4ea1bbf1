package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/0001Moksh/moto-service-hub-sub000/internal/models"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/pkg/apperror"
)

// MonthlyTokenAllowance is restored on the first ledger access of each
// calendar month.
const MonthlyTokenAllowance = 3

// RequiredTokens prices a cancellation by how many the customer already
// made this calendar month: the first one costs 1 token, every further
// one costs 2. A gap between cancellations does not reset the count; only
// the month boundary does.
func RequiredTokens(cancellationsThisMonth int) int {
	if cancellationsThisMonth == 0 {
		return 1
	}
	return 2
}

type LedgerRepository interface {
	GetOrCreateForUpdate(ctx context.Context, customerID uuid.UUID, allowance int, at time.Time) (*models.CancellationTokenLedger, error)
	Save(ctx context.Context, ledger *models.CancellationTokenLedger) error
	CountMonthlyCancellations(ctx context.Context, customerID uuid.UUID, at time.Time) (int, error)
}

// LedgerService implements the cancellation token economy.
type LedgerService struct {
	repo LedgerRepository
}

func NewLedgerService(repo LedgerRepository) *LedgerService {
	return &LedgerService{repo: repo}
}

// ChargeCancellation debits the customer's ledger for one cancellation and
// returns the number of tokens deducted. The caller must run it inside the
// cancellation transaction: the locked ledger row serializes concurrent
// charges, and a later failure rolls the debit back.
//
// The monthly count is evaluated before the new cancellation is recorded.
// All month arithmetic happens in UTC so the reset and the count agree
// regardless of the server's zone.
func (s *LedgerService) ChargeCancellation(ctx context.Context, customerID uuid.UUID, at time.Time) (int, error) {
	at = at.UTC()

	ledger, err := s.repo.GetOrCreateForUpdate(ctx, customerID, MonthlyTokenAllowance, at)
	if err != nil {
		return 0, err
	}

	if isNewMonth(ledger.LastResetDate, at) {
		ledger.TokensAvailable = MonthlyTokenAllowance
		ledger.LastResetDate = at
	}

	monthly, err := s.repo.CountMonthlyCancellations(ctx, customerID, at)
	if err != nil {
		return 0, err
	}

	cost := RequiredTokens(monthly)
	if ledger.TokensAvailable < cost {
		return 0, apperror.InsufficientTokens(cost - ledger.TokensAvailable)
	}

	ledger.TokensAvailable -= cost
	ledger.TokensUsed += cost

	if err := s.repo.Save(ctx, ledger); err != nil {
		return 0, err
	}

	return cost, nil
}

func isNewMonth(lastReset, at time.Time) bool {
	lastReset, at = lastReset.UTC(), at.UTC()
	return at.Year() != lastReset.Year() || at.Month() != lastReset.Month()
}
