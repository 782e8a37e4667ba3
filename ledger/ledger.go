package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chainledge/tickpoints/models"
)

// MaxBulkCheckins bounds the number of principals a single bulk call may carry.
const MaxBulkCheckins = 10

// FeeTransferFn moves amount from one principal to another atomically. It is the
// only external call the ledger makes and is invoked after eligibility has been
// confirmed but before any state commits.
type FeeTransferFn func(from, to string, amount uint64) error

// CheckinReceipt is returned for every successful check-in.
type CheckinReceipt struct {
	Earned        uint64 `json:"earned"`
	TotalPoints   uint64 `json:"totalPoints"`
	Streak        uint64 `json:"streak"`
	TotalCheckins uint64 `json:"totalCheckins"`
	FeePaid       uint64 `json:"feePaid"`
}

// UserStatsView is the read-only projection of a principal's record. A principal
// with no record reads as all zeros with CanCheckIn true.
type UserStatsView struct {
	Points        uint64 `json:"points"`
	Streak        uint64 `json:"streak"`
	TotalCheckins uint64 `json:"totalCheckins"`
	LastCheckin   uint64 `json:"lastCheckin"`
	FeePaid       uint64 `json:"feePaid"`
	CanCheckIn    bool   `json:"canCheckIn"`
}

// GlobalStatsView composes the public config fields with the aggregate counters.
type GlobalStatsView struct {
	PointsPerCheckin  uint64 `json:"pointsPerCheckin"`
	StreakBonusPerDay uint64 `json:"streakBonusPerDay"`
	FeeAmount         uint64 `json:"feeAmount"`
	WindowLength      uint64 `json:"windowLength"`
	FeeRecipient      string `json:"feeRecipient"`
	TotalCheckins     uint64 `json:"totalCheckins"`
	UniqueUsers       uint64 `json:"uniqueUsers"`
}

// Ledger is the check-in accounting engine. All state lives in the injected Store;
// a single mutex serializes every mutating operation per instance, which is enough
// because the global counters are touched by every call.
type Ledger struct {
	store Store
	admin string
	mu    sync.Mutex
}

// New seeds the store with defaults when it is empty and returns a ledger bound to
// it. The admin principal is fixed for the lifetime of the instance.
func New(store Store, admin string, defaults models.GlobalConfig) (*Ledger, error) {
	if defaults.PointsPerCheckin == 0 || defaults.FeeAmount == 0 || defaults.WindowLength == 0 {
		return nil, fmt.Errorf("%w: points, fee and window length must be positive", ErrInvalidAmount)
	}
	err := store.Update(func(tx Tx) error {
		cfg, err := tx.GlobalConfig()
		if err != nil {
			return err
		}
		if cfg == nil {
			if err := tx.PutGlobalConfig(&defaults); err != nil {
				return err
			}
		}
		stats, err := tx.GlobalStats()
		if err != nil {
			return err
		}
		if stats == nil {
			return tx.PutGlobalStats(&models.GlobalStats{})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("seed ledger state: %w", err)
	}
	return &Ledger{store: store, admin: admin}, nil
}

// CheckIn records one check-in for principal at tick now. The fee is collected from
// the principal before any mutation commits; a fee failure leaves state unchanged.
func (l *Ledger) CheckIn(principal string, now uint64, fee FeeTransferFn) (*CheckinReceipt, error) {
	// Tick 0 is the never-checked-in sentinel on UserRecord; storing it would leave
	// the principal permanently eligible. Real ticks start at 1.
	if now == 0 {
		return nil, fmt.Errorf("%w: ticks start at 1", ErrInvalidAmount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var receipt *CheckinReceipt
	err := l.store.Update(func(tx Tx) error {
		cfg, err := tx.GlobalConfig()
		if err != nil {
			return err
		}
		rec, err := tx.UserRecord(principal)
		if err != nil {
			return err
		}
		if !eligible(rec, now, cfg.WindowLength) {
			return ErrAlreadyCheckedIn
		}
		if err := fee(principal, cfg.FeeRecipient, cfg.FeeAmount); err != nil {
			return fmt.Errorf("%w: %v", ErrFeeTransferFailed, err)
		}
		receipt, err = applyCheckin(tx, cfg, rec, principal, now, cfg.FeeAmount)
		return err
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// BulkCheckIn checks in up to MaxBulkCheckins principals at the same tick, collecting
// one aggregate fee from payer. The batch is all-or-nothing: every member is
// validated against the staged state before the fee moves, so one ineligible
// principal (including a duplicate later in the batch) fails the whole call with no
// state change and no fee collected.
func (l *Ledger) BulkCheckIn(principals []string, now uint64, payer string, fee FeeTransferFn) ([]CheckinReceipt, error) {
	if len(principals) == 0 || len(principals) > MaxBulkCheckins {
		return nil, fmt.Errorf("%w: got %d, want 1..%d", ErrInvalidBatch, len(principals), MaxBulkCheckins)
	}
	if now == 0 {
		return nil, fmt.Errorf("%w: ticks start at 1", ErrInvalidAmount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	receipts := make([]CheckinReceipt, 0, len(principals))
	err := l.store.Update(func(tx Tx) error {
		cfg, err := tx.GlobalConfig()
		if err != nil {
			return err
		}
		for _, principal := range principals {
			rec, err := tx.UserRecord(principal)
			if err != nil {
				return err
			}
			if !eligible(rec, now, cfg.WindowLength) {
				return ErrAlreadyCheckedIn
			}
			receipt, err := applyCheckin(tx, cfg, rec, principal, now, cfg.FeeAmount)
			if err != nil {
				return err
			}
			receipts = append(receipts, *receipt)
		}
		total := cfg.FeeAmount * uint64(len(principals))
		if err := fee(payer, cfg.FeeRecipient, total); err != nil {
			return fmt.Errorf("%w: %v", ErrFeeTransferFailed, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipts, nil
}

// applyCheckin runs the streak and point arithmetic and stages every mutation for an
// already-eligible principal. feePaid is the amount attributed to the record, which
// for bulk calls is the per-member share of the aggregate fee.
func applyCheckin(tx Tx, cfg *models.GlobalConfig, rec *models.UserRecord, principal string, now, feePaid uint64) (*CheckinReceipt, error) {
	isNew := rec == nil || rec.LastCheckinTick == 0
	if rec == nil {
		rec = &models.UserRecord{Principal: principal}
	}

	// Continuation requires the gap to be strictly under two full windows; a gap of
	// exactly 2*window resets to 1.
	streak := uint64(1)
	if !isNew && now-rec.LastCheckinTick < 2*cfg.WindowLength {
		streak = rec.CurrentStreak + 1
	}
	earned := cfg.PointsPerCheckin + streak*cfg.StreakBonusPerDay

	rec.LastCheckinTick = now
	rec.TotalPoints += earned
	rec.CurrentStreak = streak
	rec.TotalCheckins++
	rec.TotalFeePaid += feePaid
	if err := tx.PutUserRecord(rec); err != nil {
		return nil, err
	}

	if err := tx.AppendCheckin(&models.CheckinRecord{
		ID:             uuid.NewString(),
		Principal:      principal,
		Tick:           now,
		PointsEarned:   earned,
		StreakAchieved: streak,
		FeePaid:        feePaid,
		CreatedAt:      time.Now(),
	}); err != nil {
		return nil, err
	}

	stats, err := tx.GlobalStats()
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = &models.GlobalStats{}
	}
	stats.TotalCheckins++
	if isNew {
		stats.UniqueUsers++
	}
	if err := tx.PutGlobalStats(stats); err != nil {
		return nil, err
	}

	return &CheckinReceipt{
		Earned:        earned,
		TotalPoints:   rec.TotalPoints,
		Streak:        streak,
		TotalCheckins: rec.TotalCheckins,
		FeePaid:       feePaid,
	}, nil
}

// eligible applies the window gate. A now earlier than the recorded tick would
// underflow the gap; such a call violates per-principal ordering and is rejected.
func eligible(rec *models.UserRecord, now, window uint64) bool {
	if rec == nil || rec.LastCheckinTick == 0 {
		return true
	}
	if now < rec.LastCheckinTick {
		return false
	}
	return now-rec.LastCheckinTick >= window
}

// UserStats reads a principal's stats, evaluating CanCheckIn against the supplied
// current tick. The ledger keeps no clock of its own.
func (l *Ledger) UserStats(principal string, now uint64) (*UserStatsView, error) {
	var view UserStatsView
	err := l.store.View(func(tx Tx) error {
		cfg, err := tx.GlobalConfig()
		if err != nil {
			return err
		}
		rec, err := tx.UserRecord(principal)
		if err != nil {
			return err
		}
		if rec != nil {
			view = UserStatsView{
				Points:        rec.TotalPoints,
				Streak:        rec.CurrentStreak,
				TotalCheckins: rec.TotalCheckins,
				LastCheckin:   rec.LastCheckinTick,
				FeePaid:       rec.TotalFeePaid,
			}
		}
		view.CanCheckIn = eligible(rec, now, cfg.WindowLength)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// GlobalStats composes the public config fields and the aggregate counters.
func (l *Ledger) GlobalStats() (*GlobalStatsView, error) {
	var view GlobalStatsView
	err := l.store.View(func(tx Tx) error {
		cfg, err := tx.GlobalConfig()
		if err != nil {
			return err
		}
		stats, err := tx.GlobalStats()
		if err != nil {
			return err
		}
		view = GlobalStatsView{
			PointsPerCheckin:  cfg.PointsPerCheckin,
			StreakBonusPerDay: cfg.StreakBonusPerDay,
			FeeAmount:         cfg.FeeAmount,
			WindowLength:      cfg.WindowLength,
			FeeRecipient:      cfg.FeeRecipient,
		}
		if stats != nil {
			view.TotalCheckins = stats.TotalCheckins
			view.UniqueUsers = stats.UniqueUsers
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// RecentCheckins returns up to limit of the principal's latest check-in rows, newest
// first.
func (l *Ledger) RecentCheckins(principal string, limit int) ([]models.CheckinRecord, error) {
	var rows []models.CheckinRecord
	err := l.store.View(func(tx Tx) error {
		var err error
		rows, err = tx.RecentCheckins(principal, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SetPointsPerCheckin updates the base reward. Admin only; zero is rejected.
func (l *Ledger) SetPointsPerCheckin(caller string, value uint64) error {
	if value == 0 {
		return l.setConfig(caller, nil)
	}
	return l.setConfig(caller, func(cfg *models.GlobalConfig) {
		cfg.PointsPerCheckin = value
	})
}

// SetStreakBonus updates the per-day streak bonus. Admin only; zero is allowed.
func (l *Ledger) SetStreakBonus(caller string, value uint64) error {
	return l.setConfig(caller, func(cfg *models.GlobalConfig) {
		cfg.StreakBonusPerDay = value
	})
}

// SetFeeAmount updates the check-in fee. Admin only; zero is rejected.
func (l *Ledger) SetFeeAmount(caller string, value uint64) error {
	if value == 0 {
		return l.setConfig(caller, nil)
	}
	return l.setConfig(caller, func(cfg *models.GlobalConfig) {
		cfg.FeeAmount = value
	})
}

// setConfig guards authorization before validation so a non-admin probing with a
// zero value still sees ErrNotAuthorized. A nil mutate signals a rejected value.
func (l *Ledger) setConfig(caller string, mutate func(*models.GlobalConfig)) error {
	if caller != l.admin || l.admin == "" {
		return ErrNotAuthorized
	}
	if mutate == nil {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Update(func(tx Tx) error {
		cfg, err := tx.GlobalConfig()
		if err != nil {
			return err
		}
		mutate(cfg)
		return tx.PutGlobalConfig(cfg)
	})
}

// Admin exposes the admin principal fixed at construction.
func (l *Ledger) Admin() string {
	return l.admin
}
