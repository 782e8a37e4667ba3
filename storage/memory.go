package storage

import (
	"errors"
	"sort"
	"sync"

	"github.com/chainledge/tickpoints/ledger"
	"github.com/chainledge/tickpoints/models"
)

// ErrReadOnlyTx is returned when a writer method is called inside View.
var ErrReadOnlyTx = errors.New("write attempted in read-only transaction")

// Memory is an in-process store. Update stages every write in a shadow copy and
// folds it into the live maps only when the closure returns nil, which gives bulk
// operations their all-or-nothing semantics without an undo log.
type Memory struct {
	mu      sync.RWMutex
	users   map[string]models.UserRecord
	history map[string][]models.CheckinRecord
	config  *models.GlobalConfig
	stats   *models.GlobalStats
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		users:   make(map[string]models.UserRecord),
		history: make(map[string][]models.CheckinRecord),
	}
}

// Update runs fn against a staged view and commits on success.
func (m *Memory) Update(fn func(ledger.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memTx{store: m, staged: make(map[string]*models.UserRecord)}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// View runs fn against the live state under a read lock. Writers fail with
// ErrReadOnlyTx.
func (m *Memory) View(fn func(ledger.Tx) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(&memTx{store: m, readOnly: true})
}

type memTx struct {
	store    *Memory
	readOnly bool

	staged       map[string]*models.UserRecord
	stagedConfig *models.GlobalConfig
	stagedStats  *models.GlobalStats
	appended     []models.CheckinRecord
}

func (tx *memTx) UserRecord(principal string) (*models.UserRecord, error) {
	if rec, ok := tx.staged[principal]; ok {
		cp := *rec
		return &cp, nil
	}
	rec, ok := tx.store.users[principal]
	if !ok {
		return nil, nil
	}
	cp := rec
	return &cp, nil
}

func (tx *memTx) PutUserRecord(rec *models.UserRecord) error {
	if tx.readOnly {
		return ErrReadOnlyTx
	}
	cp := *rec
	tx.staged[rec.Principal] = &cp
	return nil
}

func (tx *memTx) GlobalConfig() (*models.GlobalConfig, error) {
	if tx.stagedConfig != nil {
		cp := *tx.stagedConfig
		return &cp, nil
	}
	if tx.store.config == nil {
		return nil, nil
	}
	cp := *tx.store.config
	return &cp, nil
}

func (tx *memTx) PutGlobalConfig(cfg *models.GlobalConfig) error {
	if tx.readOnly {
		return ErrReadOnlyTx
	}
	cp := *cfg
	tx.stagedConfig = &cp
	return nil
}

func (tx *memTx) GlobalStats() (*models.GlobalStats, error) {
	if tx.stagedStats != nil {
		cp := *tx.stagedStats
		return &cp, nil
	}
	if tx.store.stats == nil {
		return nil, nil
	}
	cp := *tx.store.stats
	return &cp, nil
}

func (tx *memTx) PutGlobalStats(stats *models.GlobalStats) error {
	if tx.readOnly {
		return ErrReadOnlyTx
	}
	cp := *stats
	tx.stagedStats = &cp
	return nil
}

func (tx *memTx) AppendCheckin(rec *models.CheckinRecord) error {
	if tx.readOnly {
		return ErrReadOnlyTx
	}
	tx.appended = append(tx.appended, *rec)
	return nil
}

func (tx *memTx) RecentCheckins(principal string, limit int) ([]models.CheckinRecord, error) {
	rows := make([]models.CheckinRecord, 0, limit)
	rows = append(rows, tx.store.history[principal]...)
	for _, rec := range tx.appended {
		if rec.Principal == principal {
			rows = append(rows, rec)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Tick > rows[j].Tick })
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (tx *memTx) commit() {
	for principal, rec := range tx.staged {
		tx.store.users[principal] = *rec
	}
	if tx.stagedConfig != nil {
		cp := *tx.stagedConfig
		tx.store.config = &cp
	}
	if tx.stagedStats != nil {
		cp := *tx.stagedStats
		tx.store.stats = &cp
	}
	for _, rec := range tx.appended {
		tx.store.history[rec.Principal] = append(tx.store.history[rec.Principal], rec)
	}
}
