package storage

import (
	"errors"

	"gorm.io/gorm"

	"github.com/chainledge/tickpoints/ledger"
	"github.com/chainledge/tickpoints/models"
)

// singletonID keys the single GlobalConfig and GlobalStats rows.
const singletonID = 1

// Gorm persists ledger state through a GORM connection. Update maps directly onto a
// database transaction, so batch rollback comes from the database itself.
type Gorm struct {
	db *gorm.DB
}

// NewGorm migrates the ledger tables and wraps the connection.
func NewGorm(db *gorm.DB) (*Gorm, error) {
	err := db.AutoMigrate(
		&models.UserRecord{},
		&models.GlobalConfig{},
		&models.GlobalStats{},
		&models.CheckinRecord{},
	)
	if err != nil {
		return nil, err
	}
	return &Gorm{db: db}, nil
}

// Update runs fn inside a database transaction.
func (s *Gorm) Update(fn func(ledger.Tx) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

// View runs fn inside a transaction as well, so readers see a consistent snapshot
// and never a half-applied Update.
func (s *Gorm) View(fn func(ledger.Tx) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx, readOnly: true})
	})
}

type gormTx struct {
	db       *gorm.DB
	readOnly bool
}

func (tx *gormTx) UserRecord(principal string) (*models.UserRecord, error) {
	var rec models.UserRecord
	err := tx.db.Where("principal = ?", principal).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (tx *gormTx) PutUserRecord(rec *models.UserRecord) error {
	if tx.readOnly {
		return ErrReadOnlyTx
	}
	return tx.db.Save(rec).Error
}

func (tx *gormTx) GlobalConfig() (*models.GlobalConfig, error) {
	var cfg models.GlobalConfig
	err := tx.db.First(&cfg, singletonID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (tx *gormTx) PutGlobalConfig(cfg *models.GlobalConfig) error {
	if tx.readOnly {
		return ErrReadOnlyTx
	}
	cfg.ID = singletonID
	return tx.db.Save(cfg).Error
}

func (tx *gormTx) GlobalStats() (*models.GlobalStats, error) {
	var stats models.GlobalStats
	err := tx.db.First(&stats, singletonID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (tx *gormTx) PutGlobalStats(stats *models.GlobalStats) error {
	if tx.readOnly {
		return ErrReadOnlyTx
	}
	stats.ID = singletonID
	return tx.db.Save(stats).Error
}

func (tx *gormTx) AppendCheckin(rec *models.CheckinRecord) error {
	if tx.readOnly {
		return ErrReadOnlyTx
	}
	return tx.db.Create(rec).Error
}

func (tx *gormTx) RecentCheckins(principal string, limit int) ([]models.CheckinRecord, error) {
	var rows []models.CheckinRecord
	q := tx.db.Where("principal = ?", principal).Order("tick DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
