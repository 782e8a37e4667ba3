package ledger

import "github.com/chainledge/tickpoints/models"

// Tx is the view of storage a single ledger operation works against. Record getters
// return (nil, nil) when the row does not exist; writers stage mutations that become
// visible to later reads within the same Tx.
type Tx interface {
	UserRecord(principal string) (*models.UserRecord, error)
	PutUserRecord(rec *models.UserRecord) error

	GlobalConfig() (*models.GlobalConfig, error)
	PutGlobalConfig(cfg *models.GlobalConfig) error

	GlobalStats() (*models.GlobalStats, error)
	PutGlobalStats(stats *models.GlobalStats) error

	AppendCheckin(rec *models.CheckinRecord) error
	RecentCheckins(principal string, limit int) ([]models.CheckinRecord, error)
}

// Store supplies all-or-nothing transactions to the ledger. Update commits staged
// writes only when the closure returns nil; any error discards every mutation made
// through the Tx. View must never observe a partially applied Update.
type Store interface {
	Update(fn func(Tx) error) error
	View(fn func(Tx) error) error
}
