package models

import "time"

// UserRecord accumulates a principal's check-in history. It is created lazily on the
// first successful check-in and never deleted. LastCheckinTick of 0 means the principal
// has never checked in; real ticks start at 1.
type UserRecord struct {
	Principal       string `gorm:"primaryKey;size:128" json:"principal"`
	LastCheckinTick uint64 `json:"last_checkin_tick"`
	TotalPoints     uint64 `json:"total_points"`
	CurrentStreak   uint64 `json:"current_streak"`
	TotalCheckins   uint64 `json:"total_checkins"`
	TotalFeePaid    uint64 `json:"total_fee_paid"`
}

// TableName overrides the default pluralization.
func (UserRecord) TableName() string {
	return "user_records"
}

// GlobalConfig is the singleton reward configuration. Only the admin principal may
// mutate it, field by field. PointsPerCheckin and FeeAmount must stay positive;
// StreakBonusPerDay may be zero.
type GlobalConfig struct {
	ID                uint   `gorm:"primaryKey" json:"-"`
	PointsPerCheckin  uint64 `json:"points_per_checkin"`
	StreakBonusPerDay uint64 `json:"streak_bonus_per_day"`
	FeeAmount         uint64 `json:"fee_amount"`
	WindowLength      uint64 `json:"window_length"`
	FeeRecipient      string `gorm:"size:128" json:"fee_recipient"`
}

func (GlobalConfig) TableName() string {
	return "global_config"
}

// GlobalStats is the singleton aggregate counter row. Only ever incremented.
type GlobalStats struct {
	ID            uint   `gorm:"primaryKey" json:"-"`
	TotalCheckins uint64 `json:"total_checkins"`
	UniqueUsers   uint64 `json:"unique_users"`
}

func (GlobalStats) TableName() string {
	return "global_stats"
}

// CheckinRecord stores one row per successful check-in, mirroring the receipt that
// was returned to the caller at the time.
type CheckinRecord struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	Principal      string    `gorm:"index;size:128;not null" json:"principal"`
	Tick           uint64    `json:"tick"`
	PointsEarned   uint64    `json:"points_earned"`
	StreakAchieved uint64    `json:"streak_achieved"`
	FeePaid        uint64    `json:"fee_paid"`
	CreatedAt      time.Time `json:"created_at"`
}

func (CheckinRecord) TableName() string {
	return "checkin_records"
}
