package models

const SettingsID = 1

// Settings is a single row (ID = SettingsID) table
type Settings struct {
	ID            uint  `gorm:"primaryKey" json:"-"`
	UploadingOpen bool  `gorm:"not null" json:"uploading_open"`
	VotingOpen    bool  `gorm:"not null" json:"voting_open"`
	UpdatedAt     int64 `json:"updated_at"`
}

func (Settings) TableName() string {
	return "app_settings"
}
