package models

// Vote only exists or doesn't. A voter holds at most MaxVotesPerVoter of them.
type Vote struct {
	VoterKey string `gorm:"primaryKey;type:varchar(100)"`
	PhotoID  string `gorm:"primaryKey;type:varchar(64);index"`
	Photo    Photo  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

const MaxVotesPerVoter = 3

// Voter is created the first time a voter key casts a vote
type Voter struct {
	VoterKey   string `gorm:"primaryKey;type:varchar(100)"`
	CreatedAt  int64
	LastSeenAt int64
}
