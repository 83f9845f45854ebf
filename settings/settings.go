// Package settings keeps the singleton app_settings row that opens and closes
// the upload and voting windows.
package settings

import (
	"context"
	"errors"
	"fmt"
	"photovote/apperr"
	"photovote/auth"
	"photovote/db"
	"photovote/models"
	"photovote/realtime"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Patch only changes the fields that are set
type Patch struct {
	UploadingOpen *bool `json:"uploading_open"`
	VotingOpen    *bool `json:"voting_open"`
}

func (p Patch) Empty() bool {
	return p.UploadingOpen == nil && p.VotingOpen == nil
}

type Gate interface {
	IsVotingOpen(ctx context.Context) (bool, error)
	IsUploadingOpen(ctx context.Context) (bool, error)
	Current(ctx context.Context) (models.Settings, error)
	SetFlags(ctx context.Context, admin *auth.Admin, patch Patch) (models.Settings, error)
}

type Store struct {
	db       *gorm.DB
	notifier realtime.Notifier
	now      func() time.Time
}

var _ Gate = (*Store)(nil)

func NewStore(db *gorm.DB, notifier realtime.Notifier) *Store {
	if notifier == nil {
		notifier = realtime.Nop{}
	}
	return &Store{db: db, notifier: notifier, now: time.Now}
}

// Init creates the settings row with the given flags, unless it already exists
func (s *Store) Init(ctx context.Context, uploadingOpen, votingOpen bool) error {
	row := models.Settings{
		ID:            models.SettingsID,
		UploadingOpen: uploadingOpen,
		VotingOpen:    votingOpen,
		UpdatedAt:     s.now().Unix(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

func (s *Store) Current(ctx context.Context) (models.Settings, error) {
	row := models.Settings{}
	err := s.db.WithContext(ctx).First(&row, models.SettingsID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return row, fmt.Errorf("%w: settings row is missing", apperr.ErrNotFound)
	}
	if err != nil {
		return row, apperr.Backend(err)
	}
	return row, nil
}

func (s *Store) IsVotingOpen(ctx context.Context) (bool, error) {
	row, err := s.Current(ctx)
	return row.VotingOpen, err
}

// IsVotingOpenTx reads the flag inside tx. On MySQL the row is share locked, so closing
// voting waits for the votes already in flight and later votes see it closed.
func (s *Store) IsVotingOpenTx(tx *gorm.DB) (bool, error) {
	if db.IsMySQL(tx) {
		tx = tx.Clauses(clause.Locking{Strength: "SHARE"})
	}
	row := models.Settings{}
	err := tx.Select("voting_open").Where("id = ?", models.SettingsID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("%w: settings row is missing", apperr.ErrNotFound)
	}
	return row.VotingOpen, err
}

func (s *Store) IsUploadingOpen(ctx context.Context) (bool, error) {
	row, err := s.Current(ctx)
	return row.UploadingOpen, err
}

func (s *Store) SetFlags(ctx context.Context, admin *auth.Admin, patch Patch) (models.Settings, error) {
	if !admin.Valid() {
		return models.Settings{}, apperr.ErrUnauthorized
	}
	if patch.Empty() {
		return models.Settings{}, fmt.Errorf("%w: No valid fields to update", apperr.ErrValidation)
	}
	updates := map[string]interface{}{
		"updated_at": s.now().Unix(),
	}
	if patch.UploadingOpen != nil {
		updates["uploading_open"] = *patch.UploadingOpen
	}
	if patch.VotingOpen != nil {
		updates["voting_open"] = *patch.VotingOpen
	}
	err := s.db.WithContext(ctx).
		Model(&models.Settings{}).
		Where("id = ?", models.SettingsID).
		Updates(updates).Error
	if err != nil {
		return models.Settings{}, apperr.Backend(err)
	}
	row, err := s.Current(ctx)
	if err != nil {
		return row, err
	}
	s.notifier.Notify(realtime.TableSettings, realtime.ActionUpdate, strconv.Itoa(models.SettingsID))
	return row, nil
}
