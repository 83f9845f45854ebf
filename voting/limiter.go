package voting

import (
	"context"
	"errors"
	"fmt"
	"photovote/apperr"
	"photovote/db"
	"photovote/models"
	"photovote/realtime"
	"strings"
	"sync"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
)

// VotingWindow is the part of the settings gate the limiter needs
type VotingWindow interface {
	IsVotingOpen(ctx context.Context) (bool, error)
}

// TxVotingWindow can also be read inside the vote transaction. When the window implements it,
// a vote only commits if voting is still open after the voter has been locked.
type TxVotingWindow interface {
	VotingWindow
	IsVotingOpenTx(tx *gorm.DB) (bool, error)
}

// Result is the voter's state right after Apply
type Result struct {
	PhotoID string `json:"photo_id"`
	Action  Action `json:"action"`
	// Changed is false for idempotent no-ops (adding a photo twice, removing a missing vote)
	Changed   bool     `json:"changed"`
	Voted     bool     `json:"voted"`
	PhotoVote int64    `json:"vote_count"`
	MyVotes   []string `json:"my_votes"`
	MyCount   int      `json:"my_vote_count"`
	Remaining int      `json:"remaining"`
}

type Service struct {
	db       *gorm.DB
	window   VotingWindow
	notifier realtime.Notifier
	limit    int
	// Per voter critical section. Row locks on voters cover multiple MySQL backed instances.
	locks cmap.ConcurrentMap[string, *voterLock]
}

// voterLock is dropped from the map when its last holder releases it
type voterLock struct {
	sync.Mutex
	refs int
}

func NewService(db *gorm.DB, window VotingWindow, notifier realtime.Notifier) *Service {
	if notifier == nil {
		notifier = realtime.Nop{}
	}
	return &Service{
		db:       db,
		window:   window,
		notifier: notifier,
		limit:    models.MaxVotesPerVoter,
		locks:    cmap.New[*voterLock](),
	}
}

func (s *Service) Limit() int {
	return s.limit
}

// lock blocks until voterKey is free. The returned func releases it.
func (s *Service) lock(voterKey string) func() {
	// refs is only touched under the shard lock of Upsert and RemoveCb
	l := s.locks.Upsert(voterKey, nil, func(exist bool, valueInMap, _ *voterLock) *voterLock {
		if !exist {
			valueInMap = &voterLock{}
		}
		valueInMap.refs++
		return valueInMap
	})
	l.Lock()
	return func() {
		l.Unlock()
		s.locks.RemoveCb(voterKey, func(_ string, v *voterLock, exists bool) bool {
			if !exists {
				return false
			}
			v.refs--
			return v.refs == 0
		})
	}
}

// Apply adds or removes the vote of voterKey for photoID. Adding never takes a voter above the limit,
// adding an existing vote and removing a missing one are no-ops.
func (s *Service) Apply(ctx context.Context, voterKey, photoID string, action Action) (Result, error) {
	voterKey = strings.TrimSpace(voterKey)
	photoID = strings.TrimSpace(photoID)
	result := Result{PhotoID: photoID, Action: action}
	if voterKey == "" {
		return result, fmt.Errorf("%w: voter_key is required", apperr.ErrValidation)
	}
	if photoID == "" {
		return result, fmt.Errorf("%w: photo_id is required", apperr.ErrValidation)
	}
	if action != ActionAdd && action != ActionRemove {
		return result, fmt.Errorf("%w: action must be \"add\" or \"remove\"", apperr.ErrValidation)
	}

	open, err := s.window.IsVotingOpen(ctx)
	if err != nil {
		return result, apperr.Backend(err)
	}
	if !open {
		return result, fmt.Errorf("%w: Voting is closed", apperr.ErrWindowClosed)
	}

	unlock := s.lock(voterKey)
	defer unlock()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.apply(tx, voterKey, photoID, action, &result)
	})
	if err != nil {
		if !isKind(err) {
			err = apperr.Backend(err)
		}
		return result, err
	}
	if result.Changed {
		event := realtime.ActionInsert
		if action == ActionRemove {
			event = realtime.ActionDelete
		}
		s.notifier.Notify(realtime.TableVotes, event, photoID)
	}
	return result, nil
}

func (s *Service) apply(tx *gorm.DB, voterKey, photoID string, action Action, result *Result) error {
	// The voter lock must be the first statement: on MySQL the first plain read fixes the snapshot
	err := lockVoter(tx, voterKey)
	if err != nil {
		return err
	}

	if window, ok := s.window.(TxVotingWindow); ok {
		open, err := window.IsVotingOpenTx(tx)
		if err != nil {
			return apperr.Backend(err)
		}
		if !open {
			return fmt.Errorf("%w: Voting is closed", apperr.ErrWindowClosed)
		}
	}

	photo := models.Photo{}
	err = tx.Select("id").Where("id = ?", photoID).Take(&photo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: Photo %s does not exist", apperr.ErrNotFound, photoID)
	}
	if err != nil {
		return err
	}

	var exists int64
	if err = forUpdate(tx).Model(&models.Vote{}).Where("voter_key = ? AND photo_id = ?", voterKey, photoID).Count(&exists).Error; err != nil {
		return err
	}
	switch {
	case action == ActionAdd && exists == 0:
		var held int64
		if err = forUpdate(tx).Model(&models.Vote{}).Where("voter_key = ?", voterKey).Count(&held).Error; err != nil {
			return err
		}
		if held >= int64(s.limit) {
			return fmt.Errorf("%w: You can only vote for %d photos. Remove a vote first.", apperr.ErrLimitExceeded, s.limit)
		}
		if err = tx.Create(&models.Vote{VoterKey: voterKey, PhotoID: photoID}).Error; err != nil {
			return err
		}
		result.Changed = true
	case action == ActionRemove && exists > 0:
		if err = tx.Where("voter_key = ? AND photo_id = ?", voterKey, photoID).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		result.Changed = true
	}

	// Read back inside the transaction so the caller sees its own write
	if result.MyVotes, err = votesByVoter(tx, voterKey); err != nil {
		return err
	}
	if err = tx.Model(&models.Vote{}).Where("photo_id = ?", photoID).Count(&result.PhotoVote).Error; err != nil {
		return err
	}
	result.MyCount = len(result.MyVotes)
	result.Remaining = s.limit - result.MyCount
	for _, id := range result.MyVotes {
		if id == photoID {
			result.Voted = true
		}
	}
	return nil
}

// lockVoter registers the voter and, where supported, holds its row lock until the transaction ends
func lockVoter(tx *gorm.DB, voterKey string) error {
	now := time.Now().Unix()
	err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Voter{VoterKey: voterKey, CreatedAt: now, LastSeenAt: now}).Error
	if err != nil {
		return err
	}
	if db.IsMySQL(tx) {
		voter := models.Voter{}
		err = forUpdate(tx).Where("voter_key = ?", voterKey).Take(&voter).Error
		if err != nil {
			return err
		}
	}
	return tx.Model(&models.Voter{}).Where("voter_key = ?", voterKey).Update("last_seen_at", now).Error
}

// forUpdate makes the next read a locking read on MySQL. SQLite serializes transactions already.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if db.IsMySQL(tx) {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func isKind(err error) bool {
	for _, kind := range []error{apperr.ErrValidation, apperr.ErrLimitExceeded, apperr.ErrWindowClosed, apperr.ErrNotFound, apperr.ErrBackendUnavailable} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
