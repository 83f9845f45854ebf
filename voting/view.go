package voting

import (
	"context"
	"photovote/apperr"
	"photovote/models"
	"sort"

	"gorm.io/gorm"
)

// PhotoVotes is a photo together with its (computed on read) number of votes
type PhotoVotes struct {
	ID           string
	CreatedAt    int64
	StoragePath  string
	ThumbPath    string
	UploaderName *string
	MimeType     string
	Width        uint16
	Height       uint16
	VoteCount    int64
}

type PhotoCount struct {
	PhotoID string `json:"photo_id"`
	Count   int64  `json:"vote_count"`
}

// View derives counts and rankings from the votes table. It doesn't lock: a count read
// while a vote is being applied may be off by one until the next read.
type View struct {
	db *gorm.DB
}

func NewView(db *gorm.DB) *View {
	return &View{db: db}
}

// PhotosWithVotes returns every photo (zero votes included) ordered by id ascending.
// limit <= 0 means no limit.
func (v *View) PhotosWithVotes(ctx context.Context, limit int) ([]PhotoVotes, error) {
	result := []PhotoVotes{}
	tx := v.db.WithContext(ctx).
		Table("photos").
		Select("photos.id, photos.created_at, photos.storage_path, photos.thumb_path, photos.uploader_name, " +
			"photos.mime_type, photos.width, photos.height, count(votes.photo_id) as vote_count").
		Joins("left join votes on votes.photo_id = photos.id").
		Group("photos.id").
		Order("photos.id ASC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Scan(&result).Error; err != nil {
		return nil, apperr.Backend(err)
	}
	return result, nil
}

// CountsByPhoto returns the vote count of every photo, ordered by photo id ascending
func (v *View) CountsByPhoto(ctx context.Context) ([]PhotoCount, error) {
	photos, err := v.PhotosWithVotes(ctx, 0)
	if err != nil {
		return nil, err
	}
	result := make([]PhotoCount, 0, len(photos))
	for _, p := range photos {
		result = append(result, PhotoCount{PhotoID: p.ID, Count: p.VoteCount})
	}
	return result, nil
}

// Top returns the n best photos: most votes first, ties by ascending photo id
func (v *View) Top(ctx context.Context, n int) ([]PhotoVotes, error) {
	photos, err := v.PhotosWithVotes(ctx, 0)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]PhotoVotes, len(photos))
	counts := make([]PhotoCount, 0, len(photos))
	for _, p := range photos {
		byID[p.ID] = p
		counts = append(counts, PhotoCount{PhotoID: p.ID, Count: p.VoteCount})
	}
	ranked := Rank(counts, n)
	result := make([]PhotoVotes, 0, len(ranked))
	for _, c := range ranked {
		result = append(result, byID[c.PhotoID])
	}
	return result, nil
}

// VotesByVoter returns the photo ids voterKey voted for, ascending
func (v *View) VotesByVoter(ctx context.Context, voterKey string) ([]string, error) {
	ids, err := votesByVoter(v.db.WithContext(ctx), voterKey)
	if err != nil {
		return nil, apperr.Backend(err)
	}
	return ids, nil
}

func votesByVoter(tx *gorm.DB, voterKey string) ([]string, error) {
	ids := []string{}
	err := tx.Model(&models.Vote{}).
		Where("voter_key = ?", voterKey).
		Order("photo_id ASC").
		Pluck("photo_id", &ids).Error
	return ids, err
}

// Rank returns the first n counts ordered by count descending, then photo id ascending.
// The input is not modified.
func Rank(counts []PhotoCount, n int) []PhotoCount {
	result := append([]PhotoCount(nil), counts...)
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].PhotoID < result[j].PhotoID
	})
	if n >= 0 && n < len(result) {
		result = result[:n]
	}
	return result
}

// Map converts counts to photo id -> count
func Map(counts []PhotoCount) map[string]int64 {
	result := make(map[string]int64, len(counts))
	for _, c := range counts {
		result[c.PhotoID] = c.Count
	}
	return result
}
