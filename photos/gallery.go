package photos

import (
	"context"
	"photovote/storage"
	"photovote/voting"
)

const (
	DefaultGalleryLimit = 200
	DefaultTopN         = 3

	// Unlimited lists every photo, for the slideshow
	Unlimited = -1
)

type Item struct {
	ID           string  `json:"id"`
	URL          string  `json:"url"`
	ThumbURL     string  `json:"thumb_url"`
	UploaderName *string `json:"uploader_name"`
	CreatedAt    int64   `json:"created_at"`
	MimeType     string  `json:"mime_type"`
	Width        uint16  `json:"width,omitempty"`
	Height       uint16  `json:"height,omitempty"`
	VoteCount    int64   `json:"vote_count"`
}

// Gallery resolves the public URLs of the photos the view returns
type Gallery struct {
	view    *voting.View
	storage storage.StorageAPI
}

func NewGallery(view *voting.View, store storage.StorageAPI) *Gallery {
	return &Gallery{view: view, storage: store}
}

// List returns photos by ascending id. 0 means DefaultGalleryLimit, a negative limit returns all of them.
func (g *Gallery) List(ctx context.Context, limit int) ([]Item, error) {
	switch {
	case limit == 0:
		limit = DefaultGalleryLimit
	case limit < 0:
		limit = 0
	}
	photos, err := g.view.PhotosWithVotes(ctx, limit)
	if err != nil {
		return nil, err
	}
	return g.items(photos), nil
}

func (g *Gallery) Top(ctx context.Context, n int) ([]Item, error) {
	if n <= 0 {
		n = DefaultTopN
	}
	photos, err := g.view.Top(ctx, n)
	if err != nil {
		return nil, err
	}
	return g.items(photos), nil
}

func (g *Gallery) items(photos []voting.PhotoVotes) []Item {
	result := make([]Item, 0, len(photos))
	for _, p := range photos {
		item := Item{
			ID:           p.ID,
			URL:          g.storage.PublicURL(p.StoragePath),
			UploaderName: p.UploaderName,
			CreatedAt:    p.CreatedAt,
			MimeType:     p.MimeType,
			Width:        p.Width,
			Height:       p.Height,
			VoteCount:    p.VoteCount,
		}
		// Until the thumbnail exists the original is shown
		item.ThumbURL = item.URL
		if p.ThumbPath != "" {
			item.ThumbURL = g.storage.PublicURL(p.ThumbPath)
		}
		result = append(result, item)
	}
	return result
}
