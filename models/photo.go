package models

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Photo struct {
	// UUIDv7 - sorts by creation time
	ID           string  `gorm:"primaryKey;type:varchar(64)"`
	CreatedAt    int64   `gorm:"index"`
	StoragePath  string  `gorm:"type:varchar(300);index:uniq_storage_path,unique;not null"`
	ThumbPath    string  `gorm:"type:varchar(300);not null;default:''"`
	UploaderName *string `gorm:"type:varchar(100)"`
	MimeType     string  `gorm:"type:varchar(50)"`
	Size         int64
	ThumbSize    int64
	Width        uint16
	Height       uint16
	Processed    bool `gorm:"not null;default:false"`
}

// NewPhotoID returns a new opaque identifier. Identifiers compare (as strings) in creation order.
func NewPhotoID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// NewStoragePath builds the object key for an upload, e.g. 1718000000000_<uuid>.jpg
func NewStoragePath(fileName string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if len(ext) < 2 || len(ext) > 6 || !isSafeExt(ext[1:]) {
		ext = ".jpg"
	}
	return strconv.FormatInt(now.UnixMilli(), 10) + "_" + uuid.NewString() + ext
}

// ThumbPathFor returns where the JPEG thumbnail of a photo is stored
func ThumbPathFor(photoID string) string {
	return "thumbs/" + photoID + ".jpg"
}

func isSafeExt(ext string) bool {
	for _, c := range ext {
		if !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}

func (p *Photo) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = NewPhotoID()
	}
	if p.UploaderName != nil {
		name := strings.TrimSpace(*p.UploaderName)
		if name == "" {
			p.UploaderName = nil
		} else {
			if r := []rune(name); len(r) > 100 {
				name = string(r[:100])
			}
			p.UploaderName = &name
		}
	}
	return
}
