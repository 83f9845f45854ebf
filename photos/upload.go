package photos

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"photovote/apperr"
	"photovote/models"
	"photovote/realtime"
	"photovote/storage"
	"photovote/utils"
	"strings"
	"time"

	"gorm.io/gorm"
)

const sniffLen = 512

var ErrTooLarge = fmt.Errorf("%w: photo is too large", apperr.ErrValidation)

type UploadWindow interface {
	IsUploadingOpen(ctx context.Context) (bool, error)
}

type Service struct {
	db       *gorm.DB
	window   UploadWindow
	storage  storage.StorageAPI
	notifier realtime.Notifier
	maxSize  int64
	now      func() time.Time
}

func NewService(db *gorm.DB, window UploadWindow, store storage.StorageAPI, notifier realtime.Notifier, maxSize int64) *Service {
	if notifier == nil {
		notifier = realtime.Nop{}
	}
	return &Service{
		db:       db,
		window:   window,
		storage:  store,
		notifier: notifier,
		maxSize:  maxSize,
		now:      time.Now,
	}
}

// CheckUpload fails the same way Upload would before any file is read
func (s *Service) CheckUpload(ctx context.Context, uploaderName string) error {
	if strings.TrimSpace(uploaderName) == "" {
		return fmt.Errorf("%w: Please enter your name before uploading.", apperr.ErrValidation)
	}
	open, err := s.window.IsUploadingOpen(ctx)
	if err != nil {
		return apperr.Backend(err)
	}
	if !open {
		return fmt.Errorf("%w: Uploading is closed", apperr.ErrWindowClosed)
	}
	return nil
}

// Upload stores the image read from file and creates its photo row.
// Thumbnails are created later by the processing loop.
func (s *Service) Upload(ctx context.Context, uploaderName, fileName string, file io.Reader) (models.Photo, error) {
	photo := models.Photo{}
	if err := s.CheckUpload(ctx, uploaderName); err != nil {
		return photo, err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return photo, fmt.Errorf("%w: cannot read %s: %v", apperr.ErrValidation, fileName, err)
	}
	head = head[:n]
	mimeType, ok := utils.DetectImageType(head)
	if !ok {
		return photo, fmt.Errorf("%w: %s is not an image", apperr.ErrValidation, fileName)
	}

	now := s.now()
	path := models.NewStoragePath(fileName, now)
	body := io.MultiReader(bytes.NewReader(head), file)
	if s.maxSize > 0 {
		body = io.LimitReader(body, s.maxSize+1)
	}
	size, err := s.storage.Save(path, mimeType, body)
	if err != nil {
		log.Printf("Error saving %s: %v", path, err)
		return photo, apperr.Backend(err)
	}
	if s.maxSize > 0 && size > s.maxSize {
		s.remove(path)
		return photo, ErrTooLarge
	}

	photo = models.Photo{
		CreatedAt:    now.Unix(),
		StoragePath:  path,
		UploaderName: &uploaderName,
		MimeType:     mimeType,
		Size:         size,
	}
	if err = s.db.WithContext(ctx).Create(&photo).Error; err != nil {
		s.remove(path)
		return photo, apperr.Backend(err)
	}
	s.notifier.Notify(realtime.TablePhotos, realtime.ActionInsert, photo.ID)
	return photo, nil
}

func (s *Service) remove(path string) {
	if err := s.storage.Delete(path); err != nil {
		log.Printf("Error removing %s: %v", path, err)
	}
}
