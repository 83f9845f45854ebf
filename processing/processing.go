package processing

import (
	"context"
	"log"
	"photovote/models"
	"photovote/realtime"
	"photovote/storage"
	"time"

	"gorm.io/gorm"
)

const (
	Skipped = 0
	Done    = 2
	Failed  = 3
)

const batchSize = 20

type processingTask interface {
	getName() string
	shouldHandle(*models.Photo) bool
	// process updates the photo fields it owns, the caller saves them
	process(*models.Photo, storage.StorageAPI) int
}

type Processor struct {
	db       *gorm.DB
	storage  storage.StorageAPI
	notifier realtime.Notifier
	tasks    []processingTask
}

func NewProcessor(db *gorm.DB, store storage.StorageAPI, notifier realtime.Notifier, thumbSize uint) *Processor {
	if notifier == nil {
		notifier = realtime.Nop{}
	}
	return &Processor{
		db:       db,
		storage:  store,
		notifier: notifier,
		tasks: []processingTask{
			&thumb{size: thumbSize},
		},
	}
}

// ProcessPending runs all tasks on photos not processed yet and returns how many were handled.
// Every photo gets one try: failed tasks are logged and the photo is still marked as processed.
func (p *Processor) ProcessPending(ctx context.Context) (int, error) {
	handled := 0
	for {
		pending := []models.Photo{}
		err := p.db.WithContext(ctx).
			Where("processed = ?", false).
			Order("id ASC").
			Limit(batchSize).
			Find(&pending).Error
		if err != nil {
			return handled, err
		}
		if len(pending) == 0 {
			return handled, nil
		}
		for i := range pending {
			if err = ctx.Err(); err != nil {
				return handled, err
			}
			if err = p.processOne(ctx, &pending[i]); err != nil {
				return handled, err
			}
			handled++
		}
	}
}

func (p *Processor) processOne(ctx context.Context, photo *models.Photo) error {
	for _, task := range p.tasks {
		status := Skipped
		start := time.Now()
		if task.shouldHandle(photo) {
			status = task.process(photo, p.storage)
		}
		log.Printf("Task %s, photo: %s, result: %d, time: %v", task.getName(), photo.ID, status, time.Since(start).Milliseconds())
	}
	photo.Processed = true
	err := p.db.WithContext(ctx).
		Model(&models.Photo{}).
		Where("id = ?", photo.ID).
		Updates(map[string]interface{}{
			"thumb_path": photo.ThumbPath,
			"thumb_size": photo.ThumbSize,
			"width":      photo.Width,
			"height":     photo.Height,
			"processed":  true,
		}).Error
	if err != nil {
		log.Printf("Error saving photo %s: %v", photo.ID, err)
		return err
	}
	p.notifier.Notify(realtime.TablePhotos, realtime.ActionUpdate, photo.ID)
	return nil
}

// Start processes pending photos every interval until ctx is done
func (p *Processor) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if n, err := p.ProcessPending(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Processing error after %d photos: %v", n, err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
