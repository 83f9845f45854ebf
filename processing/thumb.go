package processing

import (
	"bytes"
	"log"
	"photovote/models"
	"photovote/storage"
	"photovote/utils"
)

type thumb struct {
	size uint
}

func (t *thumb) getName() string {
	return "thumb"
}

func (t *thumb) shouldHandle(photo *models.Photo) bool {
	return photo.ThumbPath == "" && photo.StoragePath != ""
}

func (t *thumb) process(photo *models.Photo, store storage.StorageAPI) int {
	original := bytes.Buffer{}
	if _, err := store.Load(photo.StoragePath, &original); err != nil {
		log.Printf("Cannot load photo %s (%s): %v", photo.ID, photo.StoragePath, err)
		return Failed
	}
	buf := bytes.Buffer{}
	converted, err := utils.CreateThumb(t.size, &original, &buf)
	if err != nil {
		log.Printf("Error creating thumbnail for %s: %v", photo.StoragePath, err)
		return Failed
	}
	thumbPath := models.ThumbPathFor(photo.ID)
	if _, err = store.Save(thumbPath, "image/jpeg", &buf); err != nil {
		log.Printf("Error saving thumbnail %s: %v", thumbPath, err)
		return Failed
	}
	photo.ThumbPath = thumbPath
	photo.ThumbSize = converted.ThumbSize
	photo.Width = converted.OldX
	photo.Height = converted.OldY
	return Done
}
