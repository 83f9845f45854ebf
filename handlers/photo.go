package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"photovote/apperr"
	"photovote/photos"
	"photovote/voting"

	"github.com/gin-gonic/gin"
)

type UploadedPhoto struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type UploadResponse struct {
	Error  string          `json:"error"`
	Photos []UploadedPhoto `json:"photos"`
	Failed []string        `json:"failed"` // file names
}

// PhotoList takes an optional "limit", "limit=all" returns every photo
func (h *Handlers) PhotoList(c *gin.Context) {
	limit := queryInt(c, "limit", photos.DefaultGalleryLimit)
	if c.Query("limit") == "all" {
		limit = photos.Unlimited
	}
	items, err := h.Gallery.List(c.Request.Context(), limit)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handlers) PhotoTop(c *gin.Context) {
	items, err := h.Gallery.Top(c.Request.Context(), queryInt(c, "n", photos.DefaultTopN))
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handlers) PhotoCounts(c *gin.Context) {
	counts, err := h.View.CountsByPhoto(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, voting.Map(counts))
}

// PhotoUpload accepts a multipart form with the uploader "name" and one or more "file" parts
func (h *Handlers) PhotoUpload(c *gin.Context) {
	ctx := c.Request.Context()
	name := c.PostForm("name")
	if err := h.Photos.CheckUpload(ctx, name); err != nil {
		errorResponse(c, err)
		return
	}
	form, err := c.MultipartForm()
	if err != nil || len(form.File["file"]) == 0 {
		errorResponse(c, fmt.Errorf("%w: no files uploaded", apperr.ErrValidation))
		return
	}
	result := UploadResponse{Photos: []UploadedPhoto{}, Failed: []string{}}
	var lastErr error
	for _, fileHeader := range form.File["file"] {
		file, err := fileHeader.Open()
		if err != nil {
			log.Printf("Cannot open uploaded %s: %v", fileHeader.Filename, err)
			result.Failed = append(result.Failed, fileHeader.Filename)
			lastErr = errors.Join(apperr.ErrValidation, err)
			continue
		}
		photo, err := h.Photos.Upload(ctx, name, fileHeader.Filename, file)
		file.Close()
		if err != nil {
			result.Failed = append(result.Failed, fileHeader.Filename)
			lastErr = err
			continue
		}
		result.Photos = append(result.Photos, UploadedPhoto{ID: photo.ID, URL: h.Storage.PublicURL(photo.StoragePath)})
	}
	if len(result.Photos) == 0 {
		errorResponse(c, lastErr)
		return
	}
	if lastErr != nil {
		result.Error = apperr.Message(lastErr)
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handlers) Media(c *gin.Context) {
	h.Storage.Serve(c.Param("path"), c.Request, c.Writer)
}
