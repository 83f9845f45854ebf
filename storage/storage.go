package storage

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"strings"
)

var ErrInvalidPath = errors.New("invalid storage path")

type StorageAPI interface {
	Save(path, mimeType string, reader io.Reader) (int64, error)
	Load(path string, writer io.Writer) (int64, error)
	Serve(path string, request *http.Request, writer http.ResponseWriter)
	Delete(path string) error
	// PublicURL is what clients use to fetch the file
	PublicURL(path string) string
	GetBucket() *Bucket
}

type Storage struct {
	Bucket Bucket
}

func (s *Storage) GetBucket() *Bucket {
	return &s.Bucket
}

var defaultStorage StorageAPI

// Init creates the storage described by the config, used by GetDefaultStorage
func Init() {
	bucket := BucketFromConfig()
	storage, err := NewStorage(&bucket)
	if err != nil {
		panic(err)
	}
	log.Printf("Storage: %s (type %d) at %q", bucket.Name, bucket.StorageType, bucket.Path)
	defaultStorage = storage
}

func NewStorage(bucket *Bucket) (StorageAPI, error) {
	switch bucket.StorageType {
	case StorageTypeFile:
		if err := bucket.Prepare(); err != nil {
			return nil, err
		}
		return NewDiskStorage(bucket), nil
	case StorageTypeS3:
		if bucket.Name == "" {
			return nil, errors.New("S3_BUCKET must be configured for S3 storage")
		}
		return NewS3Storage(bucket)
	}
	return nil, fmt.Errorf("storage type %d unavailable", bucket.StorageType)
}

func GetDefaultStorage() StorageAPI {
	if defaultStorage == nil {
		panic("no storage available")
	}
	return defaultStorage
}

// CleanPath normalizes a relative storage path and rejects anything escaping the bucket
func CleanPath(p string) (string, error) {
	p = strings.TrimLeft(strings.ReplaceAll(p, "\\", "/"), "/")
	if p == "" {
		return "", ErrInvalidPath
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}
