package storage

import (
	"os"
	"photovote/config"
	"strings"
)

type StorageType uint8

const (
	StorageTypeFile StorageType = 0
	StorageTypeS3   StorageType = 1
)

// Thumbnails live next to the originals under this prefix
const StorageLocationThumbs = "thumbs"

// Bucket describes where photos are kept. There is exactly one per deployment, built from the config.
type Bucket struct {
	Name        string // S3 bucket name, unused for disk storage
	StorageType StorageType
	Path        string // Path on a drive or a prefix in a S3 bucket
	Region      string
	Endpoint    string
	AuthDetails string // In case of S3 bucket - "key:secret", empty means the default AWS credential chain
	// PublicURL is the URL prefix files are reachable at. Empty for private S3 buckets (pre-signed URLs are used).
	PublicURL string
}

func BucketFromConfig() Bucket {
	if strings.EqualFold(config.STORAGE_TYPE, "s3") {
		b := Bucket{
			Name:        config.S3_BUCKET,
			StorageType: StorageTypeS3,
			Path:        strings.Trim(config.S3_PREFIX, "/"),
			Region:      config.S3_REGION,
			Endpoint:    config.S3_ENDPOINT,
			PublicURL:   strings.TrimRight(config.S3_PUBLIC_URL, "/"),
		}
		if config.S3_KEY != "" {
			b.AuthDetails = config.S3_KEY + ":" + config.S3_SECRET
		}
		return b
	}
	return Bucket{
		Name:        "local",
		StorageType: StorageTypeFile,
		Path:        strings.TrimRight(config.STORAGE_DIR, "/"),
		PublicURL:   strings.TrimRight(config.MEDIA_URL_PREFIX, "/"),
	}
}

// Prepare pre-creates the locations on disk
func (b *Bucket) Prepare() error {
	if b.StorageType != StorageTypeFile {
		return nil
	}
	return os.MkdirAll(b.Path+"/"+StorageLocationThumbs, 0777)
}

// GetRemotePath returns the S3 object key of path
func (b *Bucket) GetRemotePath(path string) string {
	if b.Path == "" {
		return path
	}
	return b.Path + "/" + path
}

func (b *Bucket) credentials() (key, secret string) {
	key, secret, _ = strings.Cut(b.AuthDetails, ":")
	return
}
