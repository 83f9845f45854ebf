package config

import (
	"os"
	"strconv"
	"strings"
)

var (
	TLS_DOMAINS  = ""             // e.g. "photos.example.com,vote.example.com"
	MYSQL_DSN    = ""             // MySQL will be used if this is set
	SQLITE_FILE  = "photovote.db" // SQLite will be used if MYSQL_DSN is not configured
	BIND_ADDRESS = "0.0.0.0:8080"
	DEBUG_MODE   = true
	// Admin endpoints answer with an error until ADMIN_KEY is configured
	ADMIN_KEY   = ""
	SESSION_KEY = "change me: session cookie secret"
	// Storage: "file" keeps photos under STORAGE_DIR and serves them from MEDIA_URL_PREFIX,
	// "s3" uploads them to S3_BUCKET. S3_PUBLIC_URL is used for public links if the bucket is public,
	// otherwise pre-signed URLs are handed out.
	STORAGE_TYPE     = "file"
	STORAGE_DIR      = "./data"
	MEDIA_URL_PREFIX = "/media" // files are served at /media, set to a CDN URL fronting it if there is one
	S3_BUCKET        = ""
	S3_REGION        = "us-east-1"
	S3_ENDPOINT      = "" // for S3 compatible services (MinIO, R2, etc)
	S3_KEY           = ""
	S3_SECRET        = ""
	S3_PREFIX        = ""
	S3_PUBLIC_URL    = ""
	// Photos
	THUMB_SIZE              = 640
	MAX_UPLOAD_MB           = 25
	PROCESSING_INTERVAL_SEC = 10
	// Initial state of the settings row, only used when the row doesn't exist yet
	DEFAULT_UPLOADING_OPEN = true
	DEFAULT_VOTING_OPEN    = true
)

func init() {
	Load()
}

// Load (re-)reads all values from the environment
func Load() {
	readEnvString("TLS_DOMAINS", &TLS_DOMAINS)
	readEnvString("MYSQL_DSN", &MYSQL_DSN)
	readEnvString("SQLITE_FILE", &SQLITE_FILE)
	readEnvString("BIND_ADDRESS", &BIND_ADDRESS)
	readEnvBool("DEBUG_MODE", &DEBUG_MODE)
	readEnvString("ADMIN_KEY", &ADMIN_KEY)
	readEnvString("SESSION_KEY", &SESSION_KEY)
	readEnvString("STORAGE_TYPE", &STORAGE_TYPE)
	readEnvString("STORAGE_DIR", &STORAGE_DIR)
	readEnvString("MEDIA_URL_PREFIX", &MEDIA_URL_PREFIX)
	readEnvString("S3_BUCKET", &S3_BUCKET)
	readEnvString("S3_REGION", &S3_REGION)
	readEnvString("S3_ENDPOINT", &S3_ENDPOINT)
	readEnvString("S3_KEY", &S3_KEY)
	readEnvString("S3_SECRET", &S3_SECRET)
	readEnvString("S3_PREFIX", &S3_PREFIX)
	readEnvString("S3_PUBLIC_URL", &S3_PUBLIC_URL)
	readEnvInt("THUMB_SIZE", &THUMB_SIZE)
	readEnvInt("MAX_UPLOAD_MB", &MAX_UPLOAD_MB)
	readEnvInt("PROCESSING_INTERVAL_SEC", &PROCESSING_INTERVAL_SEC)
	readEnvBool("DEFAULT_UPLOADING_OPEN", &DEFAULT_UPLOADING_OPEN)
	readEnvBool("DEFAULT_VOTING_OPEN", &DEFAULT_VOTING_OPEN)
}

func readEnvString(name string, value *string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	*value = v
}

func readEnvBool(name string, value *bool) {
	v := strings.ToLower(os.Getenv(name))
	if v == "true" || v == "1" || v == "yes" || v == "on" {
		*value = true
	} else if v == "false" || v == "0" || v == "no" || v == "off" {
		*value = false
	}
}

func readEnvInt(name string, value *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	f, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*value = f
}
