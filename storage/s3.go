package storage

import (
	"io"
	"log"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

const presignViewURLFor = 24 * time.Hour

type S3Storage struct {
	Storage
	s3Client *s3.S3
}

func NewS3Storage(bucket *Bucket) (*S3Storage, error) {
	cfg := aws.NewConfig().WithRegion(bucket.Region)
	if bucket.Endpoint != "" {
		// S3 compatible services mostly need path style addressing
		cfg = cfg.WithEndpoint(bucket.Endpoint).WithS3ForcePathStyle(true)
	}
	if bucket.AuthDetails != "" {
		key, secret := bucket.credentials()
		cfg = cfg.WithCredentials(credentials.NewStaticCredentials(key, secret, ""))
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	return &S3Storage{
		Storage: Storage{
			Bucket: *bucket,
		},
		s3Client: s3.New(sess),
	}, nil
}

func (s *S3Storage) key(path string) (*string, error) {
	cleaned, err := CleanPath(path)
	if err != nil {
		return nil, err
	}
	return aws.String(s.Bucket.GetRemotePath(cleaned)), nil
}

func (s *S3Storage) Save(path, mimeType string, reader io.Reader) (int64, error) {
	key, err := s.key(path)
	if err != nil {
		return 0, err
	}
	counter := &countingReader{Reader: reader}
	uploader := s3manager.NewUploaderWithClient(s.s3Client)
	_, err = uploader.Upload(&s3manager.UploadInput{
		Bucket:      &s.Bucket.Name,
		Key:         key,
		ContentType: &mimeType,
		Body:        counter,
	})
	return counter.n, err
}

func (s *S3Storage) Load(path string, writer io.Writer) (int64, error) {
	key, err := s.key(path)
	if err != nil {
		return 0, err
	}
	resp, err := s.s3Client.GetObject(&s3.GetObjectInput{
		Bucket: &s.Bucket.Name,
		Key:    key,
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return io.Copy(writer, resp.Body)
}

// Serve redirects to the public or pre-signed object URL
func (s *S3Storage) Serve(path string, request *http.Request, writer http.ResponseWriter) {
	url := s.PublicURL(path)
	if url == "" {
		http.NotFound(writer, request)
		return
	}
	http.Redirect(writer, request, url, http.StatusTemporaryRedirect)
}

func (s *S3Storage) Delete(path string) error {
	key, err := s.key(path)
	if err != nil {
		return err
	}
	_, err = s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: &s.Bucket.Name,
		Key:    key,
	})
	return err
}

func (s *S3Storage) PublicURL(path string) string {
	key, err := s.key(path)
	if err != nil {
		return ""
	}
	if s.Bucket.PublicURL != "" {
		return s.Bucket.PublicURL + "/" + *key
	}
	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: &s.Bucket.Name,
		Key:    key,
	})
	url, err := req.Presign(presignViewURLFor)
	if err != nil {
		log.Printf("S3 presign %s: %v", *key, err)
		return ""
	}
	return url
}

type countingReader struct {
	io.Reader
	n int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.Reader.Read(p)
	r.n += int64(n)
	return n, err
}
