package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"lead-workflow/internal/logger"
	"lead-workflow/internal/metrics"
)

const (
	defaultFolder  = "leads"
	StatusUploaded = "uploaded"
)

var ErrForeignURL = errors.New("url is not served by this media store")

// FileStore keeps uploaded bytes and hands back a durable URL.
type FileStore interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
	DeleteByURL(ctx context.Context, fileURL string) error
}

type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewMinioStore(client *minio.Client, bucket, publicURL string) *MinioStore {
	return &MinioStore{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

func (s *MinioStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, key), nil
}

func (s *MinioStore) DeleteByURL(ctx context.Context, fileURL string) error {
	key, err := objectKeyFromURL(s.publicURL, s.bucket, fileURL)
	if err != nil {
		return err
	}
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

// objectKeyFromURL inverts Put's URL layout: <publicURL>/<bucket>/<key>.
func objectKeyFromURL(publicURL, bucket, fileURL string) (string, error) {
	prefix := strings.TrimRight(publicURL, "/") + "/" + bucket + "/"
	if !strings.HasPrefix(fileURL, prefix) {
		return "", fmt.Errorf("%w: %s", ErrForeignURL, fileURL)
	}
	key, err := url.PathUnescape(strings.TrimPrefix(fileURL, prefix))
	if err != nil || key == "" {
		return "", fmt.Errorf("%w: %s", ErrForeignURL, fileURL)
	}
	return key, nil
}

// UploadFile is one file of a multipart submission.
type UploadFile struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// UploadResult reports one file. Failures are carried in Status, never
// returned as an error.
type UploadResult struct {
	FileName string `json:"fileName"`
	URL      string `json:"url,omitempty"`
	Status   string `json:"status"`
}

func (r UploadResult) OK() bool { return r.Status == StatusUploaded }

type MediaService struct {
	store   FileStore
	metrics *metrics.Metrics
	log     logger.Logger
	newKey  func(folder, name string) string
}

func NewMediaService(store FileStore, m *metrics.Metrics, log logger.Logger) *MediaService {
	return &MediaService{
		store:   store,
		metrics: m,
		log:     log.With("component", "media"),
		newKey: func(folder, name string) string {
			return fmt.Sprintf("%s/%s_%s", folder, uuid.NewString(), name)
		},
	}
}

// Upload stores every file independently; one failure does not stop the rest.
func (s *MediaService) Upload(ctx context.Context, folder string, files []UploadFile) []UploadResult {
	folder = cleanFolder(folder)
	results := make([]UploadResult, 0, len(files))
	for _, f := range files {
		result := UploadResult{FileName: f.Name}
		fileURL, err := s.uploadOne(ctx, folder, f)
		if err != nil {
			result.Status = "failed: " + err.Error()
			s.log.Warn("file upload failed", "file", f.Name, "error", err)
		} else {
			result.URL = fileURL
			result.Status = StatusUploaded
		}
		s.metrics.FileUploaded(err == nil)
		results = append(results, result)
	}
	return results
}

func (s *MediaService) uploadOne(ctx context.Context, folder string, f UploadFile) (string, error) {
	reader, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer reader.Close()

	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return s.store.Put(ctx, s.newKey(folder, cleanFileName(f.Name)), reader, f.Size, contentType)
}

func (s *MediaService) DeleteByURL(ctx context.Context, fileURL string) error {
	if fileURL == "" {
		return nil
	}
	return s.store.DeleteByURL(ctx, fileURL)
}

func AllUploaded(results []UploadResult) bool {
	for _, r := range results {
		if !r.OK() {
			return false
		}
	}
	return true
}

func cleanFolder(folder string) string {
	folder = strings.Trim(path.Clean("/"+folder), "/")
	if folder == "" || folder == "." {
		return defaultFolder
	}
	return folder
}

func cleanFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" || name == "." || name == "/" {
		return "file"
	}
	return name
}
