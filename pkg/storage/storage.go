package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Storage is an interface for reading reports and writing results
// Supports both local filesystem and S3
type Storage interface {
	// ReadFile reads a file relative to the base path
	ReadFile(name string) ([]byte, error)

	// WriteFile writes a file relative to the base path
	WriteFile(name string, data []byte) error

	// MkdirAll creates the base directory structure
	MkdirAll() error

	// GetBasePath returns the base path
	GetBasePath() string
}

// LocalStorage implements Storage for local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local storage backend
func NewLocalStorage(basePath string) *LocalStorage {
	return &LocalStorage{basePath: basePath}
}

func (s *LocalStorage) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.basePath, name))
}

func (s *LocalStorage) WriteFile(name string, data []byte) error {
	fullPath := filepath.Join(s.basePath, name)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(fullPath, data, 0644)
}

func (s *LocalStorage) MkdirAll() error {
	return os.MkdirAll(s.basePath, 0755)
}

func (s *LocalStorage) GetBasePath() string {
	return s.basePath
}

// S3Storage implements Storage for AWS S3
type S3Storage struct {
	bucket     string
	prefix     string
	client     *s3.Client
	uploader   *manager.Uploader
	downloader *manager.Downloader
	ctx        context.Context
}

// NewS3Storage creates a new S3 storage backend
// path should be in format: s3://bucket/prefix
func NewS3Storage(ctx context.Context, path string) (*S3Storage, error) {
	uri, err := ParseS3URI(path)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)

	return &S3Storage{
		bucket:     uri.Bucket,
		prefix:     strings.TrimSuffix(uri.Prefix, "/"),
		client:     client,
		uploader:   manager.NewUploader(client),
		downloader: manager.NewDownloader(client),
		ctx:        ctx,
	}, nil
}

func (s *S3Storage) getFullKey(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

func (s *S3Storage) ReadFile(name string) ([]byte, error) {
	key := s.getFullKey(name)

	buf := manager.NewWriteAtBuffer([]byte{})
	_, err := s.downloader.Download(s.ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download s3://%s/%s: %w", s.bucket, key, err)
	}

	return buf.Bytes(), nil
}

func (s *S3Storage) WriteFile(name string, data []byte) error {
	key := s.getFullKey(name)

	_, err := s.uploader.Upload(s.ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to s3://%s/%s: %w", s.bucket, key, err)
	}

	return nil
}

func (s *S3Storage) MkdirAll() error {
	// S3 doesn't have directories, so this is a no-op
	return nil
}

func (s *S3Storage) GetBasePath() string {
	if s.prefix == "" {
		return fmt.Sprintf("s3://%s", s.bucket)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.prefix)
}

// S3URI represents a parsed S3 URI
type S3URI struct {
	Bucket string
	Prefix string
}

// ParseS3URI parses an S3 URI like s3://bucket/path/to/object
func ParseS3URI(uri string) (*S3URI, error) {
	if !IsS3URI(uri) {
		return nil, fmt.Errorf("invalid S3 URI %q: must start with s3://", uri)
	}

	parts := strings.SplitN(strings.TrimPrefix(uri, "s3://"), "/", 2)
	if parts[0] == "" {
		return nil, fmt.Errorf("invalid S3 URI %q: missing bucket name", uri)
	}

	out := &S3URI{Bucket: parts[0]}
	if len(parts) == 2 {
		out.Prefix = parts[1]
	}
	return out, nil
}

// IsS3URI checks if a path is an S3 URI
func IsS3URI(path string) bool {
	return strings.HasPrefix(path, "s3://")
}

// NewStorage creates the appropriate storage backend based on path
func NewStorage(ctx context.Context, path string) (Storage, error) {
	if IsS3URI(path) {
		return NewS3Storage(ctx, path)
	}
	return NewLocalStorage(path), nil
}

// splitURI separates a file location into its directory and base name.
// An s3:// URI must name an object key below the bucket.
func splitURI(uri string) (dir, name string, err error) {
	if IsS3URI(uri) {
		u, perr := ParseS3URI(uri)
		if perr != nil {
			return "", "", perr
		}
		if u.Prefix == "" || strings.HasSuffix(u.Prefix, "/") {
			return "", "", fmt.Errorf("invalid S3 URI %q: missing object key", uri)
		}
		dir = "s3://" + u.Bucket
		i := strings.LastIndex(u.Prefix, "/")
		if i >= 0 {
			dir += "/" + u.Prefix[:i]
		}
		return dir, u.Prefix[i+1:], nil
	}

	i := strings.LastIndex(uri, "/")
	switch {
	case i < 0:
		dir, name = ".", uri
	case i == 0:
		dir, name = "/", uri[1:]
	default:
		dir, name = uri[:i], uri[i+1:]
	}
	if name == "" {
		return "", "", fmt.Errorf("%s: not a file", uri)
	}
	return dir, name, nil
}

// ReadSource reads a single file given by a local path or an s3:// URI and
// returns its contents, decompressed when gzip or zstd framing is detected.
func ReadSource(ctx context.Context, uri string) ([]byte, error) {
	dir, name, err := splitURI(uri)
	if err != nil {
		return nil, err
	}

	store, err := NewStorage(ctx, dir)
	if err != nil {
		return nil, err
	}

	data, err := store.ReadFile(name)
	if err != nil {
		return nil, err
	}

	return Decompress(data)
}

// WriteDestination writes data to a single file given by a local path or an
// s3:// URI, compressing it when the name ends in .gz or .zst.
func WriteDestination(ctx context.Context, uri string, data []byte) error {
	dir, name, err := splitURI(uri)
	if err != nil {
		return err
	}

	store, err := NewStorage(ctx, dir)
	if err != nil {
		return err
	}

	return WriteCompressed(store, name, data)
}
