package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"victorina_backend/internal/config"
	"victorina_backend/internal/util"
	"victorina_backend/pkg/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// LocalURLPrefix is where locally stored files are served from.
const LocalURLPrefix = "/uploads"

// ObjectStore saves an object under key and returns the URL clients fetch it from.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

type LocalStore struct {
	Root string
}

func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	dst := filepath.Join(s.Root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dst)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return LocalURLPrefix + "/" + key, nil
}

type MinioStore struct {
	Client *minio.Client
	Bucket string
}

// NewMinioStore connects and creates the bucket when it is missing.
func NewMinioStore(ctx context.Context, cfg *config.StorageConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.MinioBucket, err)
		}
	}
	return &MinioStore{Client: client, Bucket: cfg.MinioBucket}, nil
}

func (s *MinioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	info, err := s.Client.PutObject(ctx, s.Bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", err
	}
	return "/" + info.Bucket + "/" + info.Key, nil
}

// StorageService stores uploaded images in MinIO when configured and
// reachable, on local disk otherwise.
type StorageService struct {
	store ObjectStore
	local string
}

func NewStorageService(cfg *config.Config) *StorageService {
	if cfg.Storage.Type == util.StorageMinio {
		store, err := NewMinioStore(context.Background(), &cfg.Storage)
		if err == nil {
			return &StorageService{store: store}
		}
		logger.Log.Warn("MinIO unavailable, storing uploads on local disk",
			zap.String("endpoint", cfg.Storage.MinioEndpoint), zap.Error(err))
	}
	return &StorageService{
		store: &LocalStore{Root: cfg.Storage.LocalPath},
		local: cfg.Storage.LocalPath,
	}
}

// LocalRoot reports the directory to serve under LocalURLPrefix, if files
// are kept on local disk.
func (s *StorageService) LocalRoot() (string, bool) {
	return s.local, s.local != ""
}

// Upload rejects keys that would escape the storage root.
func (s *StorageService) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	clean := strings.TrimPrefix(path.Clean("/"+key), "/")
	if clean == "" || clean != key {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return s.store.Put(ctx, clean, r, size, contentType)
}
