package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"signlearn_backend/internal/config"
	"signlearn_backend/internal/util"
	"signlearn_backend/pkg/logger"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// StorageProvider 手势图片与视频的对象存储
type StorageProvider interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
	UploadFile(ctx context.Context, key string, localPath string, contentType string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	GetURL(key string) string
	// KeyFromURL 反解 GetURL 生成的地址，非本存储的地址返回 false
	KeyFromURL(url string) (string, bool)
}

type LocalStorageProvider struct {
	Config *config.StorageConfig
}

const localURLPrefix = "/uploads/"

func (p *LocalStorageProvider) path(key string) string {
	return filepath.Join(p.Config.LocalPath, filepath.FromSlash(key))
}

func (p *LocalStorageProvider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	dst := p.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", err
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return "", err
	}
	return p.GetURL(key), nil
}

func (p *LocalStorageProvider) UploadFile(ctx context.Context, key string, localPath string, contentType string) (string, error) {
	if filepath.Clean(localPath) == filepath.Clean(p.path(key)) {
		return p.GetURL(key), nil
	}
	src, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer src.Close()
	return p.Upload(ctx, key, src, -1, contentType)
}

func (p *LocalStorageProvider) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if strings.Contains(key, "..") {
		return nil, util.ErrInvalidInput
	}
	f, err := os.Open(p.path(key))
	if os.IsNotExist(err) {
		return nil, util.ErrNotFound
	}
	return f, err
}

func (p *LocalStorageProvider) Delete(ctx context.Context, key string) error {
	return os.Remove(p.path(key))
}

func (p *LocalStorageProvider) GetURL(key string) string {
	return localURLPrefix + key
}

func (p *LocalStorageProvider) KeyFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, localURLPrefix) {
		return "", false
	}
	return strings.TrimPrefix(url, localURLPrefix), true
}

type MinioStorageProvider struct {
	Config *config.StorageConfig
	Client *minio.Client
}

func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: false,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorageProvider{Config: cfg, Client: client}, nil
}

func (p *MinioStorageProvider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := p.Client.PutObject(ctx, p.Config.MinioBucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return p.GetURL(key), nil
}

func (p *MinioStorageProvider) UploadFile(ctx context.Context, key string, localPath string, contentType string) (string, error) {
	_, err := p.Client.FPutObject(ctx, p.Config.MinioBucket, key, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return p.GetURL(key), nil
}

func (p *MinioStorageProvider) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := p.Client.GetObject(ctx, p.Config.MinioBucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	return obj, nil
}

func (p *MinioStorageProvider) Delete(ctx context.Context, key string) error {
	return p.Client.RemoveObject(ctx, p.Config.MinioBucket, key, minio.RemoveObjectOptions{})
}

func (p *MinioStorageProvider) GetURL(key string) string {
	return "/" + p.Config.MinioBucket + "/" + key
}

func (p *MinioStorageProvider) KeyFromURL(url string) (string, bool) {
	prefix := "/" + p.Config.MinioBucket + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

type OSSStorageProvider struct {
	Config *config.StorageConfig
	Client *oss.Client
}

func NewOSSStorageProvider(cfg *config.StorageConfig) (*OSSStorageProvider, error) {
	client, err := oss.New(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSSecretKey)
	if err != nil {
		return nil, err
	}
	return &OSSStorageProvider{Config: cfg, Client: client}, nil
}

func (p *OSSStorageProvider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return "", err
	}
	if err := bucket.PutObject(key, reader, oss.ContentType(contentType)); err != nil {
		return "", err
	}
	return p.GetURL(key), nil
}

func (p *OSSStorageProvider) UploadFile(ctx context.Context, key string, localPath string, contentType string) (string, error) {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return "", err
	}
	if err := bucket.PutObjectFromFile(key, localPath, oss.ContentType(contentType)); err != nil {
		return "", err
	}
	return p.GetURL(key), nil
}

func (p *OSSStorageProvider) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return nil, err
	}
	body, err := bucket.GetObject(key)
	if err != nil {
		if svcErr, ok := err.(oss.ServiceError); ok && svcErr.StatusCode == 404 {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	return body, nil
}

func (p *OSSStorageProvider) Delete(ctx context.Context, key string) error {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return err
	}
	return bucket.DeleteObject(key)
}

func (p *OSSStorageProvider) GetURL(key string) string {
	return fmt.Sprintf("https://%s.%s/%s", p.Config.OSSBucket, p.Config.OSSEndpoint, key)
}

func (p *OSSStorageProvider) KeyFromURL(url string) (string, bool) {
	prefix := fmt.Sprintf("https://%s.%s/", p.Config.OSSBucket, p.Config.OSSEndpoint)
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

type StorageService struct {
	Provider StorageProvider
}

// NewStorageService 按配置选择存储，远端存储初始化失败时回退到本地
func NewStorageService(cfg *config.StorageConfig) *StorageService {
	var provider StorageProvider
	switch cfg.Type {
	case util.StorageMinio:
		p, err := NewMinioStorageProvider(cfg)
		if err != nil {
			logger.Log.Error("Failed to init MinIO storage, falling back to local", zap.Error(err))
		} else {
			provider = p
		}
	case util.StorageOSS:
		p, err := NewOSSStorageProvider(cfg)
		if err != nil {
			logger.Log.Error("Failed to init OSS storage, falling back to local", zap.Error(err))
		} else {
			provider = p
		}
	}

	if provider == nil {
		provider = &LocalStorageProvider{Config: cfg}
	}
	return &StorageService{Provider: provider}
}

func (s *StorageService) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	return s.Provider.Upload(ctx, key, reader, size, contentType)
}

func (s *StorageService) UploadFile(ctx context.Context, key string, localPath string, contentType string) (string, error) {
	return s.Provider.UploadFile(ctx, key, localPath, contentType)
}

func (s *StorageService) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.Provider.Open(ctx, key)
}

func (s *StorageService) Delete(ctx context.Context, key string) error {
	return s.Provider.Delete(ctx, key)
}

func (s *StorageService) GetURL(key string) string {
	return s.Provider.GetURL(key)
}

func (s *StorageService) KeyFromURL(url string) (string, bool) {
	return s.Provider.KeyFromURL(url)
}
