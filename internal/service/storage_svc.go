package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"harvest_hub_v2_202601/internal/apperr"
)

// ==================== 接口定义 ====================

// StorageProvider 存储提供者接口
type StorageProvider interface {
	// Upload 上传文件，返回公开访问URL
	Upload(ctx context.Context, data []byte, filename string, contentType string) (url string, err error)

	// Delete 删除文件（回滚部分上传时使用）
	Delete(ctx context.Context, url string) error
}

// ==================== 配置 ====================

type StorageConfig struct {
	Provider  string // "s3" | "cloudinary" | "local"
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string // 自定义端点
	CDNDomain string // CDN域名 (可选)
	BasePath  string // 基础路径前缀

	// Cloudinary 专用
	CloudName string
}

// ==================== 工厂方法 ====================

func NewStorageProvider(cfg *StorageConfig) (StorageProvider, error) {
	switch cfg.Provider {
	case "s3":
		return NewS3Storage(cfg)
	case "cloudinary":
		return NewCloudinaryStorage(cfg)
	case "local":
		return NewLocalStorage(cfg)
	default:
		return nil, fmt.Errorf("不支持的存储提供者: %s", cfg.Provider)
	}
}

// ==================== StorageService ====================

// StorageService 存储服务，在 Provider 之上提供批量上传语义
type StorageService struct {
	provider StorageProvider
	config   *StorageConfig
}

// NewStorageService 创建存储服务
func NewStorageService(cfg *StorageConfig) (*StorageService, error) {
	provider, err := NewStorageProvider(cfg)
	if err != nil {
		return nil, err
	}
	return &StorageService{
		provider: provider,
		config:   cfg,
	}, nil
}

// NewStorageServiceWith 注入自定义 Provider（测试用）
func NewStorageServiceWith(provider StorageProvider) *StorageService {
	return &StorageService{provider: provider}
}

// Upload 上传单个文件
func (s *StorageService) Upload(ctx context.Context, data []byte, filename string, contentType string) (string, error) {
	return s.provider.Upload(ctx, data, filename, contentType)
}

// Delete 删除文件
func (s *StorageService) Delete(ctx context.Context, url string) error {
	return s.provider.Delete(ctx, url)
}

// UploadFile 批量上传的输入单元
type UploadFile struct {
	Data        []byte
	Filename    string
	ContentType string
}

// UploadBatch 全有或全无的批量上传
// 任意一个失败时，尽力删除已经传成功的文件，然后整体失败
// 不允许留下"部分上传"的商品图片
func (s *StorageService) UploadBatch(ctx context.Context, files []UploadFile) ([]string, error) {
	urls := make([]string, 0, len(files))

	for i, f := range files {
		url, err := s.provider.Upload(ctx, f.Data, f.Filename, f.ContentType)
		if err != nil {
			s.rollback(ctx, urls)
			return nil, apperr.Upload(fmt.Sprintf("第 %d 张图片上传失败", i+1), err)
		}
		urls = append(urls, url)
	}

	return urls, nil
}

// rollback 尽力删除已上传的文件，失败只记日志
func (s *StorageService) rollback(ctx context.Context, urls []string) {
	for _, url := range urls {
		if err := s.provider.Delete(ctx, url); err != nil {
			log.Printf("[Storage] 回滚删除失败 %s: %v", url, err)
		}
	}
}

// ==================== S3 实现 ====================

type S3Storage struct {
	client    *s3.Client
	bucket    string
	region    string
	cdnDomain string
	basePath  string
}

func NewS3Storage(cfg *StorageConfig) (*S3Storage, error) {
	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("加载AWS配置失败: %v", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{
		client:    client,
		bucket:    cfg.Bucket,
		region:    cfg.Region,
		cdnDomain: cfg.CDNDomain,
		basePath:  cfg.BasePath,
	}, nil
}

func (s *S3Storage) Upload(ctx context.Context, data []byte, filename string, contentType string) (string, error) {
	key := s.generateKey(filename)

	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("上传S3失败: %v", err)
	}

	return s.getPublicURL(key), nil
}

func (s *S3Storage) Delete(ctx context.Context, url string) error {
	key := s.extractKey(url)
	if key == "" {
		return fmt.Errorf("无法解析文件路径")
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

func (s *S3Storage) generateKey(filename string) string {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".jpg"
	}
	newFilename := fmt.Sprintf("%s%s", uuid.New().String(), ext)

	datePath := time.Now().Format("2006/01/02")
	if s.basePath != "" {
		return fmt.Sprintf("%s/%s/%s", s.basePath, datePath, newFilename)
	}
	return fmt.Sprintf("%s/%s", datePath, newFilename)
}

func (s *S3Storage) getPublicURL(key string) string {
	if s.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", s.cdnDomain, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

func (s *S3Storage) extractKey(url string) string {
	if s.cdnDomain != "" && strings.Contains(url, s.cdnDomain) {
		return strings.TrimPrefix(url, fmt.Sprintf("https://%s/", s.cdnDomain))
	}
	prefix := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", s.bucket, s.region)
	return strings.TrimPrefix(url, prefix)
}

// ==================== Cloudinary 实现 ====================

// CloudinaryStorage 通过 Cloudinary 无签名上传接口存储图片
type CloudinaryStorage struct {
	client    *resty.Client
	cloudName string
	apiKey    string
	apiSecret string
}

type cloudinaryUploadResp struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewCloudinaryStorage(cfg *StorageConfig) (*CloudinaryStorage, error) {
	if cfg.CloudName == "" {
		return nil, fmt.Errorf("cloudinary 需要配置 CloudName")
	}

	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetRetryCount(2)

	return &CloudinaryStorage{
		client:    client,
		cloudName: cfg.CloudName,
		apiKey:    cfg.AccessKey,
		apiSecret: cfg.SecretKey,
	}, nil
}

func (s *CloudinaryStorage) Upload(ctx context.Context, data []byte, filename string, contentType string) (string, error) {
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	// Cloudinary 接受 data URI 形式的 file 参数
	dataURI := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))

	var result cloudinaryUploadResp
	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"file":    dataURI,
			"api_key": s.apiKey,
		}).
		SetResult(&result).
		SetError(&result).
		Post(fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/upload", s.cloudName))

	if err != nil {
		return "", fmt.Errorf("cloudinary 请求失败: %v", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("cloudinary 异常 [%d]: %s", resp.StatusCode(), result.Error.Message)
	}
	if result.SecureURL == "" {
		return "", fmt.Errorf("cloudinary 未返回访问 URL")
	}

	return result.SecureURL, nil
}

func (s *CloudinaryStorage) Delete(ctx context.Context, url string) error {
	// public_id 即 URL 最后一段去掉扩展名
	base := filepath.Base(url)
	publicID := strings.TrimSuffix(base, filepath.Ext(base))
	if publicID == "" {
		return fmt.Errorf("无法解析 public_id")
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"public_id": publicID,
			"api_key":   s.apiKey,
		}).
		Post(fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/destroy", s.cloudName))

	if err != nil {
		return fmt.Errorf("cloudinary 删除失败: %v", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("cloudinary 删除异常 [%d]", resp.StatusCode())
	}
	return nil
}

// ==================== 本地存储 (开发测试用) ====================

type LocalStorage struct {
	basePath string
	baseURL  string
}

func NewLocalStorage(cfg *StorageConfig) (*LocalStorage, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "./uploads"
	}
	baseURL := cfg.Endpoint
	if baseURL == "" {
		baseURL = "http://localhost:8080/uploads"
	}

	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %v", err)
	}

	return &LocalStorage{
		basePath: basePath,
		baseURL:  baseURL,
	}, nil
}

func (s *LocalStorage) Upload(ctx context.Context, data []byte, filename string, contentType string) (string, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".jpg"
	}
	name := fmt.Sprintf("%s%s", uuid.New().String(), ext)

	if err := os.WriteFile(filepath.Join(s.basePath, name), data, 0o644); err != nil {
		return "", fmt.Errorf("写入本地文件失败: %v", err)
	}
	return fmt.Sprintf("%s/%s", s.baseURL, name), nil
}

func (s *LocalStorage) Delete(ctx context.Context, url string) error {
	name := filepath.Base(url)
	if name == "" || name == "." {
		return fmt.Errorf("无法解析文件路径")
	}
	err := os.Remove(filepath.Join(s.basePath, name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
