package mirror

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	appcfg "github.com/ShreyankGopal/Adobe-Hacks/internal/config"
)

// Service mirrors stored PDFs into an S3-compatible bucket so a wiped
// local disk does not lose the library.
type Service struct {
	cfg    appcfg.S3Options
	client *s3.Client
	logger *zap.Logger
}

// New returns nil when mirroring is disabled, so callers can pass the
// service around without guarding every site.
func New(cfg appcfg.S3Options, logger *zap.Logger) *Service {
	if !cfg.Enabled {
		return nil
	}

	opts := s3.Options{
		Region: cfg.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		UsePathStyle: cfg.PathStyleAccess,
	}
	if strings.TrimSpace(cfg.Endpoint) != "" {
		opts.BaseEndpoint = aws.String(strings.TrimRight(cfg.Endpoint, "/"))
	}

	return &Service{
		cfg:    cfg,
		client: s3.New(opts),
		logger: logger,
	}
}

// MirrorFile uploads the file at localPath under the configured path
// template and returns the public URL of the object.
func (s *Service) MirrorFile(ctx context.Context, localPath, filename string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open for mirror: %w", err)
	}
	defer f.Close()

	key := s.objectKey(filename)
	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/pdf"),
	}); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	url := s.publicURL(key)
	s.logger.Debug("object mirrored", zap.String("key", key), zap.String("url", url))
	return url, nil
}

func (s *Service) objectKey(filename string) string {
	now := time.Now()
	key := s.cfg.PathTemplate
	key = strings.ReplaceAll(key, "{Y}", now.Format("2006"))
	key = strings.ReplaceAll(key, "{m}", now.Format("01"))
	key = strings.ReplaceAll(key, "{d}", now.Format("02"))
	key = strings.ReplaceAll(key, "{filename}", filename)
	return strings.TrimLeft(key, "/")
}

func (s *Service) publicURL(key string) string {
	if domain := strings.TrimSpace(s.cfg.CustomDomain); domain != "" {
		return strings.TrimRight(domain, "/") + "/" + key
	}
	if endpoint := strings.TrimSpace(s.cfg.Endpoint); endpoint != "" {
		base := strings.TrimRight(endpoint, "/")
		if s.cfg.PathStyleAccess {
			return fmt.Sprintf("%s/%s/%s", base, s.cfg.Bucket, key)
		}
		return fmt.Sprintf("%s/%s", base, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}
