package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/javajoker/storefront/internal/config"
	"github.com/javajoker/storefront/internal/models"
)

//go:embed data/data.json
var embeddedCatalog []byte

// NewSource picks the source named in the configuration.
func NewSource(cfg config.CatalogConfig, awsCfg config.AWSConfig) (Source, error) {
	switch models.CatalogSource(cfg.Source) {
	case models.CatalogSourceEmbedded:
		return EmbeddedSource{}, nil
	case models.CatalogSourceFile:
		return FileSource{Path: cfg.Path}, nil
	case models.CatalogSourceHTTP:
		return NewHTTPSource(cfg.URL, time.Duration(cfg.FetchTimeout)*time.Second), nil
	case models.CatalogSourceS3:
		return NewS3Source(awsCfg, cfg.S3Bucket, cfg.S3Key)
	default:
		return nil, fmt.Errorf("unsupported catalog source %q", cfg.Source)
	}
}

// EmbeddedSource serves the catalog compiled into the binary.
type EmbeddedSource struct{}

func (EmbeddedSource) Name() string { return "embedded" }

func (EmbeddedSource) Fetch(ctx context.Context) ([]models.ProductRecord, error) {
	return decode(bytes.NewReader(embeddedCatalog))
}

type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return "file:" + s.Path }

func (s FileSource) Fetch(ctx context.Context) ([]models.ProductRecord, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decode(f)
}

type HTTPSource struct {
	URL    string
	Client *http.Client
}

func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Name() string { return s.URL }

func (s *HTTPSource) Fetch(ctx context.Context) ([]models.ProductRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return decode(resp.Body)
}

// S3Source reads the catalog JSON from an S3 object.
type S3Source struct {
	Client s3iface.S3API
	Bucket string
	Key    string
}

func NewS3Source(cfg config.AWSConfig, bucket, key string) (*S3Source, error) {
	awsConfig := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.AccessKeyID != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Source{
		Client: s3.New(sess),
		Bucket: bucket,
		Key:    key,
	}, nil
}

func (s *S3Source) Name() string { return "s3://" + s.Bucket + "/" + s.Key }

func (s *S3Source) Fetch(ctx context.Context) ([]models.ProductRecord, error) {
	out, err := s.Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return decode(out.Body)
}
