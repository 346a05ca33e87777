// Package s3svc is the object store client used by the catalog and the downloader.
package s3svc

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sgaunet/s3grab/pkg/config"
	"github.com/sgaunet/s3grab/pkg/settings"
)

// API is the subset of the S3 client used by the Service.
type API interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var _ API = (*s3.Client)(nil)

// Service is the struct for the S3 service
type Service struct {
	awsS3Client API
	log         *slog.Logger
}

// NewS3Svc creates a new S3 service around an existing client.
// By default the logger is set to write to /dev/null
func NewS3Svc(client API) *Service {
	return &Service{
		awsS3Client: client,
		log:         slog.New(slog.DiscardHandler),
	}
}

// New validates the credentials, builds a client and checks that the store
// answers a ListBuckets call. Calling New again with other settings gives a
// fresh, independent Service.
func New(ctx context.Context, cfg config.Config, st settings.Settings) (*Service, error) {
	if err := st.Validate(); err != nil {
		return nil, err
	}

	awsCfg, err := GetAwsConfig(ctx, st)
	if err != nil {
		return nil, err
	}

	// https://pkg.go.dev/github.com/aws/aws-sdk-go-v2/service/s3
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	svc := NewS3Svc(client)
	if _, err := svc.ListBuckets(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

// SetLogger sets the logger
func (s *Service) SetLogger(log *slog.Logger) {
	s.log = log
}
