package s3svc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/natefinch/atomic"
)

// DownloadObject writes the content of bucket/key to localPath.
// The parent directory must exist. The file only appears once the whole
// body has been received, so a failed call leaves nothing behind.
func (s *Service) DownloadObject(ctx context.Context, bucket, key, localPath string) error {
	s.log.Info("Downloading", slog.String("key", key), slog.String("to", localPath))

	o, err := s.awsS3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return transferError("DownloadObject", bucket, key, err)
	}
	defer o.Body.Close() //nolint:errcheck

	if err := atomic.WriteFile(localPath, o.Body); err != nil {
		return transferError("DownloadObject", bucket, key, fmt.Errorf("cannot write %s: %w", localPath, err))
	}
	return nil
}
