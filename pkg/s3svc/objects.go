package s3svc

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sgaunet/s3grab/pkg/dto"
)

const delimiter = "/"

// ListPrefix returns the direct sub-prefixes and objects of prefix,
// as grouped by a "/" delimiter listing. Every page is read.
func (s *Service) ListPrefix(ctx context.Context, bucket, prefix string) ([]string, []dto.S3Object, error) {
	s.log.Debug("ListPrefix", slog.String("bucket", bucket), slog.String("prefix", prefix))

	paginator := s3.NewListObjectsV2Paginator(s.awsS3Client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String(delimiter),
	})

	var prefixes []string
	var objects []dto.S3Object
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, nil, connectivityError("ListPrefix", bucket, prefix, err)
		}
		for _, p := range page.CommonPrefixes {
			prefixes = append(prefixes, aws.ToString(p.Prefix))
		}
		for _, obj := range page.Contents {
			objects = append(objects, toDTO(obj))
		}
	}
	return prefixes, objects, nil
}

// ListAllUnderPrefix walks every object below prefix, at any depth, in the
// order returned by the store. It stops at the first error returned by fn.
func (s *Service) ListAllUnderPrefix(ctx context.Context, bucket, prefix string, fn func(dto.S3Object) error) error {
	s.log.Debug("ListAllUnderPrefix", slog.String("bucket", bucket), slog.String("prefix", prefix))

	paginator := s3.NewListObjectsV2Paginator(s.awsS3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})

	count := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return connectivityError("ListAllUnderPrefix", bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			if err := fn(toDTO(obj)); err != nil {
				return err
			}
			count++
		}
	}
	s.log.Debug("ListAllUnderPrefix done", slog.String("prefix", prefix), slog.Int("objects", count))
	return nil
}

func toDTO(obj types.Object) dto.S3Object {
	return dto.S3Object{
		Key:          aws.ToString(obj.Key),
		Size:         aws.ToInt64(obj.Size),
		LastModified: aws.ToTime(obj.LastModified),
		ETag:         aws.ToString(obj.ETag),
		StorageClass: string(obj.StorageClass),
	}
}
