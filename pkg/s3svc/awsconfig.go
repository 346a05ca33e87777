package s3svc

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/sgaunet/s3grab/pkg/settings"
)

// GetAwsConfig returns an aws.Config using the static credentials of st.
func GetAwsConfig(ctx context.Context, st settings.Settings) (aws.Config, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(st.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(st.AccessKeyID, st.SecretAccessKey, st.SessionToken),
		),
	)
	if err != nil {
		return cfg, fmt.Errorf("error loading aws config: %w", err)
	}
	return cfg, nil
}
