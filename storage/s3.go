package storage

import (
	"bytes"
	"context"
	"fmt"

	"trygo/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewS3Client creates an S3 client for the media bucket.
func NewS3Client(cfg *config.Config) (*s3.Client, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               cfg.MediaS3URL,
				SigningRegion:     cfg.MediaS3Region,
				HostnameImmutable: true,
			}, nil
		},
	)
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.MediaS3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.MediaS3Key, cfg.MediaS3Secret, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg), nil
}

// UploadImage stores generated image bytes in the media bucket and returns
// the public link.
func UploadImage(ctx context.Context, client *s3.Client, key string, data []byte, cfg *config.Config) (string, error) {
	contentType := "image/png"
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &cfg.MediaS3Bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return "", err
	}
	link := fmt.Sprintf("%s/%s/%s", cfg.MediaS3URL, cfg.MediaS3Bucket, key)
	return link, nil
}
