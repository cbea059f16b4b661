package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/h2non/filetype"

	cfg "slideflow/configs"
)

type R2Service struct {
	config cfg.Config
}

func NewR2Service(cfg cfg.Config) *R2Service {
	return &R2Service{config: cfg}
}

func (r *R2Service) R2Client() (*s3.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r.config.R2.AccessKey, r.config.R2.SecretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r.config.R2.AccountID))
	}), nil
}

// UploadAsset stores one generated asset (slide image or narration audio) in
// R2 and returns its public URL. The content type is sniffed from the bytes
// since the upstream providers do not guarantee a format.
func (r *R2Service) UploadAsset(ctx context.Context, key string, file []byte) (string, error) {
	kind, err := filetype.Match(file)
	if err != nil || kind == filetype.Unknown {
		return "", fmt.Errorf("unrecognized file data for %s", key)
	}

	fullKey := fmt.Sprintf("%s.%s", key, kind.Extension)

	input := &s3.PutObjectInput{
		Bucket:      aws.String(r.config.R2.BucketName),
		Key:         aws.String(fullKey),
		Body:        bytes.NewReader(file),
		ContentType: aws.String(kind.MIME.Value),
	}

	r2Client, err := r.R2Client()
	if err != nil {
		return "", err
	}

	if _, err := r2Client.PutObject(ctx, input); err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return fmt.Sprintf("%s/%s", r.config.R2.PublicURL, fullKey), nil
}
