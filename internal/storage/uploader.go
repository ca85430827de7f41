package storage

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"fieldserve-backend/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Uploader stores request attachments in S3-compatible object storage (R2)
type Uploader struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	PublicURL string
}

func New(ctx context.Context, opts Options) (*Uploader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)),
		awsconfig.WithRegion(opts.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to configure storage client: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(opts.Endpoint)
	})

	return &Uploader{
		client:    client,
		bucket:    opts.Bucket,
		publicURL: strings.TrimRight(opts.PublicURL, "/"),
	}, nil
}

// Upload stores one multipart file under prefix and returns its asset record.
// Object keys are random so two uploads of the same filename cannot collide.
func (u *Uploader) Upload(ctx context.Context, fh *multipart.FileHeader, prefix string) (*models.Asset, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := fmt.Sprintf("%s/%s/%s%s",
		strings.Trim(prefix, "/"),
		time.Now().UTC().Format("2006/01"),
		uuid.NewString(),
		strings.ToLower(filepath.Ext(fh.Filename)),
	)

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(fh.Size),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store object: %w", err)
	}

	return &models.Asset{
		FileName:    fh.Filename,
		URL:         u.publicURL + "/" + key,
		ContentType: contentType,
		Size:        fh.Size,
		Bucket:      u.bucket,
	}, nil
}
