package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/nkosarev/picshare/pkg/s3client"
	"github.com/nkosarev/picshare/pkg/types/errs"
)

// S3 keeps blobs in an object-storage bucket; store keys map to object keys
// unchanged.
type S3 struct {
	*s3client.S3Client
	bucket string
}

func NewS3(s3c *s3client.S3Client, bucket string) *S3 {
	return &S3{s3c, bucket}
}

func (r *S3) Read(ctx context.Context, path string) ([]byte, error) {
	result, err := r.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("S3 - Read: %w", errs.ErrFileNotFound)
		}
		return nil, fmt.Errorf("S3 - Read - r.Client.GetObject: %w", err)
	}
	defer result.Body.Close()

	b, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("S3 - Read - io.ReadAll: %w", err)
	}

	return b, nil
}

func (r *S3) Write(ctx context.Context, path string, data []byte, contentType string) error {
	_, err := r.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(path),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("S3 - Write - r.Client.PutObject: %w", err)
	}

	return nil
}

func (r *S3) Delete(ctx context.Context, path string) error {
	_, err := r.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("S3 - Delete - r.Client.DeleteObject: %w", err)
	}

	return nil
}
