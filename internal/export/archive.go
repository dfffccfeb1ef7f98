package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/listguard/internal/pkg/logger"
)

// PutObjectAPI is the subset of the S3 client used by the archiver.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Object identifies an archived export.
type Object struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Rows   int    `json:"rows"`
	Bytes  int    `json:"bytes"`
}

// Archiver uploads finished exports to an S3 bucket.
type Archiver struct {
	client PutObjectAPI
	bucket string
	prefix string
	now    func() time.Time
}

// NewArchiver wraps an existing S3 client.
func NewArchiver(client PutObjectAPI, bucket, prefix string) *Archiver {
	return &Archiver{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/"), now: time.Now}
}

// NewS3Archiver loads the default AWS credential chain for region.
func NewS3Archiver(ctx context.Context, bucket, region, prefix string) (*Archiver, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return NewArchiver(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// Key returns the object key for an export of listID taken at t.
func (a *Archiver) Key(listID string, f Format, t time.Time) string {
	name := fmt.Sprintf("lists/%s/%s.%s", listID, t.UTC().Format("20060102T150405Z"), f)
	if a.prefix == "" {
		return name
	}
	return a.prefix + "/" + name
}

// Archive runs fill against an in-memory buffer and uploads the result.
// fill returns the number of rows it wrote.
func (a *Archiver) Archive(ctx context.Context, listID string, f Format, fill func(w io.Writer) (int, error)) (*Object, error) {
	var buf bytes.Buffer
	rows, err := fill(&buf)
	if err != nil {
		return nil, err
	}
	key := a.Key(listID, f, a.now())
	size := buf.Len()
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(f.ContentType()),
	})
	if err != nil {
		return nil, fmt.Errorf("putting object to S3: %w", err)
	}
	logger.Info("export archived", "list_id", listID, "bucket", a.bucket, "key", key, "rows", rows)
	return &Object{Bucket: a.bucket, Key: key, Rows: rows, Bytes: size}, nil
}
