package mirror

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const snapshotObjectName = "reports.csv"

// ObjectSink uploads the snapshot as a CSV object to S3-compatible storage,
// overwriting the previous snapshot.
type ObjectSink struct {
	client *minio.Client
	bucket string
}

func NewObjectSink(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*ObjectSink, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object storage client: %w", err)
	}
	return &ObjectSink{client: client, bucket: bucket}, nil
}

func (s *ObjectSink) Name() string { return "object-store" }

func (s *ObjectSink) Publish(ctx context.Context, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("encode snapshot csv: %w", err)
	}

	_, err := s.client.PutObject(ctx, s.bucket, snapshotObjectName,
		bytes.NewReader(buf.Bytes()), int64(buf.Len()),
		minio.PutObjectOptions{ContentType: "text/csv"},
	)
	if err != nil {
		return fmt.Errorf("upload snapshot: %w", err)
	}
	return nil
}
