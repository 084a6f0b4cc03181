package gcs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"

	"cloud.google.com/go/storage"
	log "github.com/sirupsen/logrus"
)

const publicBaseURL = "https://storage.googleapis.com"

// Uploader stores launch assets in a public GCS bucket under content
// addressed object names.
type Uploader struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewUploader uses application default credentials.
func NewUploader(ctx context.Context, bucket string) (*Uploader, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &Uploader{client: client, bucket: bucket, prefix: "token-launch"}, nil
}

// ObjectName derives the object path from the content hash, keeping the
// extension of name.
func ObjectName(prefix, name string, data []byte) string {
	sum := sha256.Sum256(data)
	return path.Join(prefix, hex.EncodeToString(sum[:])+path.Ext(name))
}

// Upload writes data and returns its public URL.
func (u *Uploader) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	object := ObjectName(u.prefix, name, data)

	w := u.client.Bucket(u.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=31536000, immutable"
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object: %w", err)
	}

	uri := fmt.Sprintf("%s/%s/%s", publicBaseURL, u.bucket, object)
	log.WithFields(log.Fields{"object": object, "uri": uri}).Info("Uploaded file to GCS")
	return uri, nil
}

func (u *Uploader) Close() error {
	return u.client.Close()
}
