// Package archive keeps raw model replies in Google Cloud Storage.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/dvloznov/budget-insights/internal/insights"
)

const (
	objectPrefix = "replies"
	writeTimeout = 2 * time.Minute
)

// GCSArchive writes each reply as a JSON object under the configured bucket.
// It assumes Application Default Credentials are configured.
type GCSArchive struct {
	client *storage.Client
	bucket string
}

var _ insights.ReplyArchive = (*GCSArchive)(nil)

// NewGCSArchive opens a storage client for the given bucket.
func NewGCSArchive(ctx context.Context, bucket string) (*GCSArchive, error) {
	if bucket == "" {
		return nil, errors.New("NewGCSArchive: bucket name is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSArchive: create storage client: %w", err)
	}
	return &GCSArchive{client: client, bucket: bucket}, nil
}

// Close releases the storage client.
func (a *GCSArchive) Close() error {
	return a.client.Close()
}

// ArchiveReply uploads rec to gs://<bucket>/<ObjectName(rec)>.
func (a *GCSArchive) ArchiveReply(ctx context.Context, rec insights.ReplyRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("ArchiveReply: marshal record: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	w := a.client.Bucket(a.bucket).Object(ObjectName(rec)).NewWriter(ctx)
	w.ContentType = "application/json"
	w.Metadata = map[string]string{
		"flow":    rec.Flow,
		"user_id": rec.UserID,
		"model":   rec.Model,
	}

	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return fmt.Errorf("ArchiveReply: write object: %w", err)
	}
	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return fmt.Errorf("ArchiveReply: finalize upload: %w", err)
	}
	return nil
}

// ObjectName builds replies/<flow>/<yyyy>/<mm>/<dd>/<user>/<id>.json.
// Missing parts are replaced so the name is always well formed.
func ObjectName(rec insights.ReplyRecord) string {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	created = created.UTC()

	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}

	return path.Join(
		objectPrefix,
		segment(rec.Flow, "unknown"),
		created.Format("2006/01/02"),
		segment(rec.UserID, "anonymous"),
		segment(id, "reply")+".json",
	)
}

// segment makes s safe to use as a single path element.
func segment(s, fallback string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(s)
	s = strings.Trim(s, ".")
	if s == "" {
		return fallback
	}
	return s
}

// Tee fans a reply out to several archives. Every archive is attempted and
// all failures are returned together.
type Tee []insights.ReplyArchive

var _ insights.ReplyArchive = Tee(nil)

func (t Tee) ArchiveReply(ctx context.Context, rec insights.ReplyRecord) error {
	var errs []error
	for _, a := range t {
		if a == nil {
			continue
		}
		if err := a.ArchiveReply(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
