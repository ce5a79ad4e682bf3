// Package snapshot archives the categorized results of committed searches
// to S3-compatible object storage.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"vidrank/feed"
)

// Snapshot is the archived form of one search.
type Snapshot struct {
	SessionID string             `json:"session_id"`
	Seq       uint64             `json:"seq"`
	Query     string             `json:"query"`
	Analyzed  int                `json:"analyzed"`
	CreatedAt time.Time          `json:"created_at"`
	Short     []feed.ScoredVideo `json:"short"`
	Long      []feed.ScoredVideo `json:"long"`
}

// FromSession captures sess at time at.
func FromSession(sess *feed.Session, at time.Time) Snapshot {
	return Snapshot{
		SessionID: sess.ID,
		Seq:       sess.Seq,
		Query:     sess.Query,
		Analyzed:  sess.Analyzed,
		CreatedAt: at.UTC(),
		Short:     sess.Results.Short,
		Long:      sess.Results.Long,
	}
}

// Archiver stores snapshots.
type Archiver interface {
	Archive(ctx context.Context, s Snapshot) error
}

// Noop discards snapshots.
type Noop struct{}

func (Noop) Archive(context.Context, Snapshot) error { return nil }

// Options configures a MinIO archiver.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
}

// Minio writes each snapshot as one JSON object.
type Minio struct {
	client *minio.Client
	bucket string
}

// NewMinio returns an archiver writing to opts.Bucket.
func NewMinio(opts Options) (*Minio, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &Minio{client: client, bucket: opts.Bucket}, nil
}

// EnsureBucket creates the bucket if it does not exist yet. It reports
// whether a bucket was created.
func (m *Minio) EnsureBucket(ctx context.Context) (bool, error) {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return false, fmt.Errorf("check bucket %s: %w", m.bucket, err)
	}
	if exists {
		return false, nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return false, fmt.Errorf("create bucket %s: %w", m.bucket, err)
	}
	return true, nil
}

func (m *Minio) Archive(ctx context.Context, s Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = m.client.PutObject(ctx, m.bucket, ObjectKey(s), bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("put snapshot %s: %w", s.SessionID, err)
	}
	return nil
}

// ObjectKey is snapshots/YYYY/MM/DD/<session id>.json, dated by CreatedAt.
func ObjectKey(s Snapshot) string {
	return fmt.Sprintf("snapshots/%s/%s.json", s.CreatedAt.UTC().Format("2006/01/02"), s.SessionID)
}
