package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const s3Scheme = "s3://"

// ErrStorageDisabled is returned for s3:// sources when object storage is not configured.
var ErrStorageDisabled = errors.New("object storage not configured")

// StorageConfig holds S3-compatible object storage connection settings.
type StorageConfig struct {
	Endpoint        string // e.g. "minio:9000" or "s3.amazonaws.com"
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	UseSSL          bool
}

// Opener resolves dataset locations to readable streams.
// Local paths are opened from disk; s3://bucket/key locations are fetched from object storage.
type Opener struct {
	mc *minio.Client
}

// NewOpener creates an opener. An empty Endpoint disables s3:// sources.
func NewOpener(cfg StorageConfig) (*Opener, error) {
	if cfg.Endpoint == "" {
		return &Opener{}, nil
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &Opener{mc: mc}, nil
}

// Open returns the raw (still compressed) stream for location.
func (o *Opener) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if strings.HasPrefix(location, s3Scheme) {
		return o.openObject(ctx, location)
	}
	f, err := os.Open(filepath.Clean(location))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return f, nil
}

func (o *Opener) openObject(ctx context.Context, location string) (io.ReadCloser, error) {
	if o.mc == nil {
		return nil, ErrStorageDisabled
	}
	bucket, key, err := splitObjectLocation(location)
	if err != nil {
		return nil, err
	}
	obj, err := o.mc.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", bucket, key, err)
	}
	// GetObject is lazy; Stat surfaces missing objects and bad credentials.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, fmt.Errorf("stat object %s/%s: %w", bucket, key, err)
	}
	return obj, nil
}

// splitObjectLocation parses s3://bucket/key.
func splitObjectLocation(location string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(location, s3Scheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid object location %q: want s3://bucket/key", location)
	}
	return bucket, key, nil
}

// Compression of a source, detected from its file extension.
type Compression string

// Supported compressions.
const (
	CompressionNone Compression = ""
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// detectCompression returns the compression and the location without its suffix.
func detectCompression(location string) (Compression, string) {
	lower := strings.ToLower(location)
	switch {
	case strings.HasSuffix(lower, ".gz"):
		return CompressionGzip, location[:len(location)-len(".gz")]
	case strings.HasSuffix(lower, ".zst"):
		return CompressionZstd, location[:len(location)-len(".zst")]
	default:
		return CompressionNone, location
	}
}

// decompress reads the whole stream, undoing c.
func decompress(r io.Reader, c Compression) ([]byte, error) {
	switch c {
	case CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer func() { _ = zr.Close() }()
		return readAll(zr)
	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer zr.Close()
		return readAll(zr)
	default:
		return readAll(r)
	}
}

func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return data, nil
}
