package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pierrec/lz4/v4"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/exp/mmap"
)

// ErrUnsupportedSource is returned for word list locations with an unknown scheme.
var ErrUnsupportedSource = errors.New("unsupported word list source")

// StorageConfig holds the credentials needed to fetch word lists from
// object storage.
type StorageConfig struct {
	AWSRegion      string `hcl:"aws_region,optional"`
	MinioEndpoint  string `hcl:"minio_endpoint,optional"`
	MinioAccessKey string `hcl:"minio_access_key,optional"`
	MinioSecretKey string `hcl:"minio_secret_key,optional"`
	MinioSecure    bool   `hcl:"minio_secure,optional"`
}

// LoadWordList reads a word list from src and normalises it with ReadWords.
//
// src is a local path, s3://bucket/key or minio://bucket/key. Objects ending
// in .gz, .zst or .lz4 are decompressed on the fly.
func LoadWordList(ctx context.Context, src string, minLength int, sc StorageConfig) ([]string, error) {
	ctx, span := tracer.Start(ctx, "boggle.LoadWordList")
	defer span.End()
	span.SetAttributes(attribute.String("word_list.source", src))

	rc, err := openSource(ctx, src, sc)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("load word list %s: %w", src, err)
	}
	defer rc.Close()

	dec, err := decompress(rc, src)
	if err != nil {
		return nil, fmt.Errorf("load word list %s: %w", src, err)
	}
	defer dec.Close()

	words, err := ReadWords(dec, minLength)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("load word list %s: %w", src, err)
	}
	span.SetAttributes(attribute.Int("word_list.words", len(words)))
	return words, nil
}

// ReadWords reads one word per line. Lines are trimmed and lowercased;
// blank lines and words shorter than minLength letters are skipped.
func ReadWords(r io.Reader, minLength int) ([]string, error) {
	var words []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		w := strings.ToLower(strings.TrimSpace(sc.Text()))
		if w == "" || Points(w) < minLength {
			continue
		}
		words = append(words, w)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

func openSource(ctx context.Context, src string, sc StorageConfig) (io.ReadCloser, error) {
	u, err := url.Parse(src)
	if err != nil || u.Scheme == "" || u.Scheme == "file" {
		p := src
		if err == nil && u.Scheme == "file" {
			p = u.Path
		}
		return openLocal(p)
	}

	bucket, key := u.Host, strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("%w: %s needs bucket and key", ErrUnsupportedSource, src)
	}

	switch u.Scheme {
	case "s3":
		return openS3(ctx, bucket, key, sc)
	case "minio":
		return openMinio(ctx, bucket, key, sc)
	default:
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupportedSource, u.Scheme)
	}
}

// openLocal maps the file into memory; word lists are read once, front to back.
func openLocal(p string) (io.ReadCloser, error) {
	ra, err := mmap.Open(p)
	if err != nil {
		return nil, err
	}
	return readCloser{Reader: io.NewSectionReader(ra, 0, int64(ra.Len())), Closer: ra}, nil
}

func openS3(ctx context.Context, bucket, key string, sc StorageConfig) (io.ReadCloser, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if sc.AWSRegion != "" {
		opts = append(opts, awsconfig.WithRegion(sc.AWSRegion))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	out, err := s3.NewFromConfig(cfg).GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get %s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}

func openMinio(ctx context.Context, bucket, key string, sc StorageConfig) (io.ReadCloser, error) {
	if sc.MinioEndpoint == "" {
		return nil, fmt.Errorf("%w: minio endpoint not configured", ErrUnsupportedSource)
	}
	client, err := minio.New(sc.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(sc.MinioAccessKey, sc.MinioSecretKey, ""),
		Secure: sc.MinioSecure,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	obj, err := client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("minio get %s/%s: %w", bucket, key, err)
	}
	return obj, nil
}

// decompress picks a decoder from the extension of src.
func decompress(r io.Reader, src string) (io.ReadCloser, error) {
	switch path.Ext(src) {
	case ".gz":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return zr, nil
	case ".zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return zr.IOReadCloser(), nil
	case ".lz4":
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return io.NopCloser(r), nil
	}
}
