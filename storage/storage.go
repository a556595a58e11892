// Package storage wraps the MinIO client for material images.
package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicBase is the externally reachable URL prefix for objects,
	// e.g. https://cdn.example.com. Defaults to the endpoint itself.
	PublicBase string
}

type Client struct {
	mc         *minio.Client
	bucket     string
	publicBase string
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio access_key and secret_key are required")
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	bucket := cfg.Bucket
	if bucket == "" {
		bucket = "lab-materials"
	}
	base := strings.TrimRight(cfg.PublicBase, "/")
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + cfg.Endpoint
	}

	return &Client{mc: mc, bucket: bucket, publicBase: base}, nil
}

func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.mc.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := c.mc.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		log.Printf("[storage] created bucket %s", c.bucket)
	}
	return nil
}

// UploadMaterialImage stores an image under materials/<id>/<name> and
// returns the durable URL to retrieve it.
func (c *Client) UploadMaterialImage(ctx context.Context, materialID, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := path.Join("materials", materialID, path.Base(filename))
	_, err := c.mc.PutObject(ctx, c.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return c.publicBase + "/" + c.bucket + "/" + key, nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	return c.mc.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{})
}
