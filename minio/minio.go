package minio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/ripplechat/ripple/types"
	"golang.org/x/sync/errgroup"
)

type Minio struct {
	baseCtx        context.Context
	cleanupTimeout time.Duration
	client         *minio.Client
	errChan        chan error
}

func New(ctx context.Context, client *minio.Client, cleanupTimeout time.Duration) *Minio {
	return &Minio{
		baseCtx:        ctx,
		cleanupTimeout: cleanupTimeout,
		client:         client,
		errChan:        make(chan error, 1),
	}
}

func (m *Minio) Errs() <-chan error {
	return m.errChan
}

// UploadMany uploads all attachments concurrently and returns a cleanup func
// that removes everything uploaded. Callers invoke cleanup when the database
// write that references the blobs fails.
func (m *Minio) UploadMany(ctx context.Context, bucket string, files []types.Attachment) (func(), error) {
	if len(files) == 0 {
		return func() {}, nil
	}

	var mu sync.Mutex
	var cleanupFuncs []func()

	g, gctx := errgroup.WithContext(ctx)

	for _, file := range files {
		g.Go(func() error {
			cleanup, err := m.Upload(gctx, bucket, file)
			if err != nil {
				return fmt.Errorf("upload %s: %w", file.Path, err)
			}

			mu.Lock()
			cleanupFuncs = append(cleanupFuncs, cleanup)
			mu.Unlock()
			return nil
		})
	}

	cleanup := func() {
		var wg sync.WaitGroup

		for _, fn := range cleanupFuncs {
			wg.Add(1)
			go func(fn func()) {
				defer wg.Done()
				fn()
			}(fn)
		}

		wg.Wait()
	}

	if err := g.Wait(); err != nil {
		go cleanup()
		return nil, fmt.Errorf("upload group: %w", err)
	}

	return cleanup, nil
}

func (m *Minio) Upload(ctx context.Context, bucket string, file types.Attachment) (func(), error) {
	info, err := m.client.PutObject(ctx, bucket, file.Path, file.Reader(), int64(file.FileSize), minio.PutObjectOptions{
		ContentType: file.ContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("put object: %w", err)
	}

	return func() {
		ctx, cancel := context.WithTimeout(m.baseCtx, m.cleanupTimeout)
		defer cancel()

		if err := m.client.RemoveObject(ctx, bucket, file.Path, minio.RemoveObjectOptions{
			VersionID: info.VersionID,
		}); err != nil {
			m.errChan <- fmt.Errorf("remove object %s: %w", file.Path, err)
		}
	}, nil
}

// CreateReadOnlyBucket creates the bucket if missing and makes its objects
// publicly readable, so media URLs can be served straight from storage.
func (m *Minio) CreateReadOnlyBucket(ctx context.Context, bucketName string) error {
	exists, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("check bucket exists: %w", err)
	}

	if !exists {
		if err := m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
	}

	readOnlyPolicy := fmt.Sprintf(`{
		"Version": "2012-10-17",
		"Statement": [
			{
				"Effect": "Allow",
				"Principal": "*",
				"Action": ["s3:GetObject"],
				"Resource": ["arn:aws:s3:::%s/*"]
			}
		]
	}`, bucketName)

	if err := m.client.SetBucketPolicy(ctx, bucketName, readOnlyPolicy); err != nil {
		return fmt.Errorf("set bucket policy: %w", err)
	}

	return nil
}
