// Package miniodisk provides a MinIO implementation of the filestore.Disk interface.
package miniodisk

import (
	"context"
	"io"

	"github.com/code19m/errx"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/meridiancms/mediacore/filestore"
)

const codeNoSuchKey = "NoSuchKey"

// Disk implements the filestore.Disk interface using MinIO.
type Disk struct {
	client *minio.Client
	bucket string
}

var _ filestore.Disk = (*Disk)(nil)

// New creates a new MinIO disk.
func New(cfg Config) (*Disk, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return &Disk{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// Put streams the object to MinIO. Size is passed as -1 so the client
// switches to multipart upload without buffering the whole stream.
func (d *Disk) Put(ctx context.Context, path string, reader io.Reader) error {
	_, err := d.client.PutObject(ctx, d.bucket, path, reader, -1, minio.PutObjectOptions{})
	if err != nil {
		return errx.Wrap(err)
	}
	return nil
}

// GetStream opens the object for reading. MinIO defers errors until the
// first read, so a stat call forces missing objects to surface here.
func (d *Disk) GetStream(ctx context.Context, path string) (io.ReadCloser, error) {
	obj, err := d.client.GetObject(ctx, d.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, errx.Wrap(err)
	}

	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, wrapMinioError(err, path)
	}

	return obj, nil
}

func (d *Disk) GetStat(ctx context.Context, path string) (filestore.Stat, error) {
	info, err := d.client.StatObject(ctx, d.bucket, path, minio.StatObjectOptions{})
	if err != nil {
		return filestore.Stat{}, wrapMinioError(err, path)
	}

	return filestore.Stat{
		Size:       info.Size,
		ModifiedAt: info.LastModified,
	}, nil
}

// Delete removes the object at path. Missing objects are ignored.
func (d *Disk) Delete(ctx context.Context, path string) error {
	err := d.client.RemoveObject(ctx, d.bucket, path, minio.RemoveObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == codeNoSuchKey {
			return nil
		}
		return errx.Wrap(err)
	}
	return nil
}

func (d *Disk) FlatList(ctx context.Context, prefix string) ([]filestore.Entry, error) {
	var entries []filestore.Entry

	objects := d.client.ListObjects(ctx, d.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			return nil, errx.Wrap(obj.Err)
		}
		entries = append(entries, filestore.Entry{Path: obj.Key})
	}

	return entries, nil
}

// wrapMinioError converts MinIO errors to filestore error codes.
func wrapMinioError(err error, path string) error {
	if minio.ToErrorResponse(err).Code == codeNoSuchKey {
		return errx.New(
			"object not found: "+path,
			errx.WithCode(filestore.CodeObjectNotFound),
			errx.WithType(errx.T_NotFound),
		)
	}
	return errx.Wrap(err)
}
