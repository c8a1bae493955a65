// Package s3disk provides an AWS S3 implementation of the filestore.Disk interface.
//
// It also works with S3-compatible services (MinIO, DigitalOcean Spaces,
// Cloudflare R2) through the Endpoint config option.
package s3disk

import (
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/code19m/errx"

	"github.com/meridiancms/mediacore/filestore"
)

// Disk implements the filestore.Disk interface using AWS S3.
type Disk struct {
	client *s3.Client
	bucket string
}

var _ filestore.Disk = (*Disk)(nil)

// New creates a new S3 disk.
// Static credentials are used when provided; otherwise the default AWS
// credential chain applies.
func New(ctx context.Context, cfg Config) (*Disk, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// Required for MinIO and some S3-compatible services
			o.UsePathStyle = true
		}
	})

	return &Disk{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

func (d *Disk) Put(ctx context.Context, path string, reader io.Reader) error {
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(path),
		Body:   reader,
	})
	if err != nil {
		return errx.Wrap(err)
	}
	return nil
}

func (d *Disk) GetStream(ctx context.Context, path string) (io.ReadCloser, error) {
	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return nil, wrapS3Error(err, path)
	}
	return out.Body, nil
}

func (d *Disk) GetStat(ctx context.Context, path string) (filestore.Stat, error) {
	out, err := d.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return filestore.Stat{}, wrapS3Error(err, path)
	}

	return filestore.Stat{
		Size:       aws.ToInt64(out.ContentLength),
		ModifiedAt: aws.ToTime(out.LastModified),
	}, nil
}

// Delete removes the object at path. S3 delete calls succeed on missing keys.
func (d *Disk) Delete(ctx context.Context, path string) error {
	_, err := d.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return errx.Wrap(err)
	}
	return nil
}

func (d *Disk) FlatList(ctx context.Context, prefix string) ([]filestore.Entry, error) {
	var entries []filestore.Entry

	var token *string
	for {
		out, err := d.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(d.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, errx.Wrap(err)
		}

		for _, obj := range out.Contents {
			entries = append(entries, filestore.Entry{Path: aws.ToString(obj.Key)})
		}

		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}

	return entries, nil
}

// wrapS3Error converts S3 errors to filestore error codes.
func wrapS3Error(err error, path string) error {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return errx.New(
			"object not found: "+path,
			errx.WithCode(filestore.CodeObjectNotFound),
			errx.WithType(errx.T_NotFound),
		)
	}
	return errx.Wrap(err)
}
