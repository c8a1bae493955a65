package s3disk

// Config defines the configuration options for the S3 disk.
type Config struct {
	// Region is the AWS region of the bucket.
	Region string `yaml:"region" validate:"required"`

	// Bucket is the bucket name for file operations.
	Bucket string `yaml:"bucket" validate:"required"`

	// AccessKey is the access key for authentication.
	// When empty, the default AWS credential chain is used.
	AccessKey string `yaml:"access_key"`

	// SecretKey is the secret key for authentication.
	SecretKey string `yaml:"secret_key" mask:"true"`

	// Endpoint overrides the AWS endpoint for S3-compatible services
	// (MinIO, DigitalOcean Spaces, Cloudflare R2). Optional.
	Endpoint string `yaml:"endpoint"`
}
