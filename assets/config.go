package assets

// DefaultMetadataReadLimit bounds the image head buffered for metadata
// extraction when the config does not say otherwise.
const DefaultMetadataReadLimit = 32 << 20

// Config tunes the file lifecycle manager.
type Config struct {
	// CacheAutoPurge clears the cache invalidator after every mutation.
	// Off by default; multi-instance deployments usually prefer the
	// event-driven listener over per-write purges.
	CacheAutoPurge bool `yaml:"cache_auto_purge" json:"cache_auto_purge"`

	// MetadataReadLimit is the number of leading bytes of an image the
	// metadata pass may buffer. The remainder of the stream is drained
	// and only counted towards the file size.
	MetadataReadLimit int64 `yaml:"metadata_read_limit" json:"metadata_read_limit" default:"33554432"`
}
