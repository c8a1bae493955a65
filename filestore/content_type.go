package filestore

// Common MIME content types for file operations.
const (
	// Images.
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
	ContentTypeWebP = "image/webp"
	ContentTypeTIFF = "image/tiff"
	ContentTypeSVG  = "image/svg+xml"

	// Documents.
	ContentTypePDF  = "application/pdf"
	ContentTypeText = "text/plain"
	ContentTypeJSON = "application/json"
	ContentTypeCSV  = "text/csv"

	// Archives.
	ContentTypeZIP  = "application/zip"
	ContentTypeGZIP = "application/gzip"

	// Other.
	ContentTypeOctetStream = "application/octet-stream"
)
