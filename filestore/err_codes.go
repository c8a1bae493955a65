package filestore

import "github.com/code19m/errx"

// Error codes for filestore operations.
const (
	// CodeObjectNotFound is returned when no object exists at the specified path.
	CodeObjectNotFound = "OBJECT_NOT_FOUND"

	// CodeUnknownDisk is returned when a disk name is not present in the registry.
	CodeUnknownDisk = "UNKNOWN_DISK"
)

// IsObjectNotFound checks if the error carries the CodeObjectNotFound code.
func IsObjectNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errx.AsErrorX(err).Code() == CodeObjectNotFound
}
