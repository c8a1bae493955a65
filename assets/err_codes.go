package assets

const (
	// CodeMissingStorage is returned when an upload names no storage disk.
	CodeMissingStorage = "MISSING_STORAGE"

	// CodeMissingFilename is returned when an upload carries no download name.
	CodeMissingFilename = "MISSING_FILENAME"

	// CodeNoFilesGiven is returned when a delete is called with no ids.
	CodeNoFilesGiven = "NO_FILES_GIVEN"
)
