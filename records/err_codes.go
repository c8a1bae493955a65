package records

// Error codes returned by the record repositories.
const (
	CodeAccessDenied  = "ACCESS_DENIED"
	CodeFileNotFound  = "FILE_NOT_FOUND"
	CodeFieldNotFound = "FIELD_NOT_FOUND"
	CodeFieldExists   = "FIELD_ALREADY_EXISTS"
)
