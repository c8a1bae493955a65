package fields

const (
	// CodeUnknownFieldType is returned for a Type outside the fixed set.
	CodeUnknownFieldType = "UNKNOWN_FIELD_TYPE"

	// CodeInvalidIdentifier is returned when a collection or field name is
	// not a safe postgres identifier.
	CodeInvalidIdentifier = "INVALID_IDENTIFIER"

	// CodeSystemCollection is returned on attempts to alter the module's
	// own tables.
	CodeSystemCollection = "SYSTEM_COLLECTION"

	// CodeCollectionNotFound is returned when the target table is missing.
	CodeCollectionNotFound = "COLLECTION_NOT_FOUND"

	// CodeFieldTypeImmutable is returned when an update tries to change a
	// field's stored type.
	CodeFieldTypeImmutable = "FIELD_TYPE_IMMUTABLE"
)
