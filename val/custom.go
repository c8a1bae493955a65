package val

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// maxIdentLen is the PostgreSQL limit for unquoted identifiers.
const maxIdentLen = 63

//nolint:gochecknoglobals // compiled once
var (
	identRegexp = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
	mimeRegexp  = regexp.MustCompile(`(?i)^[a-z0-9!#$&^_.+-]+/[a-z0-9!#$&^_.+-]+$`)
)

// IsSQLIdentifier checks if s is usable as an unquoted PostgreSQL identifier:
// lowercase letters, digits and underscores, not starting with a digit,
// at most 63 bytes.
func IsSQLIdentifier(s string) bool {
	return len(s) <= maxIdentLen && identRegexp.MatchString(s)
}

// IsMimeType checks if s has the type/subtype shape of a MIME type.
func IsMimeType(s string) bool {
	return mimeRegexp.MatchString(s)
}

func registerCustomValidations(v *validator.Validate) {
	_ = v.RegisterValidation("sql_ident", func(fl validator.FieldLevel) bool {
		return IsSQLIdentifier(fl.Field().String())
	})
	_ = v.RegisterValidation("mime_type", func(fl validator.FieldLevel) bool {
		return IsMimeType(fl.Field().String())
	})
}
