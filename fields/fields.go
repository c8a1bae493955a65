// Package fields manages dynamic schema fields: every managed field is a
// physical column on a collection table plus a registry row in cms_fields,
// and the two are changed in lockstep inside one transaction.
package fields

import (
	"regexp"
	"slices"
	"strings"

	"github.com/code19m/errx"
	"github.com/samber/lo"
)

// Type is the abstract field type exposed to callers. The Postgres column
// type behind it is fixed per Type.
type Type string

const (
	TypeString    Type = "string"
	TypeText      Type = "text"
	TypeInteger   Type = "integer"
	TypeBigint    Type = "bigint"
	TypeFloat     Type = "float"
	TypeDecimal   Type = "decimal"
	TypeBoolean   Type = "boolean"
	TypeUUID      Type = "uuid"
	TypeDate      Type = "date"
	TypeTime      Type = "time"
	TypeTimestamp Type = "timestamp"
	TypeJSON      Type = "json"
)

//nolint:gochecknoglobals // fixed abstract-type to column-type mapping
var columnTypes = map[Type]string{
	TypeString:    "varchar(255)",
	TypeText:      "text",
	TypeInteger:   "integer",
	TypeBigint:    "bigint",
	TypeFloat:     "double precision",
	TypeDecimal:   "numeric(10,5)",
	TypeBoolean:   "boolean",
	TypeUUID:      "uuid",
	TypeDate:      "date",
	TypeTime:      "time",
	TypeTimestamp: "timestamptz",
	TypeJSON:      "jsonb",
}

func columnType(t Type) (string, error) {
	colType, ok := columnTypes[t]
	if !ok {
		valid := lo.Map(lo.Keys(columnTypes), func(t Type, _ int) string { return string(t) })
		slices.Sort(valid)

		return "", errx.New(
			"unknown field type",
			errx.WithCode(CodeUnknownFieldType),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{
				"type":  string(t),
				"valid": strings.Join(valid, ", "),
			}),
		)
	}
	return colType, nil
}

// FieldSpec is the caller-facing description of a managed field.
// Collection and Field identify the field; the rest is registry metadata.
type FieldSpec struct {
	Collection string         `json:"collection" validate:"required,max=63"`
	Field      string         `json:"field" validate:"required,max=63"`
	Type       Type           `json:"type"`
	Required   bool           `json:"required"`
	Note       string         `json:"note" validate:"max=1024"`
	Options    map[string]any `json:"options"`
	Sort       *int           `json:"sort"`
}

// Identifiers travel into DDL statements, so they are held to the
// strictest form postgres accepts without quoting games.
const (
	maxIdentifierLen = 63
	identifierRule   = "must be snake_case, start with a lowercase letter and be at most 63 characters"
)

//nolint:gochecknoglobals // compiled once
var identifierRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func validIdentifier(v string) bool {
	return len(v) <= maxIdentifierLen && identifierRe.MatchString(v)
}

func validateIdentifiers(collection, field string) error {
	invalid := make(errx.M)
	if !validIdentifier(collection) {
		invalid["collection"] = identifierRule
	}
	if !validIdentifier(field) {
		invalid["field"] = identifierRule
	}

	if len(invalid) > 0 {
		return errx.New(
			"invalid identifier",
			errx.WithCode(CodeInvalidIdentifier),
			errx.WithType(errx.T_Validation),
			errx.WithFields(invalid),
		)
	}
	return nil
}

// systemPrefix marks the tables this module manages internally; their
// schema is owned by migrations, never by callers.
const systemPrefix = "cms_"

func guardSystemCollection(collection string) error {
	if strings.HasPrefix(collection, systemPrefix) {
		return errx.New(
			"system collections cannot be altered",
			errx.WithCode(CodeSystemCollection),
			errx.WithType(errx.T_Forbidden),
			errx.WithDetails(errx.D{"collection": collection}),
		)
	}
	return nil
}
