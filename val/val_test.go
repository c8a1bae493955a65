package val_test

import (
	"strings"
	"testing"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridiancms/mediacore/val"
)

type fieldSchema struct {
	Collection string `json:"collection" validate:"required,sql_ident"`
	Field      string `json:"field"      validate:"required,sql_ident"`
	Type       string `json:"type"       validate:"required,oneof=string text integer boolean"`
}

func TestValidateSchema(t *testing.T) {
	schema := fieldSchema{
		Collection: "articles",
		Field:      "cover_image",
		Type:       "string",
	}

	assert.NoError(t, val.ValidateSchema(schema))
}

func TestValidateSchemaCollectsFieldErrors(t *testing.T) {
	schema := fieldSchema{
		Collection: "Articles-2024",
		Type:       "varchar",
	}

	err := val.ValidateSchema(schema)
	require.Error(t, err)

	errX := errx.AsErrorX(err)
	assert.Equal(t, val.CodeValidationFailed, errX.Code())
	assert.Equal(t, errx.T_Validation, errX.Type())

	fields := errX.Fields()
	assert.Contains(t, fields, "collection", "field names must come from json tags")
	assert.Contains(t, fields, "field")
	assert.Contains(t, fields, "type")
	assert.Equal(t, "This field is required", fields["field"])
	assert.Equal(t, "Must be one of: string, text, integer, boolean", fields["type"])
}

func TestIsSQLIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "simple", input: "articles", want: true},
		{name: "with underscore", input: "cover_image", want: true},
		{name: "leading underscore", input: "_internal", want: true},
		{name: "with digits", input: "field2", want: true},
		{name: "empty", input: "", want: false},
		{name: "leading digit", input: "2field", want: false},
		{name: "uppercase", input: "Articles", want: false},
		{name: "dash", input: "cover-image", want: false},
		{name: "space", input: "cover image", want: false},
		{name: "too long", input: strings.Repeat("a", 64), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, val.IsSQLIdentifier(tt.input))
		})
	}
}

func TestIsMimeType(t *testing.T) {
	assert.True(t, val.IsMimeType("image/jpeg"))
	assert.True(t, val.IsMimeType("application/vnd.api+json"))
	assert.False(t, val.IsMimeType("image"))
	assert.False(t, val.IsMimeType("image/"))
	assert.False(t, val.IsMimeType("/jpeg"))
}
