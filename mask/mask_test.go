package mask_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/meridiancms/mediacore/mask"
)

func pairs(om *orderedmap.OrderedMap[string, any]) []any {
	var out []any
	for p := om.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Key, p.Value)
	}
	return out
}

func TestStruct_NilInput(t *testing.T) {
	assert.Nil(t, mask.Struct(nil))
}

func TestStruct_MasksTaggedString(t *testing.T) {
	type creds struct {
		User     string
		Password string `mask:"true"`
	}

	got := mask.Struct(creds{User: "svc", Password: "hunter2"})

	assert.Equal(t, []any{"User", "svc", "Password", "******"}, pairs(got))
}

func TestStruct_ZeroValueStaysVisible(t *testing.T) {
	type creds struct {
		Password string `mask:"true"`
	}

	got := mask.Struct(creds{})

	assert.Equal(t, []any{"Password", ""}, pairs(got))
}

func TestStruct_NonStringKindsKeepKind(t *testing.T) {
	type cfg struct {
		Port  int     `mask:"true"`
		Ratio float64 `mask:"true"`
	}

	got := mask.Struct(cfg{Port: 5432, Ratio: 0.5})

	assert.Equal(t, []any{"Port", "******(int)", "Ratio", "******(float64)"}, pairs(got))
}

func TestStruct_TagNamePriority(t *testing.T) {
	type cfg struct {
		A string `yaml:"alpha" json:"a_json"`
		B string `json:"beta,omitempty"`
		C string `yaml:"-"`
		D string
	}

	got := mask.Struct(cfg{A: "1", B: "2", C: "3", D: "4"})

	assert.Equal(t, []any{"alpha", "1", "beta", "2", "D", "4"}, pairs(got))
}

func TestStruct_FlattensNested(t *testing.T) {
	type inner struct {
		Host   string `yaml:"host"`
		Secret string `yaml:"secret" mask:"true"`
	}
	type outer struct {
		Name string `yaml:"name"`
		DB   inner  `yaml:"db"`
	}

	got := mask.Struct(outer{Name: "files", DB: inner{Host: "pg:5432", Secret: "s3cr3t"}})

	assert.Equal(t, []any{
		"name", "files",
		"db.host", "pg:5432",
		"db.secret", "******",
	}, pairs(got))
}

func TestStruct_MaskedNestedStructIsOpaque(t *testing.T) {
	type keys struct {
		Access string
	}
	type cfg struct {
		Keys *keys `yaml:"keys" mask:"true"`
	}

	got := mask.Struct(cfg{Keys: &keys{Access: "AKIA..."}})

	assert.Equal(t, []any{"keys", "******(struct)"}, pairs(got))
}

func TestStruct_NilPointerField(t *testing.T) {
	type keys struct {
		Access string
	}
	type cfg struct {
		Keys *keys `yaml:"keys" mask:"true"`
	}

	got := mask.Struct(cfg{})

	assert.Equal(t, []any{"keys", nil}, pairs(got))
}

func TestStruct_UnexportedFieldsSkipped(t *testing.T) {
	type cfg struct {
		Visible string
		hidden  string //nolint:unused // presence is the point of the test
	}

	got := mask.Struct(cfg{Visible: "yes"})

	assert.Equal(t, []any{"Visible", "yes"}, pairs(got))
}
