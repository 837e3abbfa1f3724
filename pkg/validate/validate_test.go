package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ItemName string `json:"item_name" validate:"required,max=5"`
	Limit    int    `query:"limit" validate:"omitempty,min=1"`
	Internal string `json:"-" validate:"omitempty,len=2"`
}

func TestStruct(t *testing.T) {
	assert.NoError(t, Struct(sample{ItemName: "horse"}))

	tests := []struct {
		name  string
		in    sample
		field string
		msg   string
	}{
		{"required", sample{}, "item_name", "item_name is a required field"},
		{"max", sample{ItemName: "laptops"}, "item_name", "item_name must be at most 5"},
		{"query tag", sample{ItemName: "x", Limit: -1}, "limit", "limit must be at least 1"},
		{"struct name fallback", sample{ItemName: "x", Internal: "abc"}, "Internal", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Struct(tc.in)
			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tc.field, fe.Field)
			if tc.msg != "" {
				assert.Equal(t, tc.msg, fe.Message)
			}
		})
	}
}
