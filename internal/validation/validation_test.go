package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArrzGeraldy/api-ecommerce/internal/apperr"
)

type line struct {
	VariantID int64 `json:"product_variant_id" validate:"gt=0"`
	Quantity  int   `json:"quantity" validate:"min=1"`
}

type body struct {
	Items []line `json:"items" validate:"required,min=1,dive"`
	Note  string `json:"note" validate:"max=5"`
}

func TestStructMessages(t *testing.T) {
	cases := []struct {
		name string
		in   body
		want string
	}{
		{"missing items", body{}, "items is required"},
		{"empty items", body{Items: []line{}}, "items must contain at least 1 item(s)"},
		{"bad quantity", body{Items: []line{{VariantID: 1, Quantity: 0}}}, "items[0].quantity must be at least 1"},
		{"bad variant", body{Items: []line{{VariantID: 0, Quantity: 1}}}, "items[0].product_variant_id must be greater than 0"},
		{"too long", body{Items: []line{{VariantID: 1, Quantity: 1}}, Note: "abcdef"}, "note must be at most 5 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Struct(tc.in)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindInvalidRequest))
			assert.EqualError(t, err, tc.want)
		})
	}
}

func TestStructValid(t *testing.T) {
	assert.NoError(t, Struct(body{Items: []line{{VariantID: 1, Quantity: 2}}}))
}
