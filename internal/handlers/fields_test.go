package handlers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericText(t *testing.T) {
	cases := []struct {
		in   string
		want numericText
	}{
		{`"560001"`, "560001"},
		{`560001`, "560001"},
		{`"17"`, "17"},
		{`17`, "17"},
		{`null`, ""},
		{`""`, ""},
	}
	for _, tc := range cases {
		var got numericText
		require.NoError(t, json.Unmarshal([]byte(tc.in), &got), tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	var got numericText
	assert.Error(t, json.Unmarshal([]byte(`true`), &got))
}

func TestNumericText_ID(t *testing.T) {
	id, err := numericText(" 42 ").ID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	for _, bad := range []numericText{"", "0", "-3", "1.5", "abc"} {
		_, err := bad.ID()
		assert.Error(t, err, string(bad))
	}
}
