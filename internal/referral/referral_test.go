package referral

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultEligibility(t *testing.T) *Eligibility {
	t.Helper()
	ranges, err := ParseRanges("560001-560300,561000-561999,562000-562999")
	require.NoError(t, err)
	return NewEligibility(ranges...)
}

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code := GenerateCode()
		assert.True(t, IsCodeShape(code), "unexpected code shape %q", code)
		seen[code] = true
	}
	// 36^6 possibilities, 200 draws should essentially never collide.
	assert.Greater(t, len(seen), 195)
}

func TestIsCodeShape(t *testing.T) {
	assert.True(t, IsCodeShape("BP-DC102K"))
	assert.False(t, IsCodeShape("bp-dc102k"))
	assert.False(t, IsCodeShape("BP-DC102"))
	assert.False(t, IsCodeShape("XP-DC102K"))
	assert.False(t, IsCodeShape("BP-DC10_K"))
}

func TestValidate_Boundaries(t *testing.T) {
	e := defaultEligibility(t)

	eligible := []string{"560001", "560300", "561000", "561999", "562000", "562999", "560150"}
	for _, p := range eligible {
		assert.NoError(t, e.Validate(p), p)
	}

	ineligible := []string{"560000", "560301", "560999", "563000", "000000", "999999"}
	for _, p := range ineligible {
		assert.ErrorIs(t, e.Validate(p), ErrIneligible, p)
	}
}

func TestValidate_Format(t *testing.T) {
	e := defaultEligibility(t)
	for _, p := range []string{"", "56001", "5600011", "56000a", " 56001", "５６０００１", "-56000"} {
		assert.ErrorIs(t, e.Validate(p), ErrInvalidFormat, "%q", p)
	}
}

func TestParseRanges(t *testing.T) {
	ranges, err := ParseRanges(" 100-200 , 300-300 ")
	require.NoError(t, err)
	assert.Equal(t, []Range{{100, 200}, {300, 300}}, ranges)

	for _, bad := range []string{"", "100", "a-200", "100-b", "300-200"} {
		_, err := ParseRanges(bad)
		assert.Error(t, err, bad)
	}
}

func TestDescribe(t *testing.T) {
	e := NewEligibility(Range{560001, 560300}, Range{561000, 561999})
	assert.Equal(t, "560001-560300, 561000-561999", e.Describe())
}
