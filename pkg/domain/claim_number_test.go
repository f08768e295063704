package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "claimtrail/pkg/domain-errors"
)

func TestParseClaimNumber_Normalization(t *testing.T) {
	t.Run("trims and upper-cases", func(t *testing.T) {
		n, err := ParseClaimNumber("  exp-2024-001  ")
		require.NoError(t, err)
		assert.Equal(t, "EXP-2024-001", n.String())
	})

	t.Run("case and whitespace variants normalize identically", func(t *testing.T) {
		a, err := ParseClaimNumber("exp-17-b")
		require.NoError(t, err)
		b, err := ParseClaimNumber("\tEXP-17-B ")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}

func TestParseClaimNumber_Validation(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"too short", "AB"},
		{"too long", strings.Repeat("X", 51)},
		{"disallowed characters", "EXP_2024/001"},
		{"embedded space", "EXP 2024"},
		{"unicode", "EXPÉ-01"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseClaimNumber(tc.raw)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidIdentifier))
		})
	}

	t.Run("boundary lengths accepted", func(t *testing.T) {
		_, err := ParseClaimNumber("ABC")
		require.NoError(t, err)
		_, err = ParseClaimNumber(strings.Repeat("9", 50))
		require.NoError(t, err)
	})
}

func TestParseTenant(t *testing.T) {
	t.Run("normalizes to lower case", func(t *testing.T) {
		tn, err := ParseTenant(" Clinica-Norte ")
		require.NoError(t, err)
		assert.Equal(t, "clinica-norte", tn.String())
	})

	t.Run("rejects empty", func(t *testing.T) {
		_, err := ParseTenant("   ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

// FuzzParseClaimNumber verifies parsing never panics and that accepted
// numbers are already in normal form (parsing is idempotent).
func FuzzParseClaimNumber(f *testing.F) {
	f.Add("EXP-2024-001")
	f.Add("  exp-1  ")
	f.Add("")
	f.Add("'; DROP TABLE claims;--")
	f.Add(string([]byte{0x00, 0x01}))

	f.Fuzz(func(t *testing.T, input string) {
		n, err := ParseClaimNumber(input)
		if err != nil {
			return
		}
		again, err := ParseClaimNumber(n.String())
		if err != nil {
			t.Fatalf("normalized form %q failed to re-parse: %v", n.String(), err)
		}
		if again != n {
			t.Fatalf("normalization not idempotent: %q != %q", again.String(), n.String())
		}
	})
}
