package logsource

import (
	"errors"
	"strings"
	"testing"

	pxerrors "github.com/livp123/proxylens/pkg/errors"
	"github.com/stretchr/testify/assert"
)

// TestValidateDomain tests the hostname grammar
// TestValidateDomain 测试主机名语法
func TestValidateDomain(t *testing.T) {
	valid := []string{"example.com", "a.b.c", "xn--bcher-kva.example", "Example.COM", "localhost", "a-b.io"}
	for _, d := range valid {
		assert.NoError(t, ValidateDomain(d), d)
	}

	invalid := []string{
		"",
		"../etc",
		"example..com",
		"-bad.com",
		"bad-.com",
		"exa mple.com",
		"a_b.com",
		"example.com/",
		strings.Repeat("a", 64) + ".com",
		strings.Repeat("a.", 127) + "ab",
	}
	for _, d := range invalid {
		err := ValidateDomain(d)
		assert.Error(t, err, d)
		assert.True(t, errors.Is(err, pxerrors.ErrInvalidDomain), d)
	}
}

func TestValidateIDs(t *testing.T) {
	assert.NoError(t, ValidateUniqueID("ZxA3-k_9"))
	assert.NoError(t, ValidateUniqueID(strings.Repeat("a", 64)))
	assert.ErrorIs(t, ValidateUniqueID(strings.Repeat("a", 65)), pxerrors.ErrInvalidUniqueID)
	assert.ErrorIs(t, ValidateUniqueID(""), pxerrors.ErrInvalidUniqueID)
	assert.ErrorIs(t, ValidateUniqueID("abc$"), pxerrors.ErrInvalidUniqueID)

	assert.NoError(t, ValidateRuleID("942100"))
	assert.NoError(t, ValidateRuleID(strings.Repeat("9", 100)))
	assert.ErrorIs(t, ValidateRuleID(strings.Repeat("9", 101)), pxerrors.ErrInvalidRuleID)
	assert.ErrorIs(t, ValidateRuleID(`942100"]`), pxerrors.ErrInvalidRuleID)
}

func TestSanitizeSearch(t *testing.T) {
	assert.Equal(t, "sql", SanitizeSearch("  sql  "))
	long := strings.Repeat("é", 300)
	got := SanitizeSearch(long)
	assert.Equal(t, MaxSearchLength, len([]rune(got)))
	assert.Equal(t, "", SanitizeSearch("   "))
}
