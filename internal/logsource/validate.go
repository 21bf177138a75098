package logsource

import (
	"regexp"
	"strings"
	"unicode/utf8"

	pxerrors "github.com/livp123/proxylens/pkg/errors"
)

// Input limits applied to every user-supplied filter value.
const (
	MaxDomainLength   = 253
	MaxLabelLength    = 63
	MaxSearchLength   = 200
	MaxRuleIDLength   = 100
	MaxUniqueIDLength = 64
)

var domainLabel = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// ValidateDomain checks a hostname before it is interpolated into a path or pattern.
// ValidateDomain 在主机名被插入路径或模式之前进行检查。
func ValidateDomain(domain string) error {
	if domain == "" || len(domain) > MaxDomainLength {
		return pxerrors.NewDomainError(domain)
	}
	for _, label := range strings.Split(strings.ToLower(domain), ".") {
		if len(label) == 0 || len(label) > MaxLabelLength || !domainLabel.MatchString(label) {
			return pxerrors.NewDomainError(domain)
		}
	}
	return nil
}

// ValidateUniqueID accepts 1-64 characters of [A-Za-z0-9_-].
// ValidateUniqueID 接受 1-64 个 [A-Za-z0-9_-] 字符。
func ValidateUniqueID(id string) error {
	if !isIdentifier(id, MaxUniqueIDLength) {
		return pxerrors.NewUniqueIDError(id)
	}
	return nil
}

// ValidateRuleID accepts 1-100 characters of [A-Za-z0-9_-].
// ValidateRuleID 接受 1-100 个 [A-Za-z0-9_-] 字符。
func ValidateRuleID(id string) error {
	if !isIdentifier(id, MaxRuleIDLength) {
		return pxerrors.NewRuleIDError(id)
	}
	return nil
}

// SanitizeSearch trims a search term and caps it to MaxSearchLength runes.
// SanitizeSearch 修剪搜索词并将其限制为 MaxSearchLength 个字符。
func SanitizeSearch(term string) string {
	term = strings.TrimSpace(term)
	if !utf8.ValidString(term) {
		term = strings.ToValidUTF8(term, "")
	}
	if utf8.RuneCountInString(term) <= MaxSearchLength {
		return term
	}
	runes := []rune(term)
	return string(runes[:MaxSearchLength])
}

func isIdentifier(s string, max int) bool {
	if s == "" || len(s) > max {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
