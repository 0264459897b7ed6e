package validation

import (
	"crypto/subtle"
	"regexp"
)

// symbolRegex matches ticker-like symbols such as BTCUSD, ETH/USD or BRK.B.
var symbolRegex = regexp.MustCompile(`^[A-Za-z0-9._/-]+$`)

const maxSymbolLength = 20

// IsValidSymbolFormat reports whether s looks like an exchange symbol.
// It is not part of ValidateSignal; the service applies it when strict
// symbol checking is enabled.
func IsValidSymbolFormat(s string) bool {
	return len(s) <= maxSymbolLength && symbolRegex.MatchString(s)
}

// IsPriceInRange reports whether price is absent or within (min, max].
func IsPriceInRange(price *float64, min, max float64) bool {
	if price == nil {
		return true
	}
	return *price > min && *price <= max
}

var bearerRegex = regexp.MustCompile(`^Bearer\s+(.+)$`)

// ParseBearerToken reports whether header is "Bearer <token>" with token
// equal to expected. The comparison runs in constant time.
func ParseBearerToken(header, expected string) bool {
	if header == "" || expected == "" {
		return false
	}

	matches := bearerRegex.FindStringSubmatch(header)
	if len(matches) != 2 {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(matches[1]), []byte(expected)) == 1
}
