package logging

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// RedactedValue replaces sensitive values in log output.
const RedactedValue = "[REDACTED]"

// plainKeys may be logged verbatim; everything else passed to MaskField is
// masked.
var plainKeys = map[string]struct{}{
	"component": {},
	"depositor": {},
	"driver":    {},
	"error":     {},
	"id":        {},
	"module":    {},
	"reason":    {},
	"user":      {},
}

var dsnPassword = regexp.MustCompile(`(?i)(password=)(\S+)`)

// MaskValue returns RedactedValue for non-empty values.
func MaskValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return value
	}
	return RedactedValue
}

// MaskField builds an attribute that hides value unless key is known to be
// safe. Key casing is preserved.
func MaskField(key, value string) slog.Attr {
	if _, ok := plainKeys[strings.ToLower(strings.TrimSpace(key))]; ok || strings.TrimSpace(value) == "" {
		return slog.String(key, value)
	}
	return slog.String(key, RedactedValue)
}

// MaskDSN hides the password of a database connection string. Both URL
// ("postgres://user:pw@host/db") and keyword ("host=x password=pw") forms are
// handled; anything else is returned unchanged.
func MaskDSN(dsn string) string {
	if strings.Contains(dsn, "://") {
		if u, err := url.Parse(dsn); err == nil && u.User != nil {
			if _, set := u.User.Password(); set {
				u.User = url.UserPassword(u.User.Username(), RedactedValue)
				return u.String()
			}
			return dsn
		}
	}
	return dsnPassword.ReplaceAllString(dsn, "${1}"+RedactedValue)
}
