package config

import (
	"net/url"
	"regexp"
	"strings"
)

// RedactURL replaces the password of a connection URL with "***". URLs that
// do not parse or carry no password are returned unchanged.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}

	if _, ok := u.User.Password(); !ok {
		return raw
	}

	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return raw
	}

	authority := rest
	if end := strings.IndexAny(rest, "/?#"); end >= 0 {
		authority = rest[:end]
	}

	at := strings.LastIndex(authority, "@")
	if at < 0 {
		return raw
	}

	user, _, _ := strings.Cut(authority[:at], ":")

	return scheme + "://" + user + ":***" + rest[at:]
}

// passwordPair matches password=value in a keyword/value connection string.
var passwordPair = regexp.MustCompile(`(?i)(password\s*=\s*)('[^']*'|\S+)`) //nolint:gochecknoglobals // compiled once

// RedactDSN redacts the password of either a URL or a keyword/value
// connection string such as "host=db password=secret".
func RedactDSN(raw string) string {
	if strings.Contains(raw, "://") {
		return RedactURL(raw)
	}

	return passwordPair.ReplaceAllString(raw, "${1}***")
}
