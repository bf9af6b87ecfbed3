// Package target validates and normalizes the domain a run is pointed at.
package target

import (
	"fmt"
	"net"
	"strings"

	"github.com/miekg/dns"
	"golang.org/x/net/idna"

	"github.com/romso/r4d4r/internal/domain"
)

// Normalize turns user input such as "https://Example.com:8443/login" into a
// bare ASCII domain ("example.com").
// Supports bare names, URLs with any scheme, userinfo, port, path, query and
// a trailing root dot. Internationalized names are converted to punycode.
func Normalize(raw string) (string, error) {
	host := strings.TrimSpace(raw)
	if host == "" {
		return "", fmt.Errorf("%w: empty", domain.ErrInvalidTarget)
	}

	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if i := strings.LastIndex(host, "@"); i >= 0 {
		host = host[i+1:]
	}
	if strings.HasPrefix(host, "[") || net.ParseIP(host) != nil {
		return "", fmt.Errorf("%w: %s is an IP address, not a domain", domain.ErrInvalidTarget, raw)
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")

	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrInvalidTarget, raw, err)
	}
	ascii = strings.ToLower(ascii)

	labels, ok := dns.IsDomainName(ascii)
	if !ok || ascii == "" {
		return "", fmt.Errorf("%w: %s is not a valid domain name", domain.ErrInvalidTarget, raw)
	}
	if labels < 2 {
		return "", fmt.Errorf("%w: %s needs at least two labels", domain.ErrInvalidTarget, raw)
	}
	if net.ParseIP(ascii) != nil {
		return "", fmt.Errorf("%w: %s is an IP address, not a domain", domain.ErrInvalidTarget, raw)
	}
	return ascii, nil
}
