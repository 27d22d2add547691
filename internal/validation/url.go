package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// BaseURLValidator checks the catalog API and sprite base URLs before the
// gateway is built from them.
type BaseURLValidator struct {
	// AllowLocalhost permits loopback hosts, needed for local mirrors and tests
	AllowLocalhost bool
	// AllowPrivateIPs permits RFC 1918 and link-local addresses
	AllowPrivateIPs bool
	// MaxLength is the maximum allowed URL length
	MaxLength int
}

// NewBaseURLValidator creates a validator with secure defaults
func NewBaseURLValidator() *BaseURLValidator {
	return &BaseURLValidator{
		MaxLength: 2048,
	}
}

// NewPermissiveBaseURLValidator creates a validator that allows local mirrors
func NewPermissiveBaseURLValidator() *BaseURLValidator {
	return &BaseURLValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		MaxLength:       2048,
	}
}

// ValidateAndNormalize validates a base URL and returns it with a trailing
// slash so relative endpoint paths resolve beneath it.
func (v *BaseURLValidator) ValidateAndNormalize(input string) (string, error) {
	input = strings.TrimSpace(input)

	if input == "" {
		return "", fmt.Errorf("URL cannot be empty")
	}
	if len(input) > v.MaxLength {
		return "", fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}
	if strings.ContainsAny(input, "<>\"'`") {
		return "", fmt.Errorf("URL contains invalid characters")
	}

	if !strings.Contains(input, "://") {
		input = "https://" + input
	}

	parsed, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("URL must use http or https protocol")
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("URL must have a valid hostname")
	}
	if parsed.RawQuery != "" || parsed.Fragment != "" {
		return "", fmt.Errorf("base URL must not carry a query or fragment")
	}
	if strings.Contains(parsed.Path, "..") {
		return "", fmt.Errorf("directory traversal patterns not allowed in URL path")
	}
	if err := v.validateHost(parsed.Hostname()); err != nil {
		return "", err
	}

	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	return parsed.String(), nil
}

func (v *BaseURLValidator) validateHost(hostname string) error {
	if hostname == "" {
		return fmt.Errorf("URL must have a valid hostname")
	}
	if !v.AllowLocalhost && isLocalhost(hostname) {
		return fmt.Errorf("localhost URLs are not permitted")
	}
	if !v.AllowPrivateIPs {
		if ip := net.ParseIP(hostname); ip != nil && isPrivateIP(ip) {
			return fmt.Errorf("private IP addresses are not permitted")
		}
	}
	if hostname == "0.0.0.0" || hostname == "255.255.255.255" {
		return fmt.Errorf("unroutable hostname %s", hostname)
	}
	return nil
}

func isLocalhost(hostname string) bool {
	hostname = strings.ToLower(hostname)
	return hostname == "localhost" ||
		hostname == "::1" ||
		strings.HasPrefix(hostname, "127.") ||
		strings.HasSuffix(hostname, ".localhost")
}

var privateBlocks = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"169.254.0.0/16",
	"127.0.0.0/8",
	"fc00::/7",
	"fe80::/10",
)

func isPrivateIP(ip net.IP) bool {
	for _, block := range privateBlocks {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	blocks := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, block, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(err)
		}
		blocks = append(blocks, block)
	}
	return blocks
}
