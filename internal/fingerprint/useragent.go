package fingerprint

import (
	"fmt"
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent turns a raw User-Agent header into a short human-readable
// device name ("Chrome on Mac OS X") for organizer-facing views and audit
// events.
func ParseUserAgent(rawUA string) string {
	if strings.TrimSpace(rawUA) == "" {
		return "Unknown Device"
	}

	ua := useragent.New(rawUA)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}

	os := ua.OSInfo().Name
	if os == "" {
		os = ua.Platform()
	}
	if os == "" {
		os = "Unknown OS"
	}

	return strings.TrimSpace(fmt.Sprintf("%s on %s", browser, os))
}

// NormalizeUserAgent reduces a User-Agent to the parts that stay stable
// across browser patch releases: browser name, major version, and OS. Used as
// legacy identity input, so minor updates keep the identity while a browser
// or OS switch changes it.
func NormalizeUserAgent(rawUA string) string {
	if strings.TrimSpace(rawUA) == "" {
		return "unknown"
	}

	ua := useragent.New(rawUA)
	browser, version := ua.Browser()
	major := version
	if idx := strings.IndexByte(version, '.'); idx != -1 {
		major = version[:idx]
	}

	os := ua.OSInfo().Name
	if os == "" {
		os = ua.Platform()
	}

	return strings.ToLower(strings.Join([]string{browser, major, os}, "/"))
}
