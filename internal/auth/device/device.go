// Package device derives a human-readable device name from a User-Agent
// string for the audit trail, so an account holder reviewing their history
// sees "Chrome on Linux" rather than a raw UA blob.
package device

import (
	"fmt"
	"strings"

	"github.com/mssola/useragent"
)

// DisplayName summarizes a User-Agent header. Unknown or empty agents come
// back as "unknown device".
func DisplayName(rawUA string) string {
	rawUA = strings.TrimSpace(rawUA)
	if rawUA == "" {
		return "unknown device"
	}
	ua := useragent.New(rawUA)
	name, _ := ua.Browser()
	os := ua.OSInfo().Name

	switch {
	case name != "" && os != "":
		return fmt.Sprintf("%s on %s", name, os)
	case name != "":
		return name
	case os != "":
		return os
	default:
		return "unknown device"
	}
}
