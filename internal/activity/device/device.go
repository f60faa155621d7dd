// Package device turns User-Agent headers into the browser and OS shown in
// activity entries.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// Info is the parsed form of a User-Agent header.
type Info struct {
	Browser string
	OS      string
	Mobile  bool
	Bot     bool
}

// Parse extracts browser and OS names. Empty input yields the zero Info.
func Parse(userAgent string) Info {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return Info{}
	}
	ua := useragent.New(userAgent)

	info := Info{Mobile: ua.Mobile(), Bot: ua.Bot()}
	if name, version := ua.Browser(); name != "" {
		info.Browser = strings.TrimSpace(name + " " + majorVersion(version))
	}
	if osInfo := ua.OSInfo(); osInfo.Name != "" {
		info.OS = strings.TrimSpace(osInfo.Name + " " + osInfo.Version)
	} else if os := ua.OS(); os != "" {
		info.OS = os
	} else {
		info.OS = ua.Platform()
	}
	return info
}

func majorVersion(v string) string {
	major, _, _ := strings.Cut(v, ".")
	return major
}
