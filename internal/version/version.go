// Package version carries build metadata and the short startup banner
// printed by main.go, the same role it plays in the teacher.
package version

import (
	"fmt"
	"log"
)

var (
	Name        = "deeplx-gateway"
	ShortName   = "dlxgw"
	Authors     = "the deeplx-gateway maintainers"
	Description = "Translation API load balancer and reverse proxy"
	Version     = "v0.1.0"
	Commit      = "none"
	Date        = "nowish"
)

// UserAgent is sent on every probe and dispatch HTTP request so upstream
// operators can identify traffic from this service.
func UserAgent() string {
	return fmt.Sprintf("%s/%s", Name, Version)
}

// PrintVersionInfo writes a short banner; extendedInfo adds build metadata.
func PrintVersionInfo(extendedInfo bool, vlog *log.Logger) {
	vlog.Printf("%s %s — %s\n", Name, Version, Description)
	if extendedInfo {
		vlog.Printf("  commit: %s\n", Commit)
		vlog.Printf("  built:  %s\n", Date)
	}
}
