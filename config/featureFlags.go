package config

import (
	"os"
	"strings"
)

// LocalDevMode switches identity resolution from forwarded proxy headers to
// local environment variables (LOCAL_USER / LOCAL_USER_NAME).
//
// Set via env:
// - LOCAL_DEV=true
func LocalDevMode() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("LOCAL_DEV")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
