package app

import (
	"os"
	"strconv"
)

// TestModeEnv is set by the shared testing package so binaries linked into
// tests never open network connections.
const TestModeEnv = "INKWELL_TEST_MODE"

// InTestMode reports whether INKWELL_TEST_MODE holds a true value.
func InTestMode() bool {
	on, err := strconv.ParseBool(os.Getenv(TestModeEnv))
	return err == nil && on
}
