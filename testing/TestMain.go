// Package testing is blank-imported by test files that build the HTTP stack
// or the binaries. It flags the process as a test run before any init code
// reads the environment.
package testing

import "os"

func init() {
	if os.Getenv("INKWELL_TEST_MODE") == "" {
		_ = os.Setenv("INKWELL_TEST_MODE", "1")
	}
	if os.Getenv("APP_ENV") == "" {
		_ = os.Setenv("APP_ENV", "test")
	}
}
