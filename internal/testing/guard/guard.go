// Package guard turns on test mode when imported for side effects.
package guard

import "os"

func init() {
	if os.Getenv("ODYSSEY_TEST_MODE") == "" {
		_ = os.Setenv("ODYSSEY_TEST_MODE", "1")
	}
}
