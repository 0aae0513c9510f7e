package app

import (
	"os"
	"strconv"
)

const testModeEnv = "ADMINPANEL_TEST_MODE"

// Mode describes how a binary was launched.
type Mode struct {
	// Test stops binaries before they dial Postgres, Redis or the network.
	Test bool
}

// DetectMode reads the launch mode through lookup.
func DetectMode(lookup func(string) (string, bool)) Mode {
	raw, ok := lookup(testModeEnv)
	if !ok {
		return Mode{}
	}
	test, err := strconv.ParseBool(raw)
	return Mode{Test: err == nil && test}
}

// InTestMode reports whether the process environment requests test mode.
func InTestMode() bool {
	return DetectMode(os.LookupEnv).Test
}
