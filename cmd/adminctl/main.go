// Command adminctl runs operator tasks against the admin panel stores:
// migrations, permission seeding, grants, user bootstrap and job triggers.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
