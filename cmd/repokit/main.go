// Command repokit serves, migrates and seeds the products sample on any of
// the supported backends.
//
//	repokit migrate
//	repokit seed
//	repokit serve --read-only --cache-ttl 30s
//
// Settings come from --config, .env and REPOKIT_* environment variables.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
