// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Forgectl is the operator CLI for the Forge registry: tenant
// provisioning, migration bootstrap, and schema inspection against the
// system Adapter directly, without going through the HTTP API.
package main

import (
	"os"

	"github.com/forgebase/forge/cmd/forgectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
