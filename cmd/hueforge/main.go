// Hueforge - colour palette scoring and optimisation
//
// Hueforge scores palettes with a composite aesthetic reward and searches
// for better ones with hill-climbing or policy-gradient optimisation.
//
// Copyright (c) 2025 John Mylchreest
// Licensed under the MIT License
package main

import (
	"github.com/jmylchreest/hueforge/internal/cli"
)

func main() {
	cli.Execute()
}
