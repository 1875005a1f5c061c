// SPDX-License-Identifier: MPL-2.0

// comet is a component installer for Godot C# projects.
package main

import cmd "comet-cli/cmd/comet"

func main() {
	cmd.Execute()
}
