// The main package for the adforge executable.
package main

import (
	"github.com/JakeFAU/adforge/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
