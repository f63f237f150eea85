// The main package for the contactextractor executable.
package main

import (
	"github.com/JakeFAU/contact-extractor/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
