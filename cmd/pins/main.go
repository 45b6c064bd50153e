// Command pins reads and writes versioned data pins on a board.
package main

import "github.com/mesh-intelligence/pins/internal/cli"

func main() {
	cli.Execute()
}
