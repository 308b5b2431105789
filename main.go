// Command printfloor moves print jobs through their production stages.
package main

import "printfloor/internal/cli"

func main() {
	cli.Execute()
}
