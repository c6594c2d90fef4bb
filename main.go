// Command docgrip browses Dash/Zeal docsets in the terminal. The same binary
// is built from cmd/docgrip.
package main

import "docgrip/internal/cli"

func main() {
	cli.Execute()
}
