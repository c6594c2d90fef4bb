package main

import "docgrip/internal/cli"

func main() {
	cli.Execute()
}
