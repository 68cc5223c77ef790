package main

import "github.com/canopy-network/smtkv/cmd/cli"

func main() {
	cli.Execute()
}
