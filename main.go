package main

import "github.com/derickschaefer/fredmcp/cmd"

func main() {
	cmd.Execute()
}
