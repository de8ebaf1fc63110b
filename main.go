package main

import "github.com/xvierd/flow-grid/cmd"

func main() {
	cmd.Execute()
}
