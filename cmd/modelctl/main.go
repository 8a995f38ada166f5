package main

import "github.com/inamate/modeler/cmd/modelctl/cmd"

func main() {
	cmd.Execute()
}
