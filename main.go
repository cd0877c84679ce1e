package main

import "github.com/deploymenttheory/go-bootimg/cmd"

func main() {
	cmd.Execute()
}
