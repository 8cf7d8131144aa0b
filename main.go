package main

import "github.com/xrsl/cvtailor/cmd"

func main() {
	cmd.Execute()
}
