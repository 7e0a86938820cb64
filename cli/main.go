package main

import "github.com/opuscine/watchtogether-sdk-go/cli/cmd"

func main() {
	cmd.Execute()
}
