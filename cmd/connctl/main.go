package main

import "go.pilab.hu/connections/cmd/connctl/cmd"

func main() {
	cmd.Execute()
}
