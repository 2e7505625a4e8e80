package main

import "github.com/Tiliavir/harvestctl/cmd"

func main() {
	cmd.Execute()
}
