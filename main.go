package main

import "sona/cmd"

func main() {
	cmd.Execute()
}
