package main

import "artifact-store/cmd"

func main() {
	cmd.Execute()
}
