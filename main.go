package main

import "enrollment-platform/cmd"

func main() {
	cmd.Execute()
}
