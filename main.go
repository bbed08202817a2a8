package main

import "doc-sync/cmd"

func main() {
	cmd.Execute()
}
