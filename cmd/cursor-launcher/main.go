package main

import "github.com/oshokin/cursor-launcher/cmd/cursor-launcher/cmd"

func main() {
	cmd.Execute()
}
