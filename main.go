package main

import "github.com/kozaktomas/lora-person/cmd"

func main() {
	cmd.Execute()
}
