package main

import "github.com/homekit-bridges/homekit-alexa/cmd"

func main() {
	cmd.Execute()
}
