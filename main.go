package main

import "emtbot/cmd"

func main() {
	cmd.Execute()
}
