package main

import (
	"beatdrop/cmd"
)

func main() {
	cmd.Execute()
}
