package main

import "github.com/udibr/fuel/cmd"

func main() {
	cmd.Execute()
}
