// Package main is the entry point of the nextdynamic command.
package main

import "nextdynamic/cmd"

func main() {
	cmd.Execute()
}
