package main

import "github.com/oshokin/alarm-clock/cmd/alarm-status/cmd"

func main() {
	cmd.Execute()
}
