package main

import "github.com/oshokin/alarm-clock/cmd/alarm-dismiss/cmd"

func main() {
	cmd.Execute()
}
