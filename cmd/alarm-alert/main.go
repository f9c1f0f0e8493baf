package main

import "github.com/oshokin/alarm-clock/cmd/alarm-alert/cmd"

func main() {
	cmd.Execute()
}
