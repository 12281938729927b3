package main

import "github.com/session-desk/sessiondesk/cmd/sessiondesk/cmd"

func main() {
	cmd.Execute()
}
