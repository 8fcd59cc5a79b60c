package main

import "github.com/aseeltv/channelguide/cmd/channelguide/cmd"

func main() {
	cmd.Execute()
}
