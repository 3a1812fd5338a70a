package main

import "github.com/masmgr/content-gateway/cmd"

func main() {
	cmd.Run()
}
