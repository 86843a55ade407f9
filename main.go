package main

import "github.com/iksnae/voicechat/cmd"

func main() {
	cmd.Execute()
}
