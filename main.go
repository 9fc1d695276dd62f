package main

import "github.com/lobocrea/wsptranscriber/internal/cmd"

func main() {
	cmd.Execute()
}
