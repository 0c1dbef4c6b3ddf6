package main

import "github.com/solace-dgrama/tools/internal/cmd"

func main() {
	cmd.Execute()
}
