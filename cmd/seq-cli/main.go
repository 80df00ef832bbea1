//go:build unix

package main

import "github.com/backbone81/wal-sequencer/cmd/seq-cli/cmd"

func main() {
	cmd.Execute()
}
