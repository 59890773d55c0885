package main

import "github.com/fatihsahinbas/eeg-mental-tracker/cmd"

func main() {
	cmd.Execute()
}
