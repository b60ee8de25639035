package main

import (
	"fmt"
	"os"
)

func main() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(pubkeyCmd)
	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(whitelistCmd)
	rootCmd.AddCommand(advanceCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(voteCmd)
	rootCmd.AddCommand(queryCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
