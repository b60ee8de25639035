package main

import "github.com/spf13/cobra"

func urlFlag(cmd *cobra.Command, url *string) {
	cmd.Flags().StringVarP(url, "url", "u", "http://127.0.0.1:26657", "ballot node rpc url")
}

func keyFlag(cmd *cobra.Command, key *string) {
	cmd.Flags().StringVarP(key, "skeyPath", "s", "./config/priv_validator_key.json", "private key path")
}
