package main

import (
	"encoding/hex"
	"fmt"

	"github.com/calehh/ballot-app/crypto"
	"github.com/spf13/cobra"
)

type pubkeyArguments struct {
	Skey string
}

var pubkeyArgs pubkeyArguments

var pubkeyCmd = &cobra.Command{
	Use:   "pubkey",
	Short: "Print the public key and identity of a key file",
	Args:  cobra.NoArgs,
	RunE:  pubkeyRun,
}

var keygenArgs pubkeyArguments

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a voter key file",
	Args:  cobra.NoArgs,
	RunE:  keygenRun,
}

func init() {
	keyFlag(pubkeyCmd, &pubkeyArgs.Skey)
	keyFlag(keygenCmd, &keygenArgs.Skey)
}

func printKey(pv *crypto.PV) {
	fmt.Println("pubkey:", hex.EncodeToString(pv.PublicKey()))
	fmt.Println("address:", pv.Address())
}

func pubkeyRun(cmd *cobra.Command, args []string) error {
	pv, err := crypto.LoadFilePV(pubkeyArgs.Skey)
	if err != nil {
		return err
	}
	printKey(pv)
	return nil
}

func keygenRun(cmd *cobra.Command, args []string) error {
	pv, err := crypto.GenFilePV(keygenArgs.Skey)
	if err != nil {
		return err
	}
	printKey(pv)
	return nil
}
