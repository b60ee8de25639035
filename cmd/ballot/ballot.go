package main

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/calehh/ballot-app/tx"
	"github.com/spf13/cobra"
)

var (
	whitelistArgs txArguments
	advanceArgs   txArguments
	submitArgs    txArguments
	voteArgs      txArguments
)

var whitelistCmd = &cobra.Command{
	Use:   "whitelist <pubkey>",
	Short: "Register a voter by hex ed25519 public key (administrator only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pk, err := hex.DecodeString(args[0])
		if err != nil {
			return fmt.Errorf("invalid pubkey: %w", err)
		}
		return sendTx(&whitelistArgs, tx.BallotTxTypeWhitelist, &tx.WhitelistTx{PubKey: pk})
	},
}

var advanceCmd = &cobra.Command{
	Use:   "advance",
	Short: "Move the workflow to the next phase (administrator only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendTx(&advanceArgs, tx.BallotTxTypeAdvance, &tx.AdvanceTx{})
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit <description>",
	Short: "Submit a proposal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendTx(&submitArgs, tx.BallotTxTypeProposal, &tx.ProposalTx{Description: args[0]})
	},
}

var voteCmd = &cobra.Command{
	Use:   "vote <proposal index>",
	Short: "Cast the single vote of the signer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid proposal index: %w", err)
		}
		return sendTx(&voteArgs, tx.BallotTxTypeVote, &tx.VoteTx{Proposal: idx})
	},
}

func init() {
	txFlags(whitelistCmd, &whitelistArgs)
	txFlags(advanceCmd, &advanceArgs)
	txFlags(submitCmd, &submitArgs)
	txFlags(voteCmd, &voteArgs)
}
