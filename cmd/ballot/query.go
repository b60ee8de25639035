package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/calehh/ballot-app/app"
	"github.com/calehh/ballot-app/crypto"
	"github.com/calehh/ballot-app/types"
	"github.com/cometbft/cometbft/rpc/client/http"
	"github.com/spf13/cobra"
)

type queryArguments struct {
	Url  string
	Skey string
}

var queryArgs queryArguments

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the ballot state",
}

// queryPaths maps subcommands to query paths. Gated queries are sent with the
// identity of the key file as caller.
var queryPaths = []struct {
	use    string
	short  string
	path   string
	gated  bool
	index  bool
	target bool
}{
	{"status", "Current phase and its label", app.QueryStatus, false, false, false},
	{"proposal <index>", "A single proposal", app.QueryProposal, true, true, false},
	{"proposals", "All proposals", app.QueryProposals, true, false, false},
	{"votecount <index>", "Votes of a proposal", app.QueryVoteCount, true, true, false},
	{"totalvotes", "Total votes cast", app.QueryTotalVotes, true, false, false},
	{"winner", "The winning proposal", app.QueryWinner, false, false, false},
	{"votedfor <identity>", "The proposal a voter picked", app.QueryVotedFor, false, false, true},
	{"voter <identity>", "The signer record of an identity", app.QueryVoter, false, false, true},
}

func init() {
	queryCmd.PersistentFlags().StringVarP(&queryArgs.Url, "url", "u", "http://127.0.0.1:26657", "ballot node rpc url")
	queryCmd.PersistentFlags().StringVarP(&queryArgs.Skey, "skeyPath", "s", "./config/priv_validator_key.json", "private key path of the caller")
	for _, q := range queryPaths {
		q := q
		nargs := 0
		if q.index || q.target {
			nargs = 1
		}
		queryCmd.AddCommand(&cobra.Command{
			Use:   q.use,
			Short: q.short,
			Args:  cobra.ExactArgs(nargs),
			RunE: func(cmd *cobra.Command, args []string) error {
				req := &types.QueryRequest{}
				if q.gated {
					pv, err := crypto.LoadFilePV(queryArgs.Skey)
					if err != nil {
						return err
					}
					req.Caller = pv.Address()
				}
				if q.index {
					idx, err := strconv.ParseUint(args[0], 10, 64)
					if err != nil {
						return fmt.Errorf("invalid proposal index: %w", err)
					}
					req.Index = idx
				}
				if q.target {
					req.Identity = args[0]
				}
				return runQuery(q.path, req)
			},
		})
	}
}

func runQuery(path string, req *types.QueryRequest) error {
	cli, err := http.New(queryArgs.Url, "/websocket")
	if err != nil {
		return fmt.Errorf("new client: %w", err)
	}
	var out json.RawMessage
	if err := abciQuery(context.Background(), cli, path, req, &out); err != nil {
		return err
	}
	pretty, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(pretty))
	return nil
}
