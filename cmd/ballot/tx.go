package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/calehh/ballot-app/app"
	"github.com/calehh/ballot-app/crypto"
	"github.com/calehh/ballot-app/tx"
	"github.com/calehh/ballot-app/types"
	"github.com/cometbft/cometbft/rpc/client/http"
	"github.com/spf13/cobra"
)

// txArguments are shared by every command that sends a ballot transaction.
type txArguments struct {
	Url    string
	Skey   string
	Nonce  int64
	NoSend bool
}

func txFlags(cmd *cobra.Command, args *txArguments) {
	urlFlag(cmd, &args.Url)
	keyFlag(cmd, &args.Skey)
	cmd.Flags().Int64VarP(&args.Nonce, "nonce", "n", -1, "signer nonce, queried from the node when negative")
	cmd.Flags().BoolVarP(&args.NoSend, "nosend", "", false, "print the signed transaction instead of sending it")
}

func abciQuery(ctx context.Context, cli *http.HTTP, path string, req *types.QueryRequest, out any) error {
	dat, err := json.Marshal(req)
	if err != nil {
		return err
	}
	res, err := cli.ABCIQuery(ctx, path, dat)
	if err != nil {
		return err
	}
	if res.Response.Code != 0 {
		return fmt.Errorf("query %s failed with code %d: %s", path, res.Response.Code, res.Response.Log)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(res.Response.Value, out)
}

func sendTx(args *txArguments, tp tx.BallotTxType, payload any) error {
	cli, err := http.New(args.Url, "/websocket")
	if err != nil {
		return fmt.Errorf("new client: %w", err)
	}
	pv, err := crypto.LoadFilePV(args.Skey)
	if err != nil {
		return err
	}
	ctx := context.Background()
	gres, err := cli.Genesis(ctx)
	if err != nil {
		return fmt.Errorf("get chain genesis: %w", err)
	}
	chainId := gres.Genesis.ChainID

	nonce := uint64(args.Nonce)
	if args.Nonce < 0 {
		var voter types.Voter
		err = abciQuery(ctx, cli, app.QueryVoter, &types.QueryRequest{Identity: pv.Address()}, &voter)
		if err != nil {
			return fmt.Errorf("query nonce of %s: %w", pv.Address(), err)
		}
		nonce = voter.Nonce
	}

	btx := &tx.BallotTx{
		Version: tx.BallotTxVersion1,
		Type:    tp,
		Nonce:   nonce,
		Sender:  pv.Address(),
		Tx:      payload,
	}
	dat, err := btx.SigData([]byte(chainId))
	if err != nil {
		return fmt.Errorf("tx sign data: %w", err)
	}
	sig, err := pv.Sign(dat)
	if err != nil {
		return fmt.Errorf("sign tx: %w", err)
	}
	btx.Sig = [][]byte{sig}
	dat, err = tx.MarshalBallotTx(btx)
	if err != nil {
		return err
	}
	if args.NoSend {
		fmt.Println(hex.EncodeToString(dat))
		return nil
	}
	res, err := cli.BroadcastTxSync(ctx, dat)
	if err != nil {
		return fmt.Errorf("broadcast tx: %w", err)
	}
	out, _ := json.Marshal(res)
	fmt.Println(string(out))
	if res.Code != 0 {
		return errors.New(res.Log)
	}
	return nil
}
