// MIT License
//
// Copyright 2018 Canonical Ledgers, LLC
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS
// IN THE SOFTWARE.

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/posener/complete"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kuracoin/sndeclare/internal/artifact"
	"github.com/kuracoin/sndeclare/internal/declare"
	"github.com/kuracoin/sndeclare/starknet"
)

var (
	curl         bool
	checkChain   bool
	noJournal    bool
	pollInterval time.Duration
	waitTimeout  time.Duration
)

var declareCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		DisableFlagsInUseLine: true,
		Use: `
declare [flags] NAME...`[1:],
		Aliases: []string{"dec"},
		Short:   "Declare contract classes",
		Long: `
Declare the class of each contract NAME.

The artifacts of NAME are read from the contracts directory. A Cairo 1
contract needs NAME.compiled_contract_class.json and NAME.contract_class.json
and is declared with --tx-version 2 or 3. A Cairo 0 contract needs NAME.json
and is declared with --tx-version 1.

A contract whose class is already declared is skipped. Otherwise a declare
transaction is signed with PRIV_KEY, submitted from ADDRESS and polled every
--interval until it is accepted or --wait-timeout passes. A timed out
transaction may still be accepted later; use the wait command to check.

Fees

Exactly one of --auto-estimate or --max-fee must be set, here or in the
config. --auto-estimate pays up to 1.5 times the node's fee estimate. Version 3
transactions only support --auto-estimate.

Multiple contracts are declared concurrently. Declarations from the same
account take turns so that each uses the correct nonce.
`[1:],
		Args: declareArgs,
		RunE: runDeclare,
	}
	rootCmd.AddCommand(cmd)
	rootCmplCmd.Sub["declare"] = declareCmplCmd
	rootCmplCmd.Sub["help"].Sub["declare"] = complete.Command{}

	flags := cmd.Flags()
	flags.StringP("tx-version", "V", "", "Declare transaction version: 1, 2 or 3")
	flags.String("max-fee", "", "Pay a fixed max fee, in wei")
	flags.Bool("auto-estimate", false, "Pay according to the node's fee estimate")
	flags.BoolVar(&curl, "curl", false,
		"Do not submit the transactions; print a curl command for each, "+
			"with consecutive nonces")
	flags.BoolVar(&checkChain, "check-chain", false,
		"Fail if the node is not on the configured chain")
	flags.BoolVar(&noJournal, "no-journal", false,
		"Do not record declarations in the journal")
	flags.DurationVar(&pollInterval, "interval", declare.DefaultInterval,
		"Time between transaction status queries")
	flags.DurationVar(&waitTimeout, "wait-timeout", declare.DefaultTimeout,
		"How long to wait for a transaction to be accepted")
	generateCmplFlags(cmd, declareCmplCmd.Flags)
	return cmd
}()

var declareCmplCmd = complete.Command{
	Flags: mergeFlags(apiCmplFlags, complete.Flags{
		"--tx-version": complete.PredictSet("1", "2", "3"),
		"-V":           complete.PredictSet("1", "2", "3"),
	}),
	Args: PredictContracts,
}

func declareArgs(_ *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("at least one contract NAME is required")
	}
	dupl := make(map[string]struct{}, len(args))
	for _, name := range args {
		if _, ok := dupl[name]; ok {
			return fmt.Errorf("duplicate: %v", name)
		}
		dupl[name] = struct{}{}
	}
	return nil
}

func runDeclare(cmd *cobra.Command, names []string) error {
	ctx := cmd.Context()
	sender, err := conf.Sender()
	if err != nil {
		return err
	}
	client := newClient()
	p := declare.Pipeline{
		Loader: artifact.Loader{Dir: conf.ContractsDir},
		Node:   client,
		Sender: sender,
		Confirmer: declare.Confirmer{
			Node:     client,
			Interval: pollInterval,
			Timeout:  waitTimeout,
		},
		CheckChain: checkChain,
	}
	if curl {
		p.Intercept = func(tx *starknet.SignedDeclareTxn) error {
			return printCurl(os.Stdout, client.NodeURL, tx)
		}
	}
	if !noJournal {
		j, err := openJournal(ctx)
		if err != nil {
			return err
		}
		defer func() {
			if err := j.Close(); err != nil {
				log.Error(err)
			}
		}()
		p.Journal = j
	}

	log.Infof("Declaring %v on %v with %v, %v",
		strings.Join(names, ", "), conf.Chain, conf.Version, conf.FeePolicy())
	results := make([]*declare.Result, len(names))
	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			res, err := p.Declare(ctx, conf.Declaration(name))
			results[i] = res
			return err
		})
	}
	err = g.Wait()

	var failed int
	for _, res := range results {
		printResult(os.Stdout, res)
		if res.State == declare.StateFailed {
			failed++
		}
	}
	if err != nil {
		if len(names) == 1 {
			return err
		}
		return fmt.Errorf("%v of %v declarations failed", failed, len(names))
	}
	return nil
}

// printCurl writes a curl command that submits tx to url.
func printCurl(w io.Writer, url string, tx *starknet.SignedDeclareTxn) error {
	req := struct {
		JSONRPC string      `json:"jsonrpc"`
		ID      int         `json:"id"`
		Method  string      `json:"method"`
		Params  interface{} `json:"params"`
	}{
		JSONRPC: "2.0",
		Method:  "starknet_addDeclareTransaction",
		Params: struct {
			DeclareTransaction *starknet.SignedDeclareTxn `json:"declare_transaction"`
		}{tx},
	}
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("json.Marshal(): %w", err)
	}
	body := strings.ReplaceAll(string(data), `'`, `'\''`)
	fmt.Fprintf(w, `curl -X POST --data-binary '%v' -H 'content-type:application/json;' %v`+"\n",
		body, url)
	return nil
}

func printResult(w io.Writer, res *declare.Result) {
	fmt.Fprintf(w, "Contract: %v\nState: %v\n", res.Name, res.State)
	if res.ClassHash != nil {
		fmt.Fprintf(w, "Class Hash: %v\n", res.ClassHash)
	}
	if res.CompiledClassHash != nil {
		fmt.Fprintf(w, "Compiled Class Hash: %v\n", res.CompiledClassHash)
	}
	if res.TxHash != nil {
		fmt.Fprintf(w, "Transaction Hash: %v\n", res.TxHash)
	}
	if r := res.Receipt; r != nil && r.FinalityStatus != "" {
		fmt.Fprintf(w, "Status: %v %v\n", r.FinalityStatus, r.ExecutionStatus)
	}
	if res.Err != nil {
		fmt.Fprintf(w, "Error: %v\n", res.Err)
	}
	fmt.Fprintln(w)
}
