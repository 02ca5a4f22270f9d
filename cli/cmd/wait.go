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
	"fmt"
	"os"
	"strings"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/posener/complete"
	"github.com/spf13/cobra"

	"github.com/kuracoin/sndeclare/internal/db"
	"github.com/kuracoin/sndeclare/internal/declare"
	"github.com/kuracoin/sndeclare/starknet"
)

var waitCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		DisableFlagsInUseLine: true,
		Use: `
wait [flags] TXHASH|NAME`[1:],
		Short: "Wait for a declare transaction to be accepted",
		Long: `
Poll the status of a submitted declare transaction until it is accepted,
rejected or reverted, or until --wait-timeout passes.

TXHASH is a 0x prefixed transaction hash. Given a contract NAME instead, the
transaction of its most recent declaration in the journal is used. The outcome
is recorded in the journal.
`[1:],
		Args: cobra.ExactArgs(1),
		RunE: runWait,
	}
	rootCmd.AddCommand(cmd)
	rootCmplCmd.Sub["wait"] = waitCmplCmd
	rootCmplCmd.Sub["help"].Sub["wait"] = complete.Command{}

	flags := cmd.Flags()
	flags.DurationVar(&pollInterval, "interval", declare.DefaultInterval,
		"Time between transaction status queries")
	flags.DurationVar(&waitTimeout, "wait-timeout", declare.DefaultTimeout,
		"How long to wait for the transaction to be accepted")
	flags.BoolVar(&noJournal, "no-journal", false,
		"Do not read or update the journal")
	generateCmplFlags(cmd, waitCmplCmd.Flags)
	return cmd
}()

var waitCmplCmd = complete.Command{
	Flags: mergeFlags(apiCmplFlags),
	Args:  PredictContracts,
}

func runWait(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	var j *db.Journal
	if !noJournal {
		var err error
		if j, err = openJournal(ctx); err != nil {
			return err
		}
		defer j.Close()
	}

	txHash, err := resolveTxHash(cmd, j, args[0])
	if err != nil {
		return err
	}

	client := newClient()
	c := declare.Confirmer{Node: client, Interval: pollInterval,
		Timeout: waitTimeout}
	log.Infof("Waiting for transaction %v...", txHash)
	receipt, err := c.AwaitFinality(ctx,
		&declare.Receipt{TxHash: txHash, Status: declare.StatusPending})

	if j != nil {
		state := declare.StateConfirmed
		if err != nil {
			state = declare.StateSubmitted
			if receipt.Status == declare.StatusRejected ||
				receipt.Status == declare.StatusReverted {
				state = declare.StateFailed
			}
		}
		found, err := j.RecordReceipt(ctx, receipt, state)
		if err != nil {
			log.Errorf("Journal.RecordReceipt(): %v", err)
		} else if !found {
			log.Debugf("Transaction %v is not in the journal", txHash)
		}
	}

	fmt.Fprintf(os.Stdout, "Transaction Hash: %v\nStatus: %v", txHash,
		receipt.Status)
	if receipt.FinalityStatus != "" {
		fmt.Fprintf(os.Stdout, " (%v %v)",
			receipt.FinalityStatus, receipt.ExecutionStatus)
	}
	fmt.Fprintln(os.Stdout)
	return err
}

// resolveTxHash parses arg as a transaction hash, or looks up the latest
// declaration of the contract arg in j.
func resolveTxHash(cmd *cobra.Command, j *db.Journal,
	arg string) (*felt.Felt, error) {
	if strings.HasPrefix(arg, "0x") {
		return starknet.ParseFelt(arg)
	}
	if j == nil {
		return nil, fmt.Errorf("a TXHASH is required with --no-journal")
	}
	row, err := j.Latest(cmd.Context(), arg)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("no declaration of %v in the journal", arg)
	}
	if row.TxHash == nil {
		return nil, fmt.Errorf(
			"the latest declaration of %v was never submitted", arg)
	}
	return row.TxHash, nil
}
