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
	"io"
	"os"
	"time"

	"github.com/posener/complete"
	"github.com/spf13/cobra"

	"github.com/kuracoin/sndeclare/internal/db/declaration"
)

var statusCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		DisableFlagsInUseLine: true,
		Use: `
status [flags] [NAME]`[1:],
		Aliases: []string{"journal", "list"},
		Short:   "List recorded declarations",
		Long: `
List every declaration recorded in the journal, oldest first, or only the
declarations of the contract NAME.
`[1:],
		Args: cobra.MaximumNArgs(1),
		RunE: runStatus,
	}
	rootCmd.AddCommand(cmd)
	rootCmplCmd.Sub["status"] = statusCmplCmd
	rootCmplCmd.Sub["help"].Sub["status"] = complete.Command{}

	generateCmplFlags(cmd, statusCmplCmd.Flags)
	return cmd
}()

var statusCmplCmd = complete.Command{
	Flags: mergeFlags(apiCmplFlags),
	Args:  PredictContracts,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	var name string
	if len(args) > 0 {
		name = args[0]
	}
	j, err := openJournal(ctx)
	if err != nil {
		return err
	}
	defer j.Close()

	rows, err := j.Declarations(ctx, name)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("No declarations recorded.")
		return nil
	}
	for _, row := range rows {
		printRow(os.Stdout, row)
	}
	return nil
}

func printRow(w io.Writer, row declaration.Row) {
	fmt.Fprintf(w, `Contract: %v
Chain: %v
Version: %v
Sender: %v
Started: %v
State: %v
`,
		row.Name, row.Chain, row.Version, row.Sender,
		row.Started.Format(time.RFC3339), row.State)
	if row.ClassHash != nil {
		fmt.Fprintf(w, "Class Hash: %v\n", row.ClassHash)
	}
	if row.CompiledClassHash != nil {
		fmt.Fprintf(w, "Compiled Class Hash: %v\n", row.CompiledClassHash)
	}
	if row.TxHash != nil {
		fmt.Fprintf(w, "Transaction Hash: %v\n", row.TxHash)
	}
	if row.FinalityStatus != "" {
		fmt.Fprintf(w, "Status: %v %v\n",
			row.FinalityStatus, row.ExecutionStatus)
	}
	if row.Error != "" {
		fmt.Fprintf(w, "Error: %v\n", row.Error)
	}
	fmt.Fprintln(w)
}
