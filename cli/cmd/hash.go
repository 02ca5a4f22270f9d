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

	"github.com/posener/complete"
	"github.com/spf13/cobra"

	"github.com/kuracoin/sndeclare/internal/artifact"
)

var hashCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		DisableFlagsInUseLine: true,
		Use: `
hash [flags] NAME...`[1:],
		Short: "Compute class hashes without a node",
		Long: `
Compute the class hash, and for Cairo 1 contracts the compiled class hash, of
each contract NAME from its artifacts in the contracts directory.
`[1:],
		Args: declareArgs,
		RunE: runHash,
	}
	rootCmd.AddCommand(cmd)
	rootCmplCmd.Sub["hash"] = hashCmplCmd
	rootCmplCmd.Sub["help"].Sub["hash"] = complete.Command{}

	cmd.Flags().StringP("tx-version", "V", "",
		"Declare transaction version the artifacts are for: 1, 2 or 3")
	generateCmplFlags(cmd, hashCmplCmd.Flags)
	return cmd
}()

var hashCmplCmd = complete.Command{
	Flags: mergeFlags(apiCmplFlags),
	Args:  PredictContracts,
}

func runHash(_ *cobra.Command, names []string) error {
	loader := artifact.Loader{Dir: conf.ContractsDir}
	for _, name := range names {
		if err := printHashes(os.Stdout, loader, name); err != nil {
			return err
		}
	}
	return nil
}

func printHashes(w io.Writer, loader artifact.Loader, name string) error {
	a, err := loader.Load(name, conf.Version)
	if err != nil {
		return err
	}
	h, err := a.Hash()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Contract: %v\nClass Hash: %v\n", name, h.ClassHash)
	if h.CompiledClassHash != nil {
		fmt.Fprintf(w, "Compiled Class Hash: %v\n", h.CompiledClassHash)
	}
	fmt.Fprintln(w)
	return nil
}
