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

	"github.com/posener/complete"
	"github.com/spf13/cobra"
)

// Revision is set at build time with -ldflags "-X ...cmd.Revision=...".
var Revision = "dev"

var versionCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the sndeclare and node versions",
		Args:  cobra.NoArgs,
		Run:   runVersion,
	}
	rootCmd.AddCommand(cmd)
	rootCmplCmd.Sub["version"] = complete.Command{Flags: mergeFlags(apiCmplFlags)}
	rootCmplCmd.Sub["help"].Sub["version"] = complete.Command{}
	return cmd
}()

func runVersion(cmd *cobra.Command, _ []string) {
	fmt.Printf("sndeclare: %v\n", Revision)
	v, err := newClient().SpecVersion(cmd.Context())
	if err != nil {
		log.Debugf("starknet_specVersion: %v", err)
		fmt.Println("node:      unavailable")
		return
	}
	fmt.Printf("node API:  %v\n", v)
}
