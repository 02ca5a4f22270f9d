package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/posener/complete"
	"github.com/posener/complete/cmd/install"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"

	"github.com/kuracoin/sndeclare/internal/artifact"
	"github.com/kuracoin/sndeclare/internal/config"
)

const cmdName = "sndeclare"

// Complete runs the shell completion program if the shell invoked sndeclare
// for completion, in which case it returns true.
func Complete() bool {
	comp := complete.New(cmdName, rootCmplCmd)
	return comp.Complete()
}

var completionCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion",
		Short: "Install or uninstall shell completion",
		Long: `
Install or uninstall completion of sndeclare commands, flags and contract names
for bash, zsh and fish.
`[1:],
		Args:              cobra.NoArgs,
		PersistentPreRunE: validateCompletionFlags,
		RunE:              runCompletion,
	}
	rootCmd.AddCommand(cmd)
	rootCmplCmd.Sub["completion"] = completionCmplCmd
	rootCmplCmd.Sub["help"].Sub["completion"] = complete.Command{}

	flags := cmd.Flags()
	flags.Bool("install", false, "Install shell completion")
	flags.Bool("uninstall", false, "Uninstall shell completion")
	flags.BoolP("yes", "y", false, "Do not ask for confirmation")
	generateCmplFlags(cmd, completionCmplCmd.Flags)
	return cmd
}()

var completionCmplCmd = complete.Command{
	Flags: complete.Flags{},
}

func validateCompletionFlags(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	installing, _ := flags.GetBool("install")
	uninstalling, _ := flags.GetBool("uninstall")
	if installing == uninstalling {
		return fmt.Errorf("exactly one of --install or --uninstall is required")
	}
	return nil
}

func runCompletion(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	installing, _ := flags.GetBool("install")
	yes, _ := flags.GetBool("yes")
	action := "uninstall"
	if installing {
		action = "install"
	}
	if !yes && !confirm(fmt.Sprintf("%v completion for %v?", action, cmdName)) {
		return nil
	}
	if installing {
		return install.Install(cmdName)
	}
	return install.Uninstall(cmdName)
}

func confirm(question string) bool {
	fmt.Printf("%v [y/N] ", question)
	var answer string
	fmt.Scanln(&answer)
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

// generateCmplFlags adds completion for all cmd.Flags() not already present in
// cmplFlags.
func generateCmplFlags(cmd *cobra.Command, cmplFlags complete.Flags) {
	// Due to a bug in cobra.Command.Flags(), we must call LocalFlags()
	// first to get any parent flags merged into cmd.Flags().
	// https://github.com/spf13/cobra/issues/412
	cmd.LocalFlags()
	cmd.Flags().VisitAll(func(flg *flag.Flag) {
		names := []string{"--" + flg.Name}
		if flg.Shorthand != "" {
			names = append(names, "-"+flg.Shorthand)
		}
		for _, name := range names {
			if _, ok := cmplFlags[name]; ok {
				continue
			}
			var predict complete.Predictor = complete.PredictAnything
			if flg.Value.Type() == "bool" {
				predict = complete.PredictNothing
			}
			cmplFlags[name] = predict
		}
	})
}

// mergeFlags returns a new complete.Flags that merges all flgs.
func mergeFlags(flgs ...complete.Flags) complete.Flags {
	var size int
	for _, flg := range flgs {
		size += len(flg)
	}
	f := make(complete.Flags, size)
	for _, flg := range flgs {
		for k, v := range flg {
			f[k] = v
		}
	}
	return f
}

// PredictContracts completes the names of the contracts in the contracts
// directory. Flags are not parsed during completion, so the directory comes
// from the config file and environment only.
var PredictContracts complete.PredictFunc = func(args complete.Args) []string {
	dir := filepath.Join("target", "dev")
	if v, err := config.New(""); err == nil {
		if c, err := config.Parse(v); err == nil {
			dir = c.ContractsDir
		}
	}
	return contractNames(dir, args.Completed)
}

// contractNames returns the names of the contracts with artifacts in dir,
// excluding any already completed.
func contractNames(dir string, completed []string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	done := make(map[string]struct{}, len(completed))
	for _, arg := range completed {
		done[arg] = struct{}{}
	}
	var names []string
	seen := make(map[string]struct{})
	for _, e := range entries {
		fname := e.Name()
		var name string
		switch {
		case strings.HasSuffix(fname, artifact.CasmSuffix):
			name = strings.TrimSuffix(fname, artifact.CasmSuffix)
		case strings.HasSuffix(fname, artifact.SierraSuffix):
			name = strings.TrimSuffix(fname, artifact.SierraSuffix)
		case strings.HasSuffix(fname, artifact.LegacySuffix):
			name = strings.TrimSuffix(fname, artifact.LegacySuffix)
		default:
			continue
		}
		if _, ok := done[name]; ok {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
