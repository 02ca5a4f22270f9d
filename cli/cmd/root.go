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
	"context"
	"fmt"
	"time"

	"github.com/posener/complete"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kuracoin/sndeclare/internal/config"
	"github.com/kuracoin/sndeclare/internal/db"
	_log "github.com/kuracoin/sndeclare/internal/log"
	"github.com/kuracoin/sndeclare/starknet"
)

// Execute runs the root command. The ctx is cancelled on SIGINT.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

var (
	cfgFile    string
	envFiles   []string
	rpcTimeout time.Duration
	Debug      bool

	conf *config.Config
	log  _log.Log
)

// flagKeys maps flags to the config keys they override.
var flagKeys = map[string]string{
	"node":          config.KeyNodeURL,
	"chain":         config.KeyChain,
	"address":       config.KeyAddress,
	"contracts-dir": config.KeyContractsDir,
	"db":            config.KeyDBPath,
	"tx-version":    config.KeyVersion,
	"max-fee":       config.KeyMaxFee,
	"auto-estimate": config.KeyAutoEstimate,
}

var apiFlags = func() *flag.FlagSet {
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.String("node", "", fmt.Sprintf(
		"scheme://host:port of a Starknet JSON-RPC node (default %q)",
		starknet.NodeDefault))
	flags.DurationVar(&rpcTimeout, "timeout", 15*time.Second,
		"Timeout for each RPC request (i.e. 10s, 1m)")
	flags.BoolVar(&Debug, "debug", false,
		"Log debug messages and print all RPC requests and responses")
	return flags
}()

// rootCmd represents the base command when called without any subcommands
var rootCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sndeclare",
		Short: "Declare Starknet contract classes",
		Long: `
sndeclare declares compiled Cairo contract classes on Starknet.

A declaration loads the compiler artifacts of a contract, computes its class
hash and skips the contract if the class is already declared. Otherwise it
builds, signs and submits a declare transaction from the configured account
and waits until the transaction is accepted.

Settings

Settings are read from config.toml in the working directory, or
~/.sndeclare/config.toml, or the file given by --config:

        ADDRESS = "0x..."        account that pays for declarations
        PRIV_KEY = "0x..."       the account's signing key
        NODE_URL = "http://..."  Starknet JSON-RPC endpoint
        CHAIN = "sepolia"        mainnet, sepolia, goerli or a chain id
        VERSION = 3              declare transaction version, 1, 2 or 3
        AUTO_ESTIMATE = true     pay according to the node's fee estimate
        MAX_FEE = "1000000"      or pay a fixed max fee, versions 1 and 2
        CONTRACTS_DIR = "..."    compiler output, default contracts
        DB_PATH = "..."          journal directory, default ~/.sndeclare/db

Every setting may be overridden by an environment variable with the prefix
SNDECLARE_, i.e. SNDECLARE_PRIV_KEY, which may be loaded from .env files given
by --env-file, and most by flags.
`[1:],
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initConfig,
	}
	rootCmplCmd.Sub["help"] = complete.Command{Sub: complete.Commands{}}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file")
	flags.StringSliceVar(&envFiles, "env-file", nil,
		".env files to load into the environment")
	flags.AddFlagSet(apiFlags)
	flags.String("chain", "", `"mainnet", "sepolia", "goerli" or a chain id`)
	flags.String("address", "", "Account address that sends declarations")
	flags.StringP("contracts-dir", "C", "",
		"Directory of compiled contract artifacts")
	flags.String("db", "", "Journal directory")

	generateCmplFlags(cmd, rootCmplCmd.Flags)
	return cmd
}()

var rootCmplCmd = complete.Command{
	Flags: mergeFlags(apiCmplFlags),
	Sub:   complete.Commands{},
}
var apiCmplFlags = complete.Flags{
	"--help":     complete.PredictNothing,
	"--config":   complete.PredictFiles("*.toml"),
	"--env-file": complete.PredictFiles("*.env"),
}

// initConfig reads the config file and environment, applies any flags and
// sets up logging.
func initConfig(cmd *cobra.Command, _ []string) error {
	_log.Debug = Debug
	log = _log.New("pkg", "cli")

	v, err := config.New(cfgFile, envFiles...)
	if err != nil {
		return err
	}
	if f := v.ConfigFileUsed(); f != "" {
		log.Debugf("Using config file: %v", f)
	}
	if err := bindFlags(v, cmd.Flags()); err != nil {
		return err
	}
	conf, err = config.Parse(v)
	return err
}

// bindFlags makes every flag in flagKeys that cmd has override its config key
// when it is set.
func bindFlags(v *viper.Viper, flags *flag.FlagSet) error {
	for name, key := range flagKeys {
		flg := flags.Lookup(name)
		if flg == nil {
			continue
		}
		if err := v.BindPFlag(key, flg); err != nil {
			return fmt.Errorf("viper.BindPFlag(%q): %w", key, err)
		}
	}
	return nil
}

func newClient() *starknet.Client {
	c := starknet.NewClient()
	c.NodeURL = conf.NodeURL
	c.Timeout = rpcTimeout
	c.DebugRequest = Debug
	return c
}

func openJournal(ctx context.Context) (*db.Journal, error) {
	log.Debugf("Opening journal %v...", conf.DBPath)
	return db.Open(ctx, conf.DBPath)
}
