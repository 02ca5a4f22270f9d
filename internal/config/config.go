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

// Package config reads the sndeclare settings from a config.toml file, .env
// files, SNDECLARE_ environment variables and command line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"math/big"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/joho/godotenv"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/kuracoin/sndeclare/internal/declare"
	"github.com/kuracoin/sndeclare/starknet"
)

// Keys of the config file. Each may also be set by the environment variable
// EnvPrefix + "_" + key.
const (
	KeyAddress      = "ADDRESS"
	KeyPrivKey      = "PRIV_KEY"
	KeyNodeURL      = "NODE_URL"
	KeyChain        = "CHAIN"
	KeyVersion      = "VERSION"
	KeyMaxFee       = "MAX_FEE"
	KeyAutoEstimate = "AUTO_ESTIMATE"
	KeyContractsDir = "CONTRACTS_DIR"
	KeyDBPath       = "DB_PATH"
)

const (
	EnvPrefix = "SNDECLARE"

	configName = "config"
	configType = "toml"
	appDir     = ".sndeclare"
)

// ErrMissing is returned by Config accessors when a required setting is not
// set.
var ErrMissing = errors.New("missing setting")

// Config holds the parsed settings.
type Config struct {
	Address      *felt.Felt
	NodeURL      string
	Chain        starknet.ChainID
	Version      starknet.TransactionVersion
	MaxFee       *big.Int
	AutoEstimate bool
	ContractsDir string
	DBPath       string

	privKey string
}

// New returns a viper.Viper with the defaults set, the envFiles loaded into
// the environment and the config file read.
//
// If cfgFile is empty, config.toml is looked for in the working directory and
// then in ~/.sndeclare. Not finding it is not an error.
func New(cfgFile string, envFiles ...string) (*viper.Viper, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, fmt.Errorf("godotenv.Load(%v): %w", envFiles, err)
		}
	}

	v := viper.New()
	v.SetConfigType(configType)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	home, err := homedir.Dir()
	if err != nil {
		return nil, fmt.Errorf("homedir.Dir(): %w", err)
	}
	appPath := filepath.Join(home, appDir)

	v.SetDefault(KeyNodeURL, starknet.NodeDefault)
	v.SetDefault(KeyChain, "sepolia")
	v.SetDefault(KeyVersion, int(starknet.V3))
	v.SetDefault(KeyAutoEstimate, false)
	v.SetDefault(KeyContractsDir, "contracts")
	v.SetDefault(KeyDBPath, filepath.Join(appPath, "db"))

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		v.AddConfigPath(appPath)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("viper.ReadInConfig(): %w", err)
		}
	}
	return v, nil
}

// Parse and validate the settings in v. The private key is only checked when
// Sender is called, so that offline commands work without one.
func Parse(v *viper.Viper) (*Config, error) {
	c := Config{
		NodeURL:      v.GetString(KeyNodeURL),
		AutoEstimate: v.GetBool(KeyAutoEstimate),
		ContractsDir: expand(v.GetString(KeyContractsDir)),
		DBPath:       expand(v.GetString(KeyDBPath)),
		privKey:      v.GetString(KeyPrivKey),
	}

	if s := v.GetString(KeyAddress); s != "" {
		adr, err := starknet.ParseFelt(s)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", KeyAddress, err)
		}
		c.Address = adr
	}

	chain, err := starknet.ParseChainID(v.GetString(KeyChain))
	if err != nil {
		return nil, fmt.Errorf("%v: %w", KeyChain, err)
	}
	c.Chain = chain

	c.Version, err = ParseVersion(v.GetString(KeyVersion))
	if err != nil {
		return nil, fmt.Errorf("%v: %w", KeyVersion, err)
	}

	if s := v.GetString(KeyMaxFee); s != "" {
		fee, ok := new(big.Int).SetString(s, 0)
		if !ok {
			return nil, fmt.Errorf("%v: invalid amount %q", KeyMaxFee, s)
		}
		c.MaxFee = fee
	}
	return &c, nil
}

// ParseVersion accepts "1", "2", "3" with an optional "v" prefix. Versions
// that are not declare versions are rejected by the declaration pipeline,
// not here.
func ParseVersion(s string) (starknet.TransactionVersion, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "v")
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q", s)
	}
	return starknet.TransactionVersion(n), nil
}

// Sender returns the account declarations are sent from.
func (c *Config) Sender() (declare.Sender, error) {
	if c.Address == nil {
		return declare.Sender{}, fmt.Errorf("%w: %v", ErrMissing, KeyAddress)
	}
	if c.privKey == "" {
		return declare.Sender{}, fmt.Errorf("%w: %v", ErrMissing, KeyPrivKey)
	}
	key, err := starknet.NewPrivateKey(c.privKey)
	if err != nil {
		return declare.Sender{}, fmt.Errorf("%v: %w", KeyPrivKey, err)
	}
	return declare.Sender{Address: c.Address, Signer: key}, nil
}

// FeePolicy returns the fee policy set by MAX_FEE and AUTO_ESTIMATE. Setting
// both, or neither, is reported when the policy is validated.
func (c *Config) FeePolicy() declare.FeePolicy {
	return declare.FeePolicy{MaxFee: c.MaxFee, AutoEstimate: c.AutoEstimate}
}

// Declaration returns the DeclarationConfig for the contract name.
func (c *Config) Declaration(name string) declare.DeclarationConfig {
	return declare.DeclarationConfig{
		Name:    name,
		Chain:   c.Chain,
		Version: c.Version,
		Fee:     c.FeePolicy(),
	}
}

func expand(path string) string {
	if p, err := homedir.Expand(path); err == nil {
		return p
	}
	return path
}
