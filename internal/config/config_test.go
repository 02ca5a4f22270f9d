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

package config_test

import (
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuracoin/sndeclare/internal/config"
	"github.com/kuracoin/sndeclare/internal/declare"
	"github.com/kuracoin/sndeclare/starknet"
)

const testConfig = `
ADDRESS = "0x123"
PRIV_KEY = "0x1234567890abcdef"
NODE_URL = "http://localhost:9545"
CHAIN = "mainnet"
VERSION = 2
MAX_FEE = "100000000000000000"
`

func writeFile(t *testing.T, name, data string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))
	return path
}

func TestConfigFile(t *testing.T) {
	require := require.New(t)
	v, err := config.New(writeFile(t, "config.toml", testConfig))
	require.NoError(err)

	c, err := config.Parse(v)
	require.NoError(err)

	assert := assert.New(t)
	assert.Equal("http://localhost:9545", c.NodeURL)
	assert.True(c.Chain.IsMainnet())
	assert.Equal(starknet.V2, c.Version)
	assert.Equal(big.NewInt(100000000000000000), c.MaxFee)
	assert.False(c.AutoEstimate)
	assert.Equal("contracts", c.ContractsDir)

	sender, err := c.Sender()
	require.NoError(err)
	assert.True(sender.Address.Equal(starknet.FeltUint64(0x123)))
	assert.NotNil(sender.Signer)

	cfg := c.Declaration("counter")
	assert.Equal("counter", cfg.Name)
	assert.Equal(starknet.V2, cfg.Version)
	assert.NoError(cfg.Fee.Validate(cfg.Version))
}

func TestEnvOverridesFile(t *testing.T) {
	require := require.New(t)
	t.Setenv("SNDECLARE_VERSION", "v3")
	t.Setenv("SNDECLARE_AUTO_ESTIMATE", "true")
	t.Setenv("SNDECLARE_CHAIN", "sepolia")

	v, err := config.New(writeFile(t, "config.toml", testConfig))
	require.NoError(err)
	c, err := config.Parse(v)
	require.NoError(err)

	assert := assert.New(t)
	assert.Equal(starknet.V3, c.Version)
	assert.True(c.Chain.Equal(starknet.Sepolia()))
	assert.True(c.AutoEstimate)

	// MAX_FEE is still set by the file.
	err = c.FeePolicy().Validate(c.Version)
	assert.True(errors.Is(err, declare.ErrFeePolicy), err)
}

func TestEnvFile(t *testing.T) {
	require := require.New(t)
	// godotenv never overrides the environment, so start from a clean
	// variable that t.Setenv restores afterwards.
	t.Setenv("SNDECLARE_NODE_URL", "")
	require.NoError(os.Unsetenv("SNDECLARE_NODE_URL"))

	env := writeFile(t, ".env", "SNDECLARE_NODE_URL=http://node.example:6060\n")
	v, err := config.New(writeFile(t, "config.toml", testConfig), env)
	require.NoError(err)
	c, err := config.Parse(v)
	require.NoError(err)
	require.Equal("http://node.example:6060", c.NodeURL)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := config.New(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)

	_, err = config.New("", filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestParseErrors(t *testing.T) {
	for _, test := range []struct {
		Name   string
		Config string
		Error  string
	}{{
		Name:   "address",
		Config: `ADDRESS = "0xzz"`,
		Error:  `ADDRESS: invalid felt "0xzz"`,
	}, {
		Name:   "chain",
		Config: `CHAIN = "this chain name is far too long to be one"`,
		Error:  `CHAIN: invalid chain id "this chain name is far too long to be one"`,
	}, {
		Name:   "version",
		Config: `VERSION = "three"`,
		Error:  `VERSION: invalid version "three"`,
	}, {
		Name:   "max fee",
		Config: `MAX_FEE = "lots"`,
		Error:  `MAX_FEE: invalid amount "lots"`,
	}} {
		t.Run(test.Name, func(t *testing.T) {
			v, err := config.New(writeFile(t, "config.toml", test.Config))
			require.NoError(t, err)
			_, err = config.Parse(v)
			require.EqualError(t, err, test.Error)
		})
	}
}

func TestSenderMissing(t *testing.T) {
	require := require.New(t)
	v, err := config.New(writeFile(t, "config.toml", `ADDRESS = "0x123"`))
	require.NoError(err)
	c, err := config.Parse(v)
	require.NoError(err)

	_, err = c.Sender()
	require.True(errors.Is(err, config.ErrMissing), err)
	require.EqualError(err, "missing setting: PRIV_KEY")
}

func TestParseVersion(t *testing.T) {
	for _, test := range []struct {
		In      string
		Version starknet.TransactionVersion
		Err     bool
	}{
		{In: "1", Version: starknet.V1},
		{In: "v2", Version: starknet.V2},
		{In: " V3 ", Version: starknet.V3},
		{In: "0", Version: 0},
		{In: "3a", Err: true},
		{In: "", Err: true},
		{In: "256", Err: true},
	} {
		v, err := config.ParseVersion(test.In)
		if test.Err {
			assert.Error(t, err, test.In)
			continue
		}
		assert.NoError(t, err, test.In)
		assert.Equal(t, test.Version, v, test.In)
	}
}
