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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	flag "github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuracoin/sndeclare/internal/artifact"
	"github.com/kuracoin/sndeclare/internal/config"
	"github.com/kuracoin/sndeclare/internal/declare"
	"github.com/kuracoin/sndeclare/starknet"
)

var testLoader = artifact.Loader{Dir: "../../internal/artifact/testdata"}

func TestDeclareArgs(t *testing.T) {
	assert := assert.New(t)
	assert.NoError(declareArgs(nil, []string{"counter", "naming"}))
	assert.EqualError(declareArgs(nil, []string{"counter", "counter"}),
		"duplicate: counter")
	assert.Error(declareArgs(nil, nil))
}

func TestContractNames(t *testing.T) {
	dir := t.TempDir()
	for _, fname := range []string{
		"counter.contract_class.json",
		"counter.compiled_contract_class.json",
		"naming.json",
		"erc20.contract_class.json",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, fname), nil, 0600))
	}

	names := contractNames(dir, nil)
	sort.Strings(names)
	assert.Equal(t, []string{"counter", "erc20", "naming"}, names)

	names = contractNames(dir, []string{"declare", "counter"})
	sort.Strings(names)
	assert.Equal(t, []string{"erc20", "naming"}, names)

	assert.Empty(t, contractNames(filepath.Join(dir, "missing"), nil))
}

func TestBindFlags(t *testing.T) {
	require := require.New(t)
	cfg := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(os.WriteFile(cfg, []byte(`
NODE_URL = "http://localhost:9545"
CHAIN = "mainnet"
VERSION = 3
`), 0600))
	v, err := config.New(cfg)
	require.NoError(err)

	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.String("node", "", "")
	flags.String("chain", "", "")
	flags.StringP("tx-version", "V", "", "")
	require.NoError(flags.Parse([]string{"--node", "http://node:6060", "-V", "2"}))
	require.NoError(bindFlags(v, flags))

	c, err := config.Parse(v)
	require.NoError(err)
	assert := assert.New(t)
	assert.Equal("http://node:6060", c.NodeURL)
	assert.Equal(starknet.V2, c.Version)
	assert.True(c.Chain.IsMainnet(), "unset flags do not override the file")
}

func TestPrintCurl(t *testing.T) {
	require := require.New(t)
	a, err := testLoader.Load("counter", starknet.V2)
	require.NoError(err)
	h, err := a.Hash()
	require.NoError(err)
	key, err := starknet.NewPrivateKey("0x1234567890abcdef")
	require.NoError(err)
	maxFee, err := starknet.FeltFromBig(big.NewInt(1e17))
	require.NoError(err)

	tx := starknet.DeclareTxn{
		Version:           starknet.V2,
		SenderAddress:     starknet.FeltUint64(0x123),
		Nonce:             starknet.FeltUint64(1),
		ChainID:           starknet.Sepolia(),
		ClassHash:         h.ClassHash,
		CompiledClassHash: h.CompiledClassHash,
		MaxFee:            maxFee,
		Sierra:            a.Sierra,
	}
	signed, err := tx.Sign(context.Background(), key)
	require.NoError(err)

	var buf bytes.Buffer
	require.NoError(printCurl(&buf, "http://localhost:6060", signed))
	out := buf.String()

	const prefix = "curl -X POST --data-binary '"
	const suffix = "' -H 'content-type:application/json;' http://localhost:6060\n"
	require.True(strings.HasPrefix(out, prefix), out)
	require.True(strings.HasSuffix(out, suffix), out)

	var req struct {
		JSONRPC string `json:"jsonrpc"`
		Method  string `json:"method"`
		Params  struct {
			DeclareTransaction struct {
				Type              string `json:"type"`
				Version           string `json:"version"`
				CompiledClassHash string `json:"compiled_class_hash"`
			} `json:"declare_transaction"`
		} `json:"params"`
	}
	body := strings.TrimSuffix(strings.TrimPrefix(out, prefix), suffix)
	require.NoError(json.Unmarshal([]byte(body), &req))
	assert := assert.New(t)
	assert.Equal("2.0", req.JSONRPC)
	assert.Equal("starknet_addDeclareTransaction", req.Method)
	assert.Equal("DECLARE", req.Params.DeclareTransaction.Type)
	assert.Equal("0x2", req.Params.DeclareTransaction.Version)
	assert.Equal(h.CompiledClassHash.String(),
		req.Params.DeclareTransaction.CompiledClassHash)
}

func TestPrintHashes(t *testing.T) {
	conf = &config.Config{Version: starknet.V2}
	defer func() { conf = nil }()

	var buf bytes.Buffer
	require.NoError(t, printHashes(&buf, testLoader, "counter"))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Contract: counter\nClass Hash: 0x"), out)
	assert.Contains(t, out, "Compiled Class Hash: 0x")

	buf.Reset()
	err := printHashes(&buf, testLoader, "missing")
	assert.True(t, errors.Is(err, artifact.ErrNotFound), err)
	assert.Empty(t, buf.String())
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, &declare.Result{
		Name:      "counter",
		State:     declare.StateFailed,
		ClassHash: starknet.FeltUint64(0xc1a55),
		Err:       declare.ErrNetworkUnavailable,
	})
	assert.Equal(t, `Contract: counter
State: failed
Class Hash: 0xc1a55
Error: network unavailable

`, buf.String())
}
