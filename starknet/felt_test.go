package starknet_test

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/kuracoin/sndeclare/starknet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var parseFeltTests = []struct {
	Name  string
	In    string
	Hex   string
	Error string
}{{
	Name: "hex",
	In:   "0xABC",
	Hex:  "0xabc",
}, {
	Name: "decimal",
	In:   "2748",
	Hex:  "0xabc",
}, {
	Name: "prime minus one",
	In:   "0x800000000000011000000000000000000000000000000000000000000000000",
	Hex:  "0x800000000000011000000000000000000000000000000000000000000000000",
}, {
	Name:  "prime",
	In:    "0x800000000000011000000000000000000000000000000000000000000000001",
	Error: "felt out of range",
}, {
	Name:  "empty hex",
	In:    "0x",
	Error: `invalid felt "0x"`,
}, {
	Name:  "garbage",
	In:    "0xzz",
	Error: `invalid felt "0xzz"`,
}, {
	Name:  "negative",
	In:    "-1",
	Error: "felt out of range",
}}

func TestParseFelt(t *testing.T) {
	for _, test := range parseFeltTests {
		test := test
		t.Run(test.Name, func(t *testing.T) {
			assert := assert.New(t)
			f, err := starknet.ParseFelt(test.In)
			if test.Error != "" {
				assert.Error(err)
				assert.Contains(err.Error(), test.Error)
				return
			}
			require.NoError(t, err)
			assert.Equal(test.Hex, f.String())
		})
	}
}

func TestShortString(t *testing.T) {
	assert := assert.New(t)
	f, err := starknet.ShortString("SN_MAIN")
	require.NoError(t, err)
	assert.Equal("0x534e5f4d41494e", f.String())

	_, err = starknet.ShortString("this string is longer than 31 bytes")
	assert.EqualError(err,
		`short string "this string is longer than 31 bytes": too long`)

	_, err = starknet.ShortString("héllo")
	assert.EqualError(err, `short string "héllo": non-ASCII`)
}

func TestHexJSON(t *testing.T) {
	assert := assert.New(t)
	for _, in := range []string{`"0xabc"`, `"2748"`, `2748`} {
		var h starknet.Hex
		require.NoError(t, json.Unmarshal([]byte(in), &h), in)
		assert.Equal("0xabc", h.String(), in)
	}

	var h starknet.Hex
	require.NoError(t, json.Unmarshal([]byte(`null`), &h))
	assert.Nil(h.F)

	assert.Error(json.Unmarshal([]byte(`"0xzz"`), &h))
	assert.Error(json.Unmarshal([]byte(`{}`), &h))

	data, err := json.Marshal(starknet.NewHex(starknet.FeltUint64(255)))
	require.NoError(t, err)
	assert.Equal(`"0xff"`, string(data))

	data, err = json.Marshal(starknet.Hex{})
	require.NoError(t, err)
	assert.Equal(`"0x0"`, string(data))
}

func TestFeltFromBig(t *testing.T) {
	assert := assert.New(t)
	f, err := starknet.FeltFromBig(big.NewInt(17))
	require.NoError(t, err)
	assert.Equal(big.NewInt(17), starknet.BigInt(f))

	_, err = starknet.FeltFromBig(starknet.Prime)
	assert.Error(err)
}
