package starknet_test

import (
	"math/big"
	"testing"

	"github.com/NethermindEth/juno/core/crypto"
	"github.com/kuracoin/sndeclare/starknet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrivateKey = "0x3c1e9550e66958296d11b60f8e8e7a7ad990d07fa65d5f7652c4a6c87d4e3cc"

var two251 = new(big.Int).Lsh(big.NewInt(1), 251)

func TestPrivateKeyPublicKey(t *testing.T) {
	key, err := starknet.NewPrivateKey("1")
	require.NoError(t, err)
	// The x coordinate of the generator.
	assert.Equal(t,
		"0x1ef15c18599971b7beced415a40f0c7deacfd9b0d1819e03d723d8bc943cfca",
		key.PublicKey().String())
}

func TestNewPrivateKeyErrors(t *testing.T) {
	assert := assert.New(t)
	_, err := starknet.NewPrivateKey("not a key")
	assert.EqualError(err, "invalid private key")
	_, err = starknet.NewPrivateKey("0")
	assert.EqualError(err, "private key out of range")
	_, err = starknet.PrivateKeyFromBig(new(big.Int).Lsh(big.NewInt(1), 252))
	assert.EqualError(err, "private key out of range")
}

func TestSignVerify(t *testing.T) {
	assert := assert.New(t)
	key, err := starknet.NewPrivateKey(testPrivateKey)
	require.NoError(t, err)

	for _, h := range []string{
		"0x1",
		"0x2d4c2a6d1b3e4f9a8c7b6a5d4e3f2a1b0c9d8e7f6a5b4c3d2e1f0a9b8c7d6e5",
		"0x7ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff",
	} {
		msg := feltHex(t, h)
		r, s, err := key.Sign(msg)
		require.NoError(t, err, h)
		assert.True(key.Verify(msg, r, s), h)
		assert.Negative(starknet.BigInt(r).Cmp(two251), h)

		// Accounts only know the x coordinate of the public key.
		pub := crypto.NewPublicKey(key.PublicKey())
		ok, err := pub.Verify(&crypto.Signature{R: *r, S: *s}, msg)
		require.NoError(t, err, h)
		assert.True(ok, h)

		// A signature does not verify another message.
		other := starknet.FeltUint64(42)
		assert.False(key.Verify(other, r, s), h)
	}

	other, err := starknet.NewPrivateKey("0x1234")
	require.NoError(t, err)
	msg := starknet.FeltUint64(7)
	r, s, err := key.Sign(msg)
	require.NoError(t, err)
	assert.False(other.Verify(msg, r, s))

	_, _, err = key.Sign(feltHex(t,
		"0x800000000000000000000000000000000000000000000000000000000000000"))
	assert.EqualError(err, "message hash out of range")
}
