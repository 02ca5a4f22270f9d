package starknet

import (
	"fmt"
	"math/big"

	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"
	starkcurve "github.com/consensys/gnark-crypto/ecc/stark-curve"
	"github.com/consensys/gnark-crypto/ecc/stark-curve/ecdsa"
	"github.com/consensys/gnark-crypto/ecc/stark-curve/fr"
)

var (
	curveOrder = fr.Modulus()
	two251     = new(big.Int).Lsh(big.NewInt(1), 251)
)

// PrivateKey is a Stark curve private key that signs transaction hashes.
type PrivateKey struct {
	key ecdsa.PrivateKey
	pub *felt.Felt
}

// NewPrivateKey parses a hex or decimal private key.
func NewPrivateKey(s string) (*PrivateKey, error) {
	d, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("invalid private key")
	}
	return PrivateKeyFromBig(d)
}

// PrivateKeyFromBig returns the PrivateKey d. d must be in [1, curve order).
func PrivateKeyFromBig(d *big.Int) (*PrivateKey, error) {
	if d.Sign() <= 0 || d.Cmp(curveOrder) >= 0 {
		return nil, fmt.Errorf("private key out of range")
	}
	var p starkcurve.G1Affine
	p.ScalarMultiplicationBase(d)
	pub := p.Bytes()

	// ecdsa.PrivateKey is loaded from its public key followed by the
	// big endian scalar.
	buf := append(pub[:], d.FillBytes(make([]byte, fr.Bytes))...)
	var k PrivateKey
	if _, err := k.key.SetBytes(buf); err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}
	k.pub = new(felt.Felt).SetBigInt(p.X.BigInt(new(big.Int)))
	return &k, nil
}

// PublicKey returns the x coordinate of the public key, which is how
// accounts store their signer.
func (k *PrivateKey) PublicKey() *felt.Felt {
	return new(felt.Felt).Set(k.pub)
}

// Sign msgHash and return the (r, s) signature.
func (k *PrivateKey) Sign(msgHash *felt.Felt) (r, s *felt.Felt, err error) {
	if BigInt(msgHash).Cmp(two251) >= 0 {
		return nil, nil, fmt.Errorf("message hash out of range")
	}
	msg := msgHash.Bytes()
	// Starknet additionally requires r and 1/s below 2^251. Nonces are
	// fresh on every call so a rejected signature is simply redone.
	for i := 0; i < 16; i++ {
		data, err := k.key.Sign(msg[:], nil)
		if err != nil {
			return nil, nil, err
		}
		var sig ecdsa.Signature
		if _, err := sig.SetBytes(data); err != nil {
			return nil, nil, err
		}
		rr := new(big.Int).SetBytes(sig.R[:])
		w := new(big.Int).ModInverse(new(big.Int).SetBytes(sig.S[:]), curveOrder)
		if rr.Cmp(two251) >= 0 || w == nil || w.Cmp(two251) >= 0 {
			continue
		}
		return new(felt.Felt).SetBytes(sig.R[:]),
			new(felt.Felt).SetBytes(sig.S[:]), nil
	}
	return nil, nil, fmt.Errorf("no valid signature found")
}

// Verify reports whether (r, s) is a valid signature of msgHash by k.
func (k *PrivateKey) Verify(msgHash, r, s *felt.Felt) bool {
	pub := crypto.NewPublicKey(k.pub)
	ok, err := pub.Verify(&crypto.Signature{R: *r, S: *s}, msgHash)
	return err == nil && ok
}
