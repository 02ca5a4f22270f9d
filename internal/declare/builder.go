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

package declare

import (
	"context"
	"fmt"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/kuracoin/sndeclare/internal/artifact"
	"github.com/kuracoin/sndeclare/starknet"
)

// Builder assembles and signs declare transactions for Sender on Chain.
type Builder struct {
	Node   Node
	Sender Sender
	Chain  starknet.ChainID

	// NonceOffset is added to the account nonce of the signed
	// transaction. Fee estimates use the account nonce.
	NonceOffset uint64
}

// BuildAndSign returns the signed declaration of the class in a, whose
// hashes are h. The version and fee policy are checked before any call to
// the node and signing is the last step, so nothing is signed that could
// still change.
//
// With AutoEstimate, a query version of the transaction is signed and sent
// to the node for a fee estimate first.
func (b Builder) BuildAndSign(ctx context.Context, a *artifact.Artifacts,
	h artifact.Hashes, fee FeePolicy) (*starknet.SignedDeclareTxn, error) {
	if err := checkVersion(a.Version); err != nil {
		return nil, err
	}
	if err := fee.Validate(a.Version); err != nil {
		return nil, err
	}

	nonce, err := b.Node.Nonce(ctx, b.Sender.Address)
	if err != nil {
		return nil, nodeError("starknet_getNonce", err)
	}

	tx := starknet.DeclareTxn{
		Version:           a.Version,
		SenderAddress:     b.Sender.Address,
		Nonce:             nonce,
		ChainID:           b.Chain,
		ClassHash:         h.ClassHash,
		CompiledClassHash: h.CompiledClassHash,
		Sierra:            a.Sierra,
		Legacy:            a.Legacy,
	}
	if fee.MaxFee != nil {
		if tx.MaxFee, err = starknet.FeltFromBig(fee.MaxFee); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFeePolicy, err)
		}
	} else {
		if err := b.estimate(ctx, &tx); err != nil {
			return nil, err
		}
	}

	if b.NonceOffset > 0 {
		tx.Nonce = new(felt.Felt).Add(nonce,
			starknet.FeltUint64(b.NonceOffset))
	}

	signed, err := tx.Sign(ctx, b.Sender.Signer)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigningFailure, err)
	}
	return signed, nil
}

func (b Builder) estimate(ctx context.Context, tx *starknet.DeclareTxn) error {
	query := *tx
	query.Query = true
	if query.Version != starknet.V3 {
		query.MaxFee = starknet.FeltUint64(0)
	}
	signed, err := query.Sign(ctx, b.Sender.Signer)
	if err != nil {
		return fmt.Errorf("%w: fee estimate query: %w", ErrSigningFailure, err)
	}
	est, err := b.Node.EstimateFee(ctx, signed)
	if err != nil {
		return nodeError("starknet_estimateFee", err)
	}
	if err := applyEstimate(tx, est); err != nil {
		return fmt.Errorf("fee estimate: %w", err)
	}
	return nil
}
