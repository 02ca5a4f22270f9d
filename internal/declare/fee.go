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
	"fmt"
	"math/big"

	"github.com/kuracoin/sndeclare/starknet"
)

// FeePolicy selects how a declaration pays its fee. Exactly one of MaxFee and
// AutoEstimate must be set.
type FeePolicy struct {
	// MaxFee is a fixed max fee in wei. It may only be used with V1 and
	// V2 declarations.
	MaxFee *big.Int
	// AutoEstimate asks the node to estimate the fee and pays up to
	// EstimateMultiplier times the estimate.
	AutoEstimate bool
}

// FixedMaxFee returns a FeePolicy which pays at most amount wei.
func FixedMaxFee(amount *big.Int) FeePolicy { return FeePolicy{MaxFee: amount} }

// AutoEstimate returns a FeePolicy which pays according to the node's fee
// estimate.
func AutoEstimate() FeePolicy { return FeePolicy{AutoEstimate: true} }

// EstimateMultiplier scales a fee estimate into the fee limits of a
// declaration. scale applies it as estimateNum/estimateDen.
const EstimateMultiplier = 1.5

var (
	estimateNum = big.NewInt(3)
	estimateDen = big.NewInt(2)
)

// Validate that p is usable for a declaration of version v.
func (p FeePolicy) Validate(v starknet.TransactionVersion) error {
	switch {
	case p.MaxFee != nil && p.AutoEstimate:
		return fmt.Errorf("%w: both a max fee and auto estimate are set",
			ErrFeePolicy)
	case p.MaxFee == nil && !p.AutoEstimate:
		return fmt.Errorf("%w: one of a max fee or auto estimate is required",
			ErrFeePolicy)
	case p.MaxFee != nil && p.MaxFee.Sign() <= 0:
		return fmt.Errorf("%w: max fee must be positive", ErrFeePolicy)
	case p.MaxFee != nil && v == starknet.V3:
		return fmt.Errorf("%w: v3 declarations pay with resource bounds, "+
			"use auto estimate", ErrFeePolicy)
	}
	if p.MaxFee != nil {
		if _, err := starknet.FeltFromBig(p.MaxFee); err != nil {
			return fmt.Errorf("%w: max fee: %v", ErrFeePolicy, err)
		}
	}
	return nil
}

func (p FeePolicy) String() string {
	if p.AutoEstimate {
		return "auto estimate"
	}
	if p.MaxFee != nil {
		return fmt.Sprintf("max fee %v", p.MaxFee)
	}
	return "none"
}

func scale(n *big.Int) *big.Int {
	n = new(big.Int).Mul(n, estimateNum)
	return n.Quo(n, estimateDen)
}

// applyEstimate sets the fee fields of tx from est.
func applyEstimate(tx *starknet.DeclareTxn, est starknet.FeeEstimate) error {
	overall := est.Overall()
	if tx.Version != starknet.V3 {
		maxFee, err := starknet.FeltFromBig(scale(overall))
		if err != nil {
			return fmt.Errorf("scaled max fee: %w", err)
		}
		tx.MaxFee = maxFee
		return nil
	}
	price := est.Price()
	if price.Sign() <= 0 {
		return fmt.Errorf("fee estimate has no gas price")
	}
	amount := scale(new(big.Int).Quo(overall, price))
	if !amount.IsUint64() {
		return fmt.Errorf("scaled l1 gas amount out of range: %v", amount)
	}
	tx.ResourceBounds = starknet.ResourceBounds{
		L1Gas: starknet.ResourceBound{
			MaxAmount:       amount.Uint64(),
			MaxPricePerUnit: scale(price),
		},
		L2Gas: starknet.ResourceBound{MaxPricePerUnit: new(big.Int)},
	}
	return tx.ResourceBounds.L1Gas.Validate()
}
