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
	"encoding/json"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/kuracoin/sndeclare/starknet"
)

// Node is the subset of the node API that a declaration uses.
// *starknet.Client implements Node.
type Node interface {
	ChainID(ctx context.Context) (starknet.ChainID, error)
	ClassByHash(ctx context.Context, classHash *felt.Felt) (json.RawMessage, error)
	Nonce(ctx context.Context, address *felt.Felt) (*felt.Felt, error)
	EstimateFee(ctx context.Context,
		tx *starknet.SignedDeclareTxn) (starknet.FeeEstimate, error)
	AddDeclareTransaction(ctx context.Context,
		tx *starknet.SignedDeclareTxn) (txHash, classHash *felt.Felt, _ error)
	TransactionStatus(ctx context.Context,
		txHash *felt.Felt) (starknet.TxStatus, error)
}

var _ Node = (*starknet.Client)(nil)
