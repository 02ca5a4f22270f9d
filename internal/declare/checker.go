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
	"github.com/kuracoin/sndeclare/starknet"
)

// Checker reports whether a class is already declared.
type Checker struct {
	Node Node
}

// Exists queries the node for classHash at the latest block. A node that
// reports the class as not found means false. Any other failure is
// inconclusive and returns an error wrapping ErrNetworkUnavailable.
func (c Checker) Exists(ctx context.Context, classHash *felt.Felt) (bool, error) {
	_, err := c.Node.ClassByHash(ctx, classHash)
	if err == nil {
		return true, nil
	}
	if code, ok := starknet.ErrorCode(err); ok &&
		code == starknet.ErrCodeClassHashNotFound {
		return false, nil
	}
	return false, fmt.Errorf("%w: starknet_getClassByHash: %w",
		ErrNetworkUnavailable, err)
}
