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
	"errors"
	"fmt"

	"github.com/kuracoin/sndeclare/internal/artifact"
	"github.com/kuracoin/sndeclare/starknet"
)

var (
	ErrArtifactNotFound    = artifact.ErrNotFound
	ErrArtifactMalformed   = artifact.ErrMalformed
	ErrUnsupportedVersion  = errors.New("unsupported declare version")
	ErrFeePolicy           = errors.New("invalid fee policy")
	ErrSigningFailure      = errors.New("signing failed")
	ErrSubmissionRejected  = errors.New("submission rejected")
	ErrConfirmationTimeout = errors.New("confirmation timed out")
	ErrNetworkUnavailable  = errors.New("network unavailable")
	ErrTransactionReverted = errors.New("transaction reverted")
	ErrAlreadyDeclared     = errors.New("class already declared")
	ErrChainMismatch       = errors.New("chain id mismatch")
)

// nodeError classifies an error returned by a Node call made while building
// or submitting a transaction. The node's own errors are rejections, except
// for the class already being declared. Anything else means the node could
// not be reached. err stays in the chain so that callers can still inspect
// the jsonrpc2.Error.
func nodeError(method string, err error) error {
	if errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%v: %w", method, err)
	}
	code, ok := starknet.ErrorCode(err)
	switch {
	case !ok:
		return fmt.Errorf("%w: %v: %w", ErrNetworkUnavailable, method, err)
	case code == starknet.ErrCodeClassAlreadyDeclared:
		return fmt.Errorf("%w: %v: %w", ErrAlreadyDeclared, method, err)
	}
	return fmt.Errorf("%w: %v: %w", ErrSubmissionRejected, method, err)
}

func checkVersion(v starknet.TransactionVersion) error {
	if !v.IsValid() {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	return nil
}
