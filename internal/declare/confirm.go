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
	"time"

	"github.com/NethermindEth/juno/core/felt"
	_log "github.com/kuracoin/sndeclare/internal/log"
	"github.com/kuracoin/sndeclare/starknet"
)

// Status is the outcome of a submitted transaction as far as it is known.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusReverted Status = "reverted"
	StatusTimeout  Status = "timeout"
)

// IsTerminal reports whether s will not change by polling again. A timeout
// is terminal for one AwaitFinality call only.
func (s Status) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusReverted
}

// Receipt tracks a submitted declaration.
type Receipt struct {
	TxHash    *felt.Felt
	ClassHash *felt.Felt

	Status          Status
	FinalityStatus  starknet.FinalityStatus
	ExecutionStatus starknet.ExecutionStatus

	// Polls is the number of status queries made by AwaitFinality.
	Polls int
}

// Defaults for Confirmer.
const (
	DefaultInterval = 5 * time.Second
	DefaultTimeout  = 5 * time.Minute
)

// Confirmer submits declarations and waits for them to become final.
type Confirmer struct {
	Node     Node
	Interval time.Duration
	Timeout  time.Duration
}

func (c Confirmer) interval() time.Duration {
	if c.Interval <= 0 {
		return DefaultInterval
	}
	return c.Interval
}

// MaxPolls returns the number of status queries AwaitFinality makes at most:
// ceil(Timeout/Interval), and at least one.
func (c Confirmer) MaxPolls() int {
	timeout, interval := c.Timeout, c.interval()
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	n := int((timeout + interval - 1) / interval)
	if n < 1 {
		n = 1
	}
	return n
}

// Submit sends tx to the node once. Rejections wrap ErrSubmissionRejected,
// or ErrAlreadyDeclared if the node already has the class.
func (c Confirmer) Submit(ctx context.Context,
	tx *starknet.SignedDeclareTxn) (*Receipt, error) {
	txHash, classHash, err := c.Node.AddDeclareTransaction(ctx, tx)
	if err != nil {
		return nil, nodeError("starknet_addDeclareTransaction", err)
	}
	return &Receipt{TxHash: txHash, ClassHash: classHash,
		Status: StatusPending}, nil
}

// AwaitFinality polls the status of the transaction in r every Interval until
// it is accepted, rejected or reverted, at most MaxPolls times. The first
// query is made immediately.
//
// The returned Receipt is never nil and carries the last known status. It is
// StatusTimeout, with an error wrapping ErrConfirmationTimeout, if the
// budget runs out or ctx is done first. A node that does not know the
// transaction yet and failed queries count against the budget but do not end
// the wait.
func (c Confirmer) AwaitFinality(ctx context.Context, r *Receipt) (*Receipt, error) {
	log := _log.New("tx", r.TxHash)
	receipt := *r
	receipt.Polls = 0

	ticker := time.NewTicker(c.interval())
	defer ticker.Stop()

	maxPolls := c.MaxPolls()
	for receipt.Polls < maxPolls {
		if receipt.Polls > 0 {
			select {
			case <-ticker.C:
			case <-ctx.Done():
			}
		}
		if err := ctx.Err(); err != nil {
			receipt.Status = StatusTimeout
			return &receipt, fmt.Errorf("%w: %w",
				ErrConfirmationTimeout, err)
		}
		receipt.Polls++
		status, err := c.Node.TransactionStatus(ctx, r.TxHash)
		if err != nil {
			if ctx.Err() != nil {
				receipt.Status = StatusTimeout
				return &receipt, fmt.Errorf("%w: %w",
					ErrConfirmationTimeout, ctx.Err())
			}
			if code, ok := starknet.ErrorCode(err); ok &&
				code == starknet.ErrCodeTxnHashNotFound {
				log.Debugf("Transaction not yet known to the node.")
			} else {
				log.Warnf("starknet_getTransactionStatus: %v", err)
			}
			continue
		}
		receipt.FinalityStatus = status.FinalityStatus
		receipt.ExecutionStatus = status.ExecutionStatus
		log.Debugf("Status: %v %v",
			status.FinalityStatus, status.ExecutionStatus)

		switch {
		case status.FinalityStatus == starknet.StatusRejected:
			receipt.Status = StatusRejected
			return &receipt, fmt.Errorf("%w: transaction %v rejected",
				ErrSubmissionRejected, r.TxHash)
		case status.ExecutionStatus == starknet.ExecutionReverted:
			receipt.Status = StatusReverted
			return &receipt, fmt.Errorf("%w: transaction %v",
				ErrTransactionReverted, r.TxHash)
		case status.FinalityStatus.IsAccepted():
			receipt.Status = StatusAccepted
			return &receipt, nil
		}
	}
	receipt.Status = StatusTimeout
	return &receipt, fmt.Errorf("%w: transaction %v not final after %v queries",
		ErrConfirmationTimeout, r.TxHash, receipt.Polls)
}
