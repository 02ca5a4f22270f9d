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
	"sync"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/kuracoin/sndeclare/starknet"
	"github.com/subchen/go-trylock/v2"
)

// Sender is the account that pays for and signs declarations.
type Sender struct {
	Address *felt.Felt
	Signer  starknet.Signer
}

// senderLocks serializes the use of each sender's nonce. A sender is locked
// from the moment its nonce is read until its transaction is terminal, so
// concurrent declarations from the same account never sign with the same
// nonce.
//
// The zero value is ready to use.
type senderLocks struct {
	sync.Mutex
	locks map[string]trylock.TryLocker

	// intercepted counts the transactions of each sender that were signed
	// but handed to Pipeline.Intercept instead of the node. The account
	// nonce does not move for them, so later ones are signed past them.
	intercepted map[string]uint64
}

// lock blocks until the sender at address is free or ctx is done.
func (s *senderLocks) lock(ctx context.Context,
	address *felt.Felt) (unlock func(), err error) {
	s.Lock()
	if s.locks == nil {
		s.locks = make(map[string]trylock.TryLocker)
	}
	key := address.String()
	l, ok := s.locks[key]
	if !ok {
		l = trylock.New()
		s.locks[key] = l
	}
	s.Unlock()

	if !l.TryLock(ctx) {
		return nil, fmt.Errorf("sender %v: %w", key, ctx.Err())
	}
	return l.Unlock, nil
}

// pending returns how many transactions of the sender at address were
// intercepted.
func (s *senderLocks) pending(address *felt.Felt) uint64 {
	s.Lock()
	defer s.Unlock()
	return s.intercepted[address.String()]
}

func (s *senderLocks) intercept(address *felt.Felt) {
	s.Lock()
	defer s.Unlock()
	if s.intercepted == nil {
		s.intercepted = make(map[string]uint64)
	}
	s.intercepted[address.String()]++
}
