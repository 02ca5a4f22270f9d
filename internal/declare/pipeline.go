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
	"time"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/kuracoin/sndeclare/internal/artifact"
	_log "github.com/kuracoin/sndeclare/internal/log"
	"github.com/kuracoin/sndeclare/starknet"
)

// State is a step of a declaration.
type State string

const (
	StateStart            State = "start"
	StateArtifactsLoaded  State = "artifacts_loaded"
	StateHashesComputed   State = "hashes_computed"
	StateAlreadyDeclared  State = "already_declared"
	StateTransactionBuilt State = "transaction_built"
	StateSubmitted        State = "submitted"
	StateConfirmed        State = "confirmed"
	StateFailed           State = "failed"
)

// IsFinal reports whether a declaration in state s is over.
func (s State) IsFinal() bool {
	return s == StateAlreadyDeclared || s == StateConfirmed || s == StateFailed
}

// DeclarationConfig is what to declare and how to pay for it.
type DeclarationConfig struct {
	Name    string
	Chain   starknet.ChainID
	Version starknet.TransactionVersion
	Fee     FeePolicy
}

// Result is the outcome of Pipeline.Declare.
type Result struct {
	Name    string
	Chain   starknet.ChainID
	Version starknet.TransactionVersion
	Sender  *felt.Felt
	State   State

	// Started identifies a declaration attempt together with Name and
	// Sender.
	Started time.Time

	ClassHash         *felt.Felt
	CompiledClassHash *felt.Felt
	TxHash            *felt.Felt
	Receipt           *Receipt

	// Err is set when State is StateFailed.
	Err error
}

// Journal records every state a declaration goes through.
type Journal interface {
	Record(ctx context.Context, r Result) error
}

// Pipeline declares contracts for one Sender. A Pipeline may be used by
// multiple goroutines at once; declarations from the same sender address
// take turns from reading the nonce until their transaction is final.
type Pipeline struct {
	Loader    artifact.Loader
	Node      Node
	Sender    Sender
	Confirmer Confirmer

	// Journal, if not nil, is given the Result after every transition.
	Journal Journal

	// CheckChain compares the configured chain with the node's chain id
	// before building a transaction.
	CheckChain bool

	// Intercept, if not nil, receives the signed transaction instead of
	// the node. The declaration then ends in StateTransactionBuilt. Each
	// intercepted transaction takes the nonce after the previous one of
	// the same sender.
	Intercept func(*starknet.SignedDeclareTxn) error

	locks senderLocks
}

// Declare runs a declaration of cfg.Name through
//
//	Start -> ArtifactsLoaded -> HashesComputed
//	  -> AlreadyDeclared
//	  -> TransactionBuilt -> Submitted -> Confirmed
//
// where any step may instead fail. The returned Result is never nil. err is
// not nil exactly when the Result is StateFailed.
func (p *Pipeline) Declare(ctx context.Context,
	cfg DeclarationConfig) (_ *Result, err error) {
	log := _log.New("contract", cfg.Name)
	res := &Result{Name: cfg.Name, Chain: cfg.Chain, Version: cfg.Version,
		Sender: p.Sender.Address, Started: time.Now()}
	p.transition(ctx, log, res, StateStart)
	defer func() {
		if err != nil {
			res.Err = err
			p.transition(ctx, log, res, StateFailed)
		}
	}()

	if err := checkVersion(cfg.Version); err != nil {
		return res, err
	}
	if err := cfg.Fee.Validate(cfg.Version); err != nil {
		return res, err
	}

	a, err := p.Loader.Load(cfg.Name, cfg.Version)
	if err != nil {
		return res, err
	}
	p.transition(ctx, log, res, StateArtifactsLoaded)

	hashes, err := a.Hash()
	if err != nil {
		return res, err
	}
	res.ClassHash = hashes.ClassHash
	res.CompiledClassHash = hashes.CompiledClassHash
	log.Infof("Class hash: %v", res.ClassHash)
	if res.CompiledClassHash != nil {
		log.Infof("Compiled class hash: %v", res.CompiledClassHash)
	}
	p.transition(ctx, log, res, StateHashesComputed)

	if p.CheckChain {
		chain, err := p.Node.ChainID(ctx)
		if err != nil {
			return res, nodeError("starknet_chainId", err)
		}
		if !chain.Equal(cfg.Chain) {
			return res, fmt.Errorf("%w: node is on %v, expected %v",
				ErrChainMismatch, chain, cfg.Chain)
		}
	}

	exists, err := Checker{Node: p.Node}.Exists(ctx, res.ClassHash)
	if err != nil {
		log.Warnf("Could not check if the class is declared, "+
			"declaring anyway: %v", err)
	}
	if exists {
		log.Infof("Class already declared, skipping.")
		p.transition(ctx, log, res, StateAlreadyDeclared)
		return res, nil
	}

	unlock, err := p.locks.lock(ctx, p.Sender.Address)
	if err != nil {
		return res, err
	}
	defer unlock()

	log.Infof("Using account %v as deployer", p.Sender.Address)
	builder := Builder{Node: p.Node, Sender: p.Sender, Chain: cfg.Chain,
		NonceOffset: p.locks.pending(p.Sender.Address)}
	signed, err := builder.BuildAndSign(ctx, a, hashes, cfg.Fee)
	if errors.Is(err, ErrAlreadyDeclared) {
		log.Infof("Class already declared, skipping.")
		p.transition(ctx, log, res, StateAlreadyDeclared)
		return res, nil
	}
	if err != nil {
		return res, err
	}
	res.TxHash = signed.Hash()
	p.transition(ctx, log, res, StateTransactionBuilt)

	if p.Intercept != nil {
		if err := p.Intercept(signed); err != nil {
			return res, err
		}
		p.locks.intercept(p.Sender.Address)
		return res, nil
	}

	receipt, err := p.Confirmer.Submit(ctx, signed)
	if errors.Is(err, ErrAlreadyDeclared) {
		log.Infof("Class already declared, skipping.")
		p.transition(ctx, log, res, StateAlreadyDeclared)
		return res, nil
	}
	if err != nil {
		return res, err
	}
	if !receipt.TxHash.Equal(res.TxHash) {
		log.Debugf("Node returned transaction hash %v, computed %v",
			receipt.TxHash, res.TxHash)
	}
	if receipt.ClassHash != nil && !receipt.ClassHash.Equal(res.ClassHash) {
		log.Warnf("Node returned class hash %v, computed %v",
			receipt.ClassHash, res.ClassHash)
	}
	res.TxHash = receipt.TxHash
	res.Receipt = receipt
	log.Infof("Transaction hash: %v", res.TxHash)
	p.transition(ctx, log, res, StateSubmitted)

	receipt, err = p.Confirmer.AwaitFinality(ctx, receipt)
	res.Receipt = receipt
	if err != nil {
		return res, err
	}
	p.transition(ctx, log, res, StateConfirmed)
	return res, nil
}

func (p *Pipeline) transition(ctx context.Context, log _log.Log,
	res *Result, s State) {
	res.State = s
	if s == StateFailed {
		log.Errorf("%v: %v", s, res.Err)
	} else {
		log.Debugf("State: %v", s)
	}
	if p.Journal == nil {
		return
	}
	// The journal is written even if ctx is done, so that a cancelled
	// declaration is recorded as failed.
	if err := p.Journal.Record(context.WithoutCancel(ctx), *res); err != nil {
		log.Errorf("Journal.Record(): %v", err)
	}
}
