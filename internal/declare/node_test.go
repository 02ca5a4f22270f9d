package declare_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	jrpc "github.com/AdamSLevy/jsonrpc2/v14"
	"github.com/NethermindEth/juno/core/felt"
	"github.com/kuracoin/sndeclare/starknet"
)

// fakeNode is an in-memory Node. Unset funcs return canned defaults: the
// class is not declared, the nonce is 1 and submissions are accepted on the
// first status query.
type fakeNode struct {
	sync.Mutex
	Calls map[string]int

	Chain         starknet.ChainID
	OnClassByHash func() error
	OnNonce       func() (*felt.Felt, error)
	OnEstimateFee func(*starknet.SignedDeclareTxn) (starknet.FeeEstimate, error)
	OnSubmit      func(*starknet.SignedDeclareTxn) (*felt.Felt, error)
	OnStatus      func(poll int) (starknet.TxStatus, error)

	Submitted []*starknet.SignedDeclareTxn
	Estimated []*starknet.SignedDeclareTxn
}

func newFakeNode() *fakeNode {
	return &fakeNode{Calls: map[string]int{}, Chain: starknet.Sepolia()}
}

func (n *fakeNode) count(method string) int {
	n.Lock()
	defer n.Unlock()
	n.Calls[method]++
	return n.Calls[method]
}

func (n *fakeNode) calls(method string) int {
	n.Lock()
	defer n.Unlock()
	return n.Calls[method]
}

func (n *fakeNode) total() int {
	n.Lock()
	defer n.Unlock()
	var total int
	for _, c := range n.Calls {
		total += c
	}
	return total
}

var (
	errClassNotFound = jrpc.Error{Code: 28, Message: "Class hash not found"}
	errTxNotFound    = jrpc.Error{Code: 29, Message: "Transaction hash not found"}
	errAlreadyDecl   = jrpc.Error{Code: 51, Message: "Class already declared"}
	errMaxFee        = jrpc.Error{Code: 53,
		Message: "Max fee is smaller than the minimal transaction cost"}
	errUnreachable = fmt.Errorf("dial tcp 127.0.0.1:6060: connect: connection refused")
)

func accepted() starknet.TxStatus {
	return starknet.TxStatus{FinalityStatus: starknet.StatusAcceptedOnL2,
		ExecutionStatus: starknet.ExecutionSucceeded}
}

func received() starknet.TxStatus {
	return starknet.TxStatus{FinalityStatus: starknet.StatusReceived}
}

func (n *fakeNode) ChainID(ctx context.Context) (starknet.ChainID, error) {
	n.count("starknet_chainId")
	return n.Chain, nil
}

func (n *fakeNode) ClassByHash(ctx context.Context,
	classHash *felt.Felt) (json.RawMessage, error) {
	n.count("starknet_getClassByHash")
	if n.OnClassByHash != nil {
		if err := n.OnClassByHash(); err != nil {
			return nil, err
		}
		return json.RawMessage(`{}`), nil
	}
	return nil, errClassNotFound
}

func (n *fakeNode) Nonce(ctx context.Context,
	address *felt.Felt) (*felt.Felt, error) {
	n.count("starknet_getNonce")
	if n.OnNonce != nil {
		return n.OnNonce()
	}
	return starknet.FeltUint64(1), nil
}

func (n *fakeNode) EstimateFee(ctx context.Context,
	tx *starknet.SignedDeclareTxn) (starknet.FeeEstimate, error) {
	n.count("starknet_estimateFee")
	n.Lock()
	n.Estimated = append(n.Estimated, tx)
	n.Unlock()
	if n.OnEstimateFee != nil {
		return n.OnEstimateFee(tx)
	}
	return starknet.FeeEstimate{
		OverallFee: starknet.NewHex(starknet.FeltUint64(1000)),
		GasPrice:   starknet.NewHex(starknet.FeltUint64(10)),
	}, nil
}

func (n *fakeNode) AddDeclareTransaction(ctx context.Context,
	tx *starknet.SignedDeclareTxn) (*felt.Felt, *felt.Felt, error) {
	n.count("starknet_addDeclareTransaction")
	n.Lock()
	n.Submitted = append(n.Submitted, tx)
	n.Unlock()
	txHash := starknet.FeltUint64(0xabc)
	if n.OnSubmit != nil {
		var err error
		if txHash, err = n.OnSubmit(tx); err != nil {
			return nil, nil, err
		}
	}
	t := tx.Txn()
	return txHash, t.ClassHash, nil
}

func (n *fakeNode) TransactionStatus(ctx context.Context,
	txHash *felt.Felt) (starknet.TxStatus, error) {
	poll := n.count("starknet_getTransactionStatus")
	if n.OnStatus != nil {
		return n.OnStatus(poll)
	}
	return accepted(), nil
}

// countingSigner signs with a fixed key and counts signatures.
type countingSigner struct {
	sync.Mutex
	Key   *starknet.PrivateKey
	Count int
	Err   error
}

func newSigner() *countingSigner {
	key, err := starknet.NewPrivateKey("0x1234567890abcdef")
	if err != nil {
		panic(err)
	}
	return &countingSigner{Key: key}
}

func (s *countingSigner) SignHash(ctx context.Context,
	hash *felt.Felt) ([]*felt.Felt, error) {
	s.Lock()
	s.Count++
	s.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Key.SignHash(ctx, hash)
}

func (s *countingSigner) count() int {
	s.Lock()
	defer s.Unlock()
	return s.Count
}
