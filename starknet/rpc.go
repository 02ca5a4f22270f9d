package starknet

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	jrpc "github.com/AdamSLevy/jsonrpc2/v14"
	"github.com/NethermindEth/juno/core/felt"
)

// Node error codes.
const (
	ErrCodeClassHashNotFound          jrpc.ErrorCode = 28
	ErrCodeTxnHashNotFound            jrpc.ErrorCode = 29
	ErrCodeContractNotFound           jrpc.ErrorCode = 20
	ErrCodeContractError              jrpc.ErrorCode = 40
	ErrCodeTransactionExecution       jrpc.ErrorCode = 41
	ErrCodeClassAlreadyDeclared       jrpc.ErrorCode = 51
	ErrCodeInvalidTransactionNonce    jrpc.ErrorCode = 52
	ErrCodeInsufficientMaxFee         jrpc.ErrorCode = 53
	ErrCodeInsufficientAccountBalance jrpc.ErrorCode = 54
	ErrCodeValidationFailure          jrpc.ErrorCode = 55
	ErrCodeCompilationFailed          jrpc.ErrorCode = 56
	ErrCodeContractClassSizeTooLarge  jrpc.ErrorCode = 57
	ErrCodeNonAccount                 jrpc.ErrorCode = 58
	ErrCodeDuplicateTx                jrpc.ErrorCode = 59
	ErrCodeCompiledClassHashMismatch  jrpc.ErrorCode = 60
	ErrCodeUnsupportedTxVersion       jrpc.ErrorCode = 61
	ErrCodeUnsupportedContractClass   jrpc.ErrorCode = 62
	ErrCodeUnexpected                 jrpc.ErrorCode = 63
)

// ErrorCode returns the code of err if it is an error returned by the node.
func ErrorCode(err error) (jrpc.ErrorCode, bool) {
	rpcErr, ok := err.(jrpc.Error)
	if !ok {
		return 0, false
	}
	return rpcErr.Code, true
}

// IsRejection reports whether err is a node error that rejects a submitted
// transaction. Resubmitting the same transaction will fail the same way.
func IsRejection(err error) bool {
	code, ok := ErrorCode(err)
	if !ok {
		return false
	}
	switch code {
	case ErrCodeContractNotFound,
		ErrCodeContractError,
		ErrCodeTransactionExecution,
		ErrCodeInvalidTransactionNonce,
		ErrCodeInsufficientMaxFee,
		ErrCodeInsufficientAccountBalance,
		ErrCodeValidationFailure,
		ErrCodeCompilationFailed,
		ErrCodeContractClassSizeTooLarge,
		ErrCodeNonAccount,
		ErrCodeDuplicateTx,
		ErrCodeCompiledClassHashMismatch,
		ErrCodeUnsupportedTxVersion,
		ErrCodeUnsupportedContractClass,
		ErrCodeUnexpected:
		return true
	}
	return false
}

// Block tags.
const (
	BlockLatest  = "latest"
	BlockPending = "pending"
)

// ChainID queries the chain the node is serving.
func (c *Client) ChainID(ctx context.Context) (ChainID, error) {
	var id Hex
	if err := c.Request(ctx, "starknet_chainId", nil, &id); err != nil {
		return ChainID{}, err
	}
	if id.F == nil {
		return ChainID{}, fmt.Errorf("empty chain id")
	}
	return ChainID{id: id.F}, nil
}

// SpecVersion returns the version of the JSON-RPC specification the node
// implements.
func (c *Client) SpecVersion(ctx context.Context) (string, error) {
	var v string
	if err := c.Request(ctx, "starknet_specVersion", nil, &v); err != nil {
		return "", err
	}
	return v, nil
}

// ClassByHash returns the raw class declared under classHash as of the
// latest block. A class that is not declared results in a jsonrpc2.Error
// with ErrCodeClassHashNotFound.
func (c *Client) ClassByHash(ctx context.Context,
	classHash *felt.Felt) (json.RawMessage, error) {
	params := struct {
		BlockID   string `json:"block_id"`
		ClassHash Hex    `json:"class_hash"`
	}{BlockLatest, Hex{F: classHash}}
	var class json.RawMessage
	if err := c.Request(ctx, "starknet_getClassByHash",
		params, &class); err != nil {
		return nil, err
	}
	return class, nil
}

// Nonce returns the next nonce of the account at address, counting
// transactions in the pending block.
func (c *Client) Nonce(ctx context.Context,
	address *felt.Felt) (*felt.Felt, error) {
	params := struct {
		BlockID         string `json:"block_id"`
		ContractAddress Hex    `json:"contract_address"`
	}{BlockPending, Hex{F: address}}
	var nonce Hex
	if err := c.Request(ctx, "starknet_getNonce", params, &nonce); err != nil {
		return nil, err
	}
	if nonce.F == nil {
		return nil, fmt.Errorf("empty nonce")
	}
	return nonce.F, nil
}

// FeeEstimate is the node's estimate of the cost of a transaction.
type FeeEstimate struct {
	GasConsumed     Hex    `json:"gas_consumed"`
	GasPrice        Hex    `json:"gas_price"`
	DataGasConsumed Hex    `json:"data_gas_consumed"`
	DataGasPrice    Hex    `json:"data_gas_price"`
	OverallFee      Hex    `json:"overall_fee"`
	Unit            string `json:"unit"`
}

// Overall returns the overall fee as an integer.
func (e FeeEstimate) Overall() *big.Int { return bigOrZero(e.OverallFee) }

// Price returns the L1 gas price as an integer.
func (e FeeEstimate) Price() *big.Int { return bigOrZero(e.GasPrice) }

func bigOrZero(h Hex) *big.Int {
	if h.F == nil {
		return new(big.Int)
	}
	return BigInt(h.F)
}

// EstimateFee asks the node to estimate the fee of tx against the pending
// block. tx should be a query transaction.
func (c *Client) EstimateFee(ctx context.Context,
	tx *SignedDeclareTxn) (FeeEstimate, error) {
	params := struct {
		Request         []*SignedDeclareTxn `json:"request"`
		SimulationFlags []string            `json:"simulation_flags"`
		BlockID         string              `json:"block_id"`
	}{[]*SignedDeclareTxn{tx}, []string{}, BlockPending}
	var estimates []FeeEstimate
	if err := c.Request(ctx, "starknet_estimateFee",
		params, &estimates); err != nil {
		return FeeEstimate{}, err
	}
	if len(estimates) != 1 {
		return FeeEstimate{}, fmt.Errorf(
			"expected 1 fee estimate, got %v", len(estimates))
	}
	return estimates[0], nil
}

// AddDeclareTransaction submits tx to the node and returns the transaction
// hash and class hash that the node assigned to it.
func (c *Client) AddDeclareTransaction(ctx context.Context,
	tx *SignedDeclareTxn) (txHash, classHash *felt.Felt, _ error) {
	if tx.IsQuery() {
		return nil, nil, fmt.Errorf("cannot submit a query transaction")
	}
	params := struct {
		DeclareTransaction *SignedDeclareTxn `json:"declare_transaction"`
	}{tx}
	var res struct {
		TransactionHash Hex `json:"transaction_hash"`
		ClassHash       Hex `json:"class_hash"`
	}
	if err := c.Request(ctx, "starknet_addDeclareTransaction",
		params, &res); err != nil {
		return nil, nil, err
	}
	if res.TransactionHash.F == nil {
		return nil, nil, fmt.Errorf("empty transaction hash")
	}
	return res.TransactionHash.F, res.ClassHash.F, nil
}

// FinalityStatus is how far a transaction has progressed towards finality.
type FinalityStatus string

const (
	StatusReceived     FinalityStatus = "RECEIVED"
	StatusRejected     FinalityStatus = "REJECTED"
	StatusAcceptedOnL2 FinalityStatus = "ACCEPTED_ON_L2"
	StatusAcceptedOnL1 FinalityStatus = "ACCEPTED_ON_L1"
)

// IsAccepted reports whether s is one of the accepted statuses.
func (s FinalityStatus) IsAccepted() bool {
	return s == StatusAcceptedOnL2 || s == StatusAcceptedOnL1
}

// ExecutionStatus is the outcome of executing an included transaction.
type ExecutionStatus string

const (
	ExecutionSucceeded ExecutionStatus = "SUCCEEDED"
	ExecutionReverted  ExecutionStatus = "REVERTED"
)

// TxStatus is the status of a submitted transaction.
type TxStatus struct {
	FinalityStatus  FinalityStatus  `json:"finality_status"`
	ExecutionStatus ExecutionStatus `json:"execution_status,omitempty"`
}

// TransactionStatus queries the status of the transaction txHash. An unknown
// transaction results in a jsonrpc2.Error with ErrCodeTxnHashNotFound.
func (c *Client) TransactionStatus(ctx context.Context,
	txHash *felt.Felt) (TxStatus, error) {
	params := struct {
		TransactionHash Hex `json:"transaction_hash"`
	}{Hex{F: txHash}}
	var status TxStatus
	if err := c.Request(ctx, "starknet_getTransactionStatus",
		params, &status); err != nil {
		return TxStatus{}, err
	}
	return status, nil
}
