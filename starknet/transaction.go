package starknet

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"
)

// TransactionVersion is the declare transaction protocol version.
type TransactionVersion uint8

const (
	// V1 declares a Cairo 0 class by its single class hash and pays
	// with a max fee in ETH.
	V1 TransactionVersion = 1
	// V2 declares a Sierra class together with its compiled class hash
	// and pays with a max fee in ETH.
	V2 TransactionVersion = 2
	// V3 declares a Sierra class together with its compiled class hash
	// and pays in STRK within per resource bounds.
	V3 TransactionVersion = 3
)

func (v TransactionVersion) IsValid() bool { return v >= V1 && v <= V3 }

// IsLegacy reports whether v declares a Cairo 0 class.
func (v TransactionVersion) IsLegacy() bool { return v == V1 }

func (v TransactionVersion) String() string { return fmt.Sprintf("v%d", v) }

// DAMode is a data availability mode.
type DAMode uint32

const (
	DAModeL1 DAMode = 0
	DAModeL2 DAMode = 1
)

func (m DAMode) MarshalJSON() ([]byte, error) {
	switch m {
	case DAModeL1:
		return []byte(`"L1"`), nil
	case DAModeL2:
		return []byte(`"L2"`), nil
	}
	return nil, fmt.Errorf("invalid data availability mode %d", m)
}

var declarePrefix = mustShortString("declare")

// DeclareTxn is an unsigned declare transaction.
type DeclareTxn struct {
	Version TransactionVersion
	// Query marks a transaction built only for fee estimation. Its hashed
	// version is offset by 2^128 so it can never be executed.
	Query bool

	SenderAddress     *felt.Felt
	Nonce             *felt.Felt
	ChainID           ChainID
	ClassHash         *felt.Felt
	CompiledClassHash *felt.Felt

	// MaxFee is used by V1 and V2.
	MaxFee *felt.Felt

	// The remaining fee fields are used by V3.
	ResourceBounds        ResourceBounds
	Tip                   uint64
	PaymasterData         []*felt.Felt
	AccountDeploymentData []*felt.Felt
	NonceDAMode           DAMode
	FeeDAMode             DAMode

	Sierra *SierraClass // V2, V3
	Legacy *LegacyClass // V1
}

// Validate the fields required by tx.Version.
func (tx *DeclareTxn) Validate() error {
	if !tx.Version.IsValid() {
		return fmt.Errorf("unsupported declare version %d", tx.Version)
	}
	if tx.SenderAddress == nil || tx.Nonce == nil || tx.ClassHash == nil {
		return fmt.Errorf("missing sender address, nonce or class hash")
	}
	if tx.ChainID.IsZero() {
		return fmt.Errorf("missing chain id")
	}
	switch tx.Version {
	case V1:
		if tx.Legacy == nil {
			return fmt.Errorf("v1: missing legacy class")
		}
	default:
		if tx.Sierra == nil || tx.CompiledClassHash == nil {
			return fmt.Errorf("%v: missing sierra class or compiled class hash",
				tx.Version)
		}
	}
	if tx.Version != V3 && tx.MaxFee == nil {
		return fmt.Errorf("%v: missing max fee", tx.Version)
	}
	return nil
}

func (tx *DeclareTxn) versionFelt() *felt.Felt {
	v := big.NewInt(int64(tx.Version))
	if tx.Query {
		v.Add(v, two128)
	}
	return new(felt.Felt).SetBigInt(v)
}

// Hash returns the transaction hash which the sender signs.
func (tx *DeclareTxn) Hash() (*felt.Felt, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	switch tx.Version {
	case V1:
		return crypto.PedersenArray(
			declarePrefix,
			tx.versionFelt(),
			tx.SenderAddress,
			new(felt.Felt),
			crypto.PedersenArray(tx.ClassHash),
			tx.MaxFee,
			tx.ChainID.Felt(),
			tx.Nonce,
		), nil
	case V2:
		return crypto.PedersenArray(
			declarePrefix,
			tx.versionFelt(),
			tx.SenderAddress,
			new(felt.Felt),
			crypto.PedersenArray(tx.ClassHash),
			tx.MaxFee,
			tx.ChainID.Felt(),
			tx.Nonce,
			tx.CompiledClassHash,
		), nil
	}
	daModes := uint64(tx.NonceDAMode)<<32 | uint64(tx.FeeDAMode)
	return crypto.PoseidonArray(
		declarePrefix,
		tx.versionFelt(),
		tx.SenderAddress,
		crypto.PoseidonArray(
			FeltUint64(tx.Tip),
			tx.ResourceBounds.L1Gas.pack(l1GasName),
			tx.ResourceBounds.L2Gas.pack(l2GasName),
		),
		crypto.PoseidonArray(tx.PaymasterData...),
		tx.ChainID.Felt(),
		tx.Nonce,
		FeltUint64(daModes),
		crypto.PoseidonArray(tx.AccountDeploymentData...),
		tx.ClassHash,
		tx.CompiledClassHash,
	), nil
}

// Signer is a capability to sign transaction hashes on behalf of an
// account.
type Signer interface {
	SignHash(ctx context.Context, hash *felt.Felt) ([]*felt.Felt, error)
}

// SignHash implements Signer.
func (k *PrivateKey) SignHash(_ context.Context, hash *felt.Felt) ([]*felt.Felt, error) {
	r, s, err := k.Sign(hash)
	if err != nil {
		return nil, err
	}
	return []*felt.Felt{r, s}, nil
}

// SignedDeclareTxn is a declare transaction with its signature attached. It
// has no mutators and copies its inputs, so what was signed is what gets
// sent.
type SignedDeclareTxn struct {
	txn       DeclareTxn
	hash      *felt.Felt
	signature []*felt.Felt
}

// Sign computes the hash of tx and signs it with signer. Sign takes a copy
// of tx, later changes to tx do not affect the result.
func (tx DeclareTxn) Sign(ctx context.Context, signer Signer) (*SignedDeclareTxn, error) {
	tx.PaymasterData = append([]*felt.Felt{}, tx.PaymasterData...)
	tx.AccountDeploymentData = append([]*felt.Felt{},
		tx.AccountDeploymentData...)
	hash, err := tx.Hash()
	if err != nil {
		return nil, err
	}
	sig, err := signer.SignHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	return &SignedDeclareTxn{txn: tx, hash: hash,
		signature: append([]*felt.Felt{}, sig...)}, nil
}

// Hash returns the transaction hash.
func (s *SignedDeclareTxn) Hash() *felt.Felt { h := *s.hash; return &h }

// Signature returns a copy of the signature.
func (s *SignedDeclareTxn) Signature() []*felt.Felt {
	return append([]*felt.Felt{}, s.signature...)
}

// Txn returns a copy of the signed transaction.
func (s *SignedDeclareTxn) Txn() DeclareTxn {
	tx := s.txn
	tx.PaymasterData = append([]*felt.Felt{}, tx.PaymasterData...)
	tx.AccountDeploymentData = append([]*felt.Felt{},
		tx.AccountDeploymentData...)
	return tx
}

// Version returns the declare protocol version.
func (s *SignedDeclareTxn) Version() TransactionVersion { return s.txn.Version }

// IsQuery reports whether s may only be used for fee estimation.
func (s *SignedDeclareTxn) IsQuery() bool { return s.txn.Query }

type rpcSierraEntryPoint struct {
	Selector    Hex    `json:"selector"`
	FunctionIdx uint64 `json:"function_idx"`
}

type rpcLegacyEntryPoint struct {
	Offset   Hex `json:"offset"`
	Selector Hex `json:"selector"`
}

// MarshalJSON encodes s as a BROADCASTED_DECLARE_TXN of the node API.
func (s *SignedDeclareTxn) MarshalJSON() ([]byte, error) {
	tx := &s.txn
	m := map[string]interface{}{
		"type":           "DECLARE",
		"version":        Hex{F: tx.versionFelt()},
		"sender_address": Hex{F: tx.SenderAddress},
		"signature":      hexes(s.signature),
		"nonce":          Hex{F: tx.Nonce},
	}
	if tx.Version != V3 {
		m["max_fee"] = Hex{F: tx.MaxFee}
	}
	if tx.Version == V1 {
		program, err := tx.Legacy.CompressedProgram()
		if err != nil {
			return nil, err
		}
		eps := func(src []LegacyEntryPoint) []rpcLegacyEntryPoint {
			dst := make([]rpcLegacyEntryPoint, len(src))
			for i, ep := range src {
				dst[i] = rpcLegacyEntryPoint{
					Offset: Hex{F: ep.Offset}, Selector: Hex{F: ep.Selector}}
			}
			return dst
		}
		m["contract_class"] = map[string]interface{}{
			"program": program,
			"entry_points_by_type": rawEntryPoints[rpcLegacyEntryPoint]{
				External:    eps(tx.Legacy.EntryPoints.External),
				L1Handler:   eps(tx.Legacy.EntryPoints.L1Handler),
				Constructor: eps(tx.Legacy.EntryPoints.Constructor),
			},
			"abi": tx.Legacy.ABI,
		}
		return json.Marshal(m)
	}

	eps := func(src []SierraEntryPoint) []rpcSierraEntryPoint {
		dst := make([]rpcSierraEntryPoint, len(src))
		for i, ep := range src {
			dst[i] = rpcSierraEntryPoint{
				Selector: Hex{F: ep.Selector}, FunctionIdx: ep.FunctionIdx}
		}
		return dst
	}
	m["compiled_class_hash"] = Hex{F: tx.CompiledClassHash}
	m["contract_class"] = map[string]interface{}{
		"sierra_program":         hexes(tx.Sierra.Program),
		"contract_class_version": tx.Sierra.ContractClassVersion,
		"entry_points_by_type": rawEntryPoints[rpcSierraEntryPoint]{
			External:    eps(tx.Sierra.EntryPoints.External),
			L1Handler:   eps(tx.Sierra.EntryPoints.L1Handler),
			Constructor: eps(tx.Sierra.EntryPoints.Constructor),
		},
		"abi": tx.Sierra.ABI,
	}
	if tx.Version == V3 {
		m["resource_bounds"] = tx.ResourceBounds
		m["tip"] = Hex{F: FeltUint64(tx.Tip)}
		m["paymaster_data"] = hexes(tx.PaymasterData)
		m["account_deployment_data"] = hexes(tx.AccountDeploymentData)
		m["nonce_data_availability_mode"] = tx.NonceDAMode
		m["fee_data_availability_mode"] = tx.FeeDAMode
	}
	return json.Marshal(m)
}
