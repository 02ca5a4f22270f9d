package starknet_test

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"testing"

	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"
	"github.com/kuracoin/sndeclare/starknet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDeclareTxn(t *testing.T, v starknet.TransactionVersion) starknet.DeclareTxn {
	tx := starknet.DeclareTxn{
		Version:       v,
		SenderAddress: feltHex(t, "0x123"),
		Nonce:         starknet.FeltUint64(5),
		ChainID:       starknet.Sepolia(),
	}
	if v == starknet.V1 {
		class, err := starknet.ParseLegacyClass(readTestdata(t, "naming.json"))
		require.NoError(t, err)
		tx.Legacy = class
		tx.ClassHash, err = starknet.LegacyClassHash(class)
		require.NoError(t, err)
	} else {
		class, err := starknet.ParseSierraClass(
			readTestdata(t, "counter.contract_class.json"))
		require.NoError(t, err)
		casm, err := starknet.ParseCasmClass(
			readTestdata(t, "counter.compiled_contract_class.json"))
		require.NoError(t, err)
		tx.Sierra = class
		tx.ClassHash, err = starknet.SierraClassHash(class)
		require.NoError(t, err)
		tx.CompiledClassHash = starknet.CompiledClassHash(casm)
	}
	if v == starknet.V3 {
		tx.ResourceBounds.L1Gas = starknet.ResourceBound{
			MaxAmount: 1000, MaxPricePerUnit: big.NewInt(300)}
	} else {
		tx.MaxFee = starknet.FeltUint64(1e17)
	}
	return tx
}

func TestDeclareTxnHash(t *testing.T) {
	prefix, _ := starknet.ShortString("declare")
	zero := new(felt.Felt)

	t.Run("v1", func(t *testing.T) {
		tx := testDeclareTxn(t, starknet.V1)
		hash, err := tx.Hash()
		require.NoError(t, err)
		expected := crypto.PedersenArray(prefix, starknet.FeltUint64(1),
			tx.SenderAddress, zero, crypto.PedersenArray(tx.ClassHash),
			tx.MaxFee, tx.ChainID.Felt(), tx.Nonce)
		assert.Equal(t, expected.String(), hash.String())
	})
	t.Run("v2", func(t *testing.T) {
		tx := testDeclareTxn(t, starknet.V2)
		hash, err := tx.Hash()
		require.NoError(t, err)
		expected := crypto.PedersenArray(prefix, starknet.FeltUint64(2),
			tx.SenderAddress, zero, crypto.PedersenArray(tx.ClassHash),
			tx.MaxFee, tx.ChainID.Felt(), tx.Nonce, tx.CompiledClassHash)
		assert.Equal(t, expected.String(), hash.String())

		tx.Query = true
		query, err := tx.Hash()
		require.NoError(t, err)
		version := new(big.Int).Lsh(big.NewInt(1), 128)
		version.Add(version, big.NewInt(2))
		v, _ := starknet.FeltFromBig(version)
		expected = crypto.PedersenArray(prefix, v,
			tx.SenderAddress, zero, crypto.PedersenArray(tx.ClassHash),
			tx.MaxFee, tx.ChainID.Felt(), tx.Nonce, tx.CompiledClassHash)
		assert.Equal(t, expected.String(), query.String())
	})
	t.Run("v3", func(t *testing.T) {
		tx := testDeclareTxn(t, starknet.V3)
		hash, err := tx.Hash()
		require.NoError(t, err)

		l1Gas := feltHex(t, "0x4c315f474153"+ // L1_GAS
			"00000000000003e8"+ // max amount
			"0000000000000000000000000000012c") // max price
		l2Gas := feltHex(t, "0x4c325f474153"+
			"000000000000000000000000000000000000000000000000")
		expected := crypto.PoseidonArray(prefix, starknet.FeltUint64(3),
			tx.SenderAddress,
			crypto.PoseidonArray(zero, l1Gas, l2Gas),
			crypto.PoseidonArray(),
			tx.ChainID.Felt(), tx.Nonce, zero,
			crypto.PoseidonArray(),
			tx.ClassHash, tx.CompiledClassHash)
		assert.Equal(t, expected.String(), hash.String())
	})
}

func TestDeclareTxnValidate(t *testing.T) {
	for _, test := range []struct {
		Name  string
		Edit  func(*starknet.DeclareTxn)
		V     starknet.TransactionVersion
		Error string
	}{{
		Name:  "unsupported version",
		V:     starknet.V2,
		Edit:  func(tx *starknet.DeclareTxn) { tx.Version = 4 },
		Error: "unsupported declare version 4",
	}, {
		Name:  "no nonce",
		V:     starknet.V2,
		Edit:  func(tx *starknet.DeclareTxn) { tx.Nonce = nil },
		Error: "missing sender address, nonce or class hash",
	}, {
		Name:  "no chain",
		V:     starknet.V3,
		Edit:  func(tx *starknet.DeclareTxn) { tx.ChainID = starknet.ChainID{} },
		Error: "missing chain id",
	}, {
		Name:  "v1 without legacy class",
		V:     starknet.V1,
		Edit:  func(tx *starknet.DeclareTxn) { tx.Legacy = nil },
		Error: "v1: missing legacy class",
	}, {
		Name:  "v2 without compiled class hash",
		V:     starknet.V2,
		Edit:  func(tx *starknet.DeclareTxn) { tx.CompiledClassHash = nil },
		Error: "v2: missing sierra class or compiled class hash",
	}, {
		Name:  "v2 without max fee",
		V:     starknet.V2,
		Edit:  func(tx *starknet.DeclareTxn) { tx.MaxFee = nil },
		Error: "v2: missing max fee",
	}} {
		test := test
		t.Run(test.Name, func(t *testing.T) {
			tx := testDeclareTxn(t, test.V)
			test.Edit(&tx)
			_, err := tx.Hash()
			assert.EqualError(t, err, test.Error)
		})
	}
}

type recordingSigner struct {
	Hashes []*felt.Felt
	Err    error
}

func (s *recordingSigner) SignHash(_ context.Context,
	hash *felt.Felt) ([]*felt.Felt, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.Hashes = append(s.Hashes, hash)
	return []*felt.Felt{starknet.FeltUint64(1), starknet.FeltUint64(2)}, nil
}

func TestDeclareTxnSign(t *testing.T) {
	assert := assert.New(t)
	tx := testDeclareTxn(t, starknet.V3)
	tx.PaymasterData = []*felt.Felt{starknet.FeltUint64(9)}
	signer := &recordingSigner{}
	signed, err := tx.Sign(context.Background(), signer)
	require.NoError(t, err)
	hash, _ := tx.Hash()
	assert.Equal(hash.String(), signed.Hash().String())
	require.Len(t, signer.Hashes, 1)
	assert.Equal(hash.String(), signer.Hashes[0].String())

	// Later changes to tx or to returned values are not seen by signed.
	tx.Nonce = starknet.FeltUint64(6)
	tx.PaymasterData[0] = starknet.FeltUint64(10)
	signed.Signature()[0] = starknet.FeltUint64(3)
	copied := signed.Txn()
	copied.PaymasterData = nil
	assert.Equal("0x5", signed.Txn().Nonce.String())
	assert.Equal("0x9", signed.Txn().PaymasterData[0].String())
	assert.Equal("0x1", signed.Signature()[0].String())

	signer.Err = fmt.Errorf("hsm offline")
	_, err = tx.Sign(context.Background(), signer)
	assert.EqualError(err, "hsm offline")
}

func TestDeclareTxnSignWithKey(t *testing.T) {
	key, err := starknet.NewPrivateKey(testPrivateKey)
	require.NoError(t, err)
	tx := testDeclareTxn(t, starknet.V2)
	signed, err := tx.Sign(context.Background(), key)
	require.NoError(t, err)
	sig := signed.Signature()
	require.Len(t, sig, 2)
	assert.True(t, key.Verify(signed.Hash(), sig[0], sig[1]))
}

func TestSignedDeclareTxnMarshalJSON(t *testing.T) {
	signer := &recordingSigner{}
	for _, test := range []struct {
		V      starknet.TransactionVersion
		Keys   []string
		Absent []string
	}{{
		V: starknet.V1,
		Keys: []string{"type", "version", "sender_address", "signature",
			"nonce", "max_fee", "contract_class"},
		Absent: []string{"compiled_class_hash", "resource_bounds"},
	}, {
		V: starknet.V2,
		Keys: []string{"type", "version", "sender_address", "signature",
			"nonce", "max_fee", "contract_class", "compiled_class_hash"},
		Absent: []string{"resource_bounds", "tip"},
	}, {
		V: starknet.V3,
		Keys: []string{"type", "version", "sender_address", "signature",
			"nonce", "contract_class", "compiled_class_hash",
			"resource_bounds", "tip", "paymaster_data",
			"account_deployment_data", "nonce_data_availability_mode",
			"fee_data_availability_mode"},
		Absent: []string{"max_fee"},
	}} {
		test := test
		t.Run(test.V.String(), func(t *testing.T) {
			assert := assert.New(t)
			signed, err := testDeclareTxn(t, test.V).Sign(
				context.Background(), signer)
			require.NoError(t, err)
			data, err := json.Marshal(signed)
			require.NoError(t, err)
			var m map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(data, &m))
			for _, k := range test.Keys {
				assert.Contains(m, k)
			}
			for _, k := range test.Absent {
				assert.NotContains(m, k)
			}
			assert.JSONEq(`"DECLARE"`, string(m["type"]))
			assert.JSONEq(fmt.Sprintf(`"0x%d"`, test.V), string(m["version"]))
			assert.JSONEq(`["0x1","0x2"]`, string(m["signature"]))
		})
	}
}

func TestSignedDeclareTxnV3Payload(t *testing.T) {
	signed, err := testDeclareTxn(t, starknet.V3).Sign(
		context.Background(), &recordingSigner{})
	require.NoError(t, err)
	data, err := json.Marshal(signed)
	require.NoError(t, err)
	var tx struct {
		ResourceBounds json.RawMessage `json:"resource_bounds"`
		NonceDAMode    string          `json:"nonce_data_availability_mode"`
		ContractClass  struct {
			ABI         string `json:"abi"`
			EntryPoints map[string][]struct {
				Selector    string `json:"selector"`
				FunctionIdx uint64 `json:"function_idx"`
			} `json:"entry_points_by_type"`
		} `json:"contract_class"`
	}
	require.NoError(t, json.Unmarshal(data, &tx))
	assert := assert.New(t)
	assert.JSONEq(`{
		"l1_gas": {"max_amount": "0x3e8", "max_price_per_unit": "0x12c"},
		"l2_gas": {"max_amount": "0x0", "max_price_per_unit": "0x0"}
	}`, string(tx.ResourceBounds))
	assert.Equal("L1", tx.NonceDAMode)
	assert.Equal(signed.Txn().Sierra.ABI, tx.ContractClass.ABI)
	require.Len(t, tx.ContractClass.EntryPoints["CONSTRUCTOR"], 1)
	assert.Equal(uint64(1),
		tx.ContractClass.EntryPoints["CONSTRUCTOR"][0].FunctionIdx)
}
