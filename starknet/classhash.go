package starknet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"
)

var (
	compiledClassV1  = mustShortString("COMPILED_CLASS_V1")
	legacyAPIVersion = new(felt.Felt)
)

// SierraClassHash returns the class hash of a Sierra contract class, the hash
// the network identifies a declared class by.
func SierraClassHash(c *SierraClass) (*felt.Felt, error) {
	version, err := ShortString("CONTRACT_CLASS_V" + c.ContractClassVersion)
	if err != nil {
		return nil, fmt.Errorf("contract_class_version: %w", err)
	}
	abiHash, err := crypto.StarknetKeccak([]byte(c.ABI))
	if err != nil {
		return nil, err
	}
	return crypto.PoseidonArray(
		version,
		sierraEntryPointsHash(c.EntryPoints.External),
		sierraEntryPointsHash(c.EntryPoints.L1Handler),
		sierraEntryPointsHash(c.EntryPoints.Constructor),
		abiHash,
		crypto.PoseidonArray(c.Program...),
	), nil
}

func sierraEntryPointsHash(eps []SierraEntryPoint) *felt.Felt {
	elems := make([]*felt.Felt, 0, 2*len(eps))
	for _, ep := range eps {
		elems = append(elems, ep.Selector, FeltUint64(ep.FunctionIdx))
	}
	return crypto.PoseidonArray(elems...)
}

// CompiledClassHash returns the compiled class hash of a CASM class, which a
// declaration commits to alongside the Sierra class hash.
func CompiledClassHash(c *CasmClass) *felt.Felt {
	var bytecodeHash *felt.Felt
	if c.SegmentLengths != nil {
		bytecodeHash, _ = segmentHash(c.Bytecode, *c.SegmentLengths)
	} else {
		bytecodeHash = crypto.PoseidonArray(c.Bytecode...)
	}
	return crypto.PoseidonArray(
		compiledClassV1,
		casmEntryPointsHash(c.EntryPoints.External),
		casmEntryPointsHash(c.EntryPoints.L1Handler),
		casmEntryPointsHash(c.EntryPoints.Constructor),
		bytecodeHash,
	)
}

func casmEntryPointsHash(eps []CasmEntryPoint) *felt.Felt {
	elems := make([]*felt.Felt, 0, 3*len(eps))
	for _, ep := range eps {
		builtins := make([]*felt.Felt, len(ep.Builtins))
		for i, b := range ep.Builtins {
			// Builtin names are validated when the class is parsed.
			builtins[i] = mustShortString(b)
		}
		elems = append(elems, ep.Selector, FeltUint64(ep.Offset),
			crypto.PoseidonArray(builtins...))
	}
	return crypto.PoseidonArray(elems...)
}

// segmentHash hashes the bytecode segment tree s, starting at the beginning
// of bytecode, and returns the number of bytecode words it covers.
//
// A leaf hashes to the Poseidon hash of its words. A node hashes to one plus
// the Poseidon hash of its children's (length, hash) pairs.
func segmentHash(bytecode []*felt.Felt, s SegmentLengths) (*felt.Felt, uint64) {
	if s.IsLeaf() {
		return crypto.PoseidonArray(bytecode[:s.Len]...), s.Len
	}
	var offset uint64
	elems := make([]*felt.Felt, 0, 2*len(s.Segments))
	for _, seg := range s.Segments {
		h, n := segmentHash(bytecode[offset:], seg)
		elems = append(elems, FeltUint64(n), h)
		offset += n
	}
	h := crypto.PoseidonArray(elems...)
	return h.Add(h, FeltUint64(1)), offset
}

// LegacyClassHash returns the class hash of a Cairo 0 class.
func LegacyClassHash(c *LegacyClass) (*felt.Felt, error) {
	hinted, err := hintedClassHash(c)
	if err != nil {
		return nil, err
	}
	builtins := make([]*felt.Felt, len(c.Builtins))
	for i, b := range c.Builtins {
		builtins[i] = mustShortString(b)
	}
	return crypto.PedersenArray(
		legacyAPIVersion,
		legacyEntryPointsHash(c.EntryPoints.External),
		legacyEntryPointsHash(c.EntryPoints.L1Handler),
		legacyEntryPointsHash(c.EntryPoints.Constructor),
		crypto.PedersenArray(builtins...),
		hinted,
		crypto.PedersenArray(c.Data...),
	), nil
}

func legacyEntryPointsHash(eps []LegacyEntryPoint) *felt.Felt {
	elems := make([]*felt.Felt, 0, 2*len(eps))
	for _, ep := range eps {
		elems = append(elems, ep.Selector, ep.Offset)
	}
	return crypto.PedersenArray(elems...)
}

// hintedClassHash is the keccak of the sorted JSON dump of the class ABI and
// program, without debug info.
func hintedClassHash(c *LegacyClass) (*felt.Felt, error) {
	var program map[string]interface{}
	if err := decodeNumbers(c.Program, &program); err != nil {
		return nil, fmt.Errorf("program: %w", err)
	}
	var abi interface{}
	if err := decodeNumbers(c.ABI, &abi); err != nil {
		return nil, fmt.Errorf("abi: %w", err)
	}

	program["debug_info"] = nil
	if attrs, ok := program["attributes"].([]interface{}); ok {
		if len(attrs) == 0 {
			delete(program, "attributes")
		}
		for _, a := range attrs {
			attr, ok := a.(map[string]interface{})
			if !ok {
				continue
			}
			if scopes, ok := attr["accessible_scopes"].([]interface{}); ok &&
				len(scopes) == 0 {
				delete(attr, "accessible_scopes")
			}
			if v, ok := attr["flow_tracking_data"]; ok && v == nil {
				delete(attr, "flow_tracking_data")
			}
		}
	}
	// Hints are keyed by program counter and the compiler dumps them with
	// integer keys, so they sort numerically.
	if hints, ok := program["hints"].(map[string]interface{}); ok {
		program["hints"] = intKeyed(hints)
	}
	if program["compiler_version"] == nil {
		// Programs compiled before compiler_version existed were hashed
		// with a space before the colon of named tuple members.
		spaceCairoTypes(program)
	}

	text, err := pythonJSONSorted(map[string]interface{}{
		"abi": abi, "program": program})
	if err != nil {
		return nil, err
	}
	return crypto.StarknetKeccak([]byte(text))
}

func spaceCairoTypes(v interface{}) {
	switch v := v.(type) {
	case map[string]interface{}:
		for k, e := range v {
			if k == "cairo_type" || k == "value" {
				if s, ok := e.(string); ok {
					s = strings.ReplaceAll(s, ":", " :")
					v[k] = strings.ReplaceAll(s, "  :", " :")
				}
				continue
			}
			spaceCairoTypes(e)
		}
	case intKeyed:
		for _, e := range v {
			spaceCairoTypes(e)
		}
	case []interface{}:
		for _, e := range v {
			spaceCairoTypes(e)
		}
	}
}

func decodeNumbers(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
