package starknet

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/klauspost/compress/gzip"
)

// SierraEntryPoint is an entry point of a Sierra contract class.
type SierraEntryPoint struct {
	Selector    *felt.Felt
	FunctionIdx uint64
}

// CasmEntryPoint is an entry point of a compiled (CASM) class.
type CasmEntryPoint struct {
	Selector *felt.Felt
	Offset   uint64
	Builtins []string
}

// LegacyEntryPoint is an entry point of a Cairo 0 class.
type LegacyEntryPoint struct {
	Selector *felt.Felt
	Offset   *felt.Felt
}

// EntryPoints groups entry points by type, in the order they are hashed.
type EntryPoints[T any] struct {
	External    []T
	L1Handler   []T
	Constructor []T
}

type rawEntryPoints[T any] struct {
	External    []T `json:"EXTERNAL"`
	L1Handler   []T `json:"L1_HANDLER"`
	Constructor []T `json:"CONSTRUCTOR"`
}

// SierraClass is the intermediate representation of a Cairo 1 contract as
// emitted in {name}.contract_class.json.
type SierraClass struct {
	Program              []*felt.Felt
	ContractClassVersion string
	EntryPoints          EntryPoints[SierraEntryPoint]

	// ABI is the canonical ABI text committed to by the class hash.
	ABI string
}

type rawSierraEntryPoint struct {
	Selector    Hex     `json:"selector"`
	FunctionIdx *uint64 `json:"function_idx"`
}

// ParseSierraClass parses the JSON text of a Sierra contract class.
func ParseSierraClass(data []byte) (*SierraClass, error) {
	var raw struct {
		Program              []Hex                                `json:"sierra_program"`
		ContractClassVersion string                               `json:"contract_class_version"`
		EntryPoints          *rawEntryPoints[rawSierraEntryPoint] `json:"entry_points_by_type"`
		ABI                  json.RawMessage                      `json:"abi"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if len(raw.Program) == 0 {
		return nil, fmt.Errorf(`missing "sierra_program"`)
	}
	if raw.ContractClassVersion == "" {
		return nil, fmt.Errorf(`missing "contract_class_version"`)
	}
	if raw.EntryPoints == nil {
		return nil, fmt.Errorf(`missing "entry_points_by_type"`)
	}
	class := SierraClass{
		Program:              felts(raw.Program),
		ContractClassVersion: raw.ContractClassVersion,
	}
	for _, ep := range []struct {
		Dst  *[]SierraEntryPoint
		Src  []rawSierraEntryPoint
		Name string
	}{
		{&class.EntryPoints.External, raw.EntryPoints.External, "EXTERNAL"},
		{&class.EntryPoints.L1Handler, raw.EntryPoints.L1Handler, "L1_HANDLER"},
		{&class.EntryPoints.Constructor, raw.EntryPoints.Constructor, "CONSTRUCTOR"},
	} {
		*ep.Dst = make([]SierraEntryPoint, len(ep.Src))
		for i, src := range ep.Src {
			if src.Selector.F == nil || src.FunctionIdx == nil {
				return nil, fmt.Errorf("%v[%v]: incomplete entry point",
					ep.Name, i)
			}
			(*ep.Dst)[i] = SierraEntryPoint{
				Selector: src.Selector.F, FunctionIdx: *src.FunctionIdx}
		}
	}
	abi, err := canonicalABI(raw.ABI)
	if err != nil {
		return nil, fmt.Errorf("abi: %w", err)
	}
	class.ABI = abi
	return &class, nil
}

// canonicalABI returns the ABI text the network hashes. A string ABI is used
// verbatim, an array ABI is dumped the way Python's json.dumps would.
func canonicalABI(data json.RawMessage) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if data[0] == '"' {
		var s string
		err := json.Unmarshal(data, &s)
		return s, err
	}
	if data[0] != '[' {
		return "", fmt.Errorf("must be a string or an array")
	}
	return pythonJSON(data)
}

// SegmentLengths is the bytecode_segment_lengths tree of a compiled class:
// either a leaf with a length or a list of nested segments.
type SegmentLengths struct {
	Len      uint64
	Segments []SegmentLengths
}

// IsLeaf reports whether s is a single segment.
func (s SegmentLengths) IsLeaf() bool { return s.Segments == nil }

func (s *SegmentLengths) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		s.Segments = []SegmentLengths{}
		return json.Unmarshal(data, &s.Segments)
	}
	return json.Unmarshal(data, &s.Len)
}

// CasmClass is the executable form of a Cairo 1 contract as emitted in
// {name}.compiled_contract_class.json.
type CasmClass struct {
	CompilerVersion string
	Bytecode        []*felt.Felt
	SegmentLengths  *SegmentLengths
	EntryPoints     EntryPoints[CasmEntryPoint]
}

// ParseCasmClass parses the JSON text of a compiled class.
func ParseCasmClass(data []byte) (*CasmClass, error) {
	type rawEntryPoint struct {
		Selector Hex      `json:"selector"`
		Offset   *uint64  `json:"offset"`
		Builtins []string `json:"builtins"`
	}
	var raw struct {
		Prime           string                         `json:"prime"`
		CompilerVersion string                         `json:"compiler_version"`
		Bytecode        []Hex                          `json:"bytecode"`
		SegmentLengths  *SegmentLengths                `json:"bytecode_segment_lengths"`
		EntryPoints     *rawEntryPoints[rawEntryPoint] `json:"entry_points_by_type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if len(raw.Bytecode) == 0 {
		return nil, fmt.Errorf(`missing "bytecode"`)
	}
	if raw.EntryPoints == nil {
		return nil, fmt.Errorf(`missing "entry_points_by_type"`)
	}
	if raw.Prime != "" {
		prime, ok := new(big.Int).SetString(raw.Prime, 0)
		if !ok || prime.Cmp(Prime) != 0 {
			return nil, fmt.Errorf("unexpected prime %q", raw.Prime)
		}
	}
	class := CasmClass{
		CompilerVersion: raw.CompilerVersion,
		Bytecode:        felts(raw.Bytecode),
		SegmentLengths:  raw.SegmentLengths,
	}
	for _, ep := range []struct {
		Dst  *[]CasmEntryPoint
		Src  []rawEntryPoint
		Name string
	}{
		{&class.EntryPoints.External, raw.EntryPoints.External, "EXTERNAL"},
		{&class.EntryPoints.L1Handler, raw.EntryPoints.L1Handler, "L1_HANDLER"},
		{&class.EntryPoints.Constructor, raw.EntryPoints.Constructor, "CONSTRUCTOR"},
	} {
		*ep.Dst = make([]CasmEntryPoint, len(ep.Src))
		for i, src := range ep.Src {
			if src.Selector.F == nil || src.Offset == nil {
				return nil, fmt.Errorf("%v[%v]: incomplete entry point",
					ep.Name, i)
			}
			for _, b := range src.Builtins {
				if _, err := ShortString(b); err != nil {
					return nil, fmt.Errorf("%v[%v]: builtin: %w",
						ep.Name, i, err)
				}
			}
			(*ep.Dst)[i] = CasmEntryPoint{Selector: src.Selector.F,
				Offset: *src.Offset, Builtins: src.Builtins}
		}
	}
	if class.SegmentLengths != nil {
		total, err := class.SegmentLengths.total(uint64(len(class.Bytecode)))
		if err != nil {
			return nil, err
		}
		if total != uint64(len(class.Bytecode)) {
			return nil, fmt.Errorf(
				"bytecode_segment_lengths: total %v != bytecode length %v",
				total, len(class.Bytecode))
		}
	}
	return &class, nil
}

// total returns the number of bytecode words s covers, failing as soon as
// that exceeds limit.
func (s SegmentLengths) total(limit uint64) (uint64, error) {
	if s.IsLeaf() {
		if s.Len > limit {
			return 0, fmt.Errorf(
				"bytecode_segment_lengths: segments exceed bytecode length")
		}
		return s.Len, nil
	}
	if len(s.Segments) == 0 {
		return 0, fmt.Errorf("bytecode_segment_lengths: empty segment list")
	}
	var total uint64
	for _, seg := range s.Segments {
		n, err := seg.total(limit - total)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// LegacyClass is a Cairo 0 compiled contract, declared with a version 1
// transaction.
type LegacyClass struct {
	ABI         json.RawMessage
	Program     json.RawMessage
	EntryPoints EntryPoints[LegacyEntryPoint]

	Builtins []string
	Data     []*felt.Felt
}

// ParseLegacyClass parses the JSON text of a Cairo 0 compiled contract.
func ParseLegacyClass(data []byte) (*LegacyClass, error) {
	type rawEntryPoint struct {
		Selector Hex `json:"selector"`
		Offset   Hex `json:"offset"`
	}
	var raw struct {
		ABI         json.RawMessage                `json:"abi"`
		Program     json.RawMessage                `json:"program"`
		EntryPoints *rawEntryPoints[rawEntryPoint] `json:"entry_points_by_type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if len(raw.Program) == 0 {
		return nil, fmt.Errorf(`missing "program"`)
	}
	if raw.EntryPoints == nil {
		return nil, fmt.Errorf(`missing "entry_points_by_type"`)
	}
	var program struct {
		Builtins []string `json:"builtins"`
		Data     []Hex    `json:"data"`
	}
	if err := json.Unmarshal(raw.Program, &program); err != nil {
		return nil, fmt.Errorf("program: %w", err)
	}
	if len(program.Data) == 0 {
		return nil, fmt.Errorf(`program: missing "data"`)
	}
	for _, b := range program.Builtins {
		if _, err := ShortString(b); err != nil {
			return nil, fmt.Errorf("program: builtin: %w", err)
		}
	}
	class := LegacyClass{
		ABI:      raw.ABI,
		Program:  raw.Program,
		Builtins: program.Builtins,
		Data:     felts(program.Data),
	}
	if len(class.ABI) == 0 {
		class.ABI = json.RawMessage("[]")
	}
	for _, ep := range []struct {
		Dst  *[]LegacyEntryPoint
		Src  []rawEntryPoint
		Name string
	}{
		{&class.EntryPoints.External, raw.EntryPoints.External, "EXTERNAL"},
		{&class.EntryPoints.L1Handler, raw.EntryPoints.L1Handler, "L1_HANDLER"},
		{&class.EntryPoints.Constructor, raw.EntryPoints.Constructor, "CONSTRUCTOR"},
	} {
		*ep.Dst = make([]LegacyEntryPoint, len(ep.Src))
		for i, src := range ep.Src {
			if src.Selector.F == nil || src.Offset.F == nil {
				return nil, fmt.Errorf("%v[%v]: incomplete entry point",
					ep.Name, i)
			}
			(*ep.Dst)[i] = LegacyEntryPoint{
				Selector: src.Selector.F, Offset: src.Offset.F}
		}
	}
	return &class, nil
}

// CompressedProgram returns the program gzipped and base64 encoded, the form
// the node API accepts for Cairo 0 classes.
func (c *LegacyClass) CompressedProgram() (string, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(c.Program); err != nil {
		return "", err
	}
	if err := gz.Close(); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
