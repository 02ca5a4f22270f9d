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

// Package artifact locates and parses the compiler output files of a
// contract.
//
// A Cairo 1 contract named {name} is compiled into two files in the
// contracts directory:
//
//	{name}.compiled_contract_class.json  executable (CASM) form
//	{name}.contract_class.json           intermediate (Sierra) form
//
// A Cairo 0 contract, declared with a version 1 transaction, is a single
// {name}.json file.
package artifact

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/kuracoin/sndeclare/starknet"
)

var (
	ErrNotFound  = errors.New("artifact not found")
	ErrMalformed = errors.New("artifact malformed")
)

const (
	CasmSuffix   = ".compiled_contract_class.json"
	SierraSuffix = ".contract_class.json"
	LegacySuffix = ".json"
)

// Loader reads artifacts from Dir.
type Loader struct {
	Dir string
}

// Paths are the files a contract is loaded from. Casm and Sierra are set for
// Cairo 1 contracts, Legacy for Cairo 0 contracts.
type Paths struct {
	Casm   string
	Sierra string
	Legacy string
}

// Paths returns the artifact paths of the contract name declared with
// version v.
func (l Loader) Paths(name string, v starknet.TransactionVersion) Paths {
	base := filepath.Join(l.Dir, name)
	if v.IsLegacy() {
		return Paths{Legacy: base + LegacySuffix}
	}
	return Paths{Casm: base + CasmSuffix, Sierra: base + SierraSuffix}
}

// Artifacts are the parsed classes of one contract.
type Artifacts struct {
	Name    string
	Version starknet.TransactionVersion
	Paths   Paths

	Sierra *starknet.SierraClass
	Casm   *starknet.CasmClass
	Legacy *starknet.LegacyClass
}

// Load reads and parses the artifacts of the contract name for a declaration
// of version v. The executable form is loaded first so that a contract that
// was never compiled fails before anything else is read.
//
// Errors wrap ErrNotFound if a file does not exist and ErrMalformed if a
// file cannot be parsed.
func (l Loader) Load(name string, v starknet.TransactionVersion) (*Artifacts, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("invalid contract name %q", name)
	}
	if !v.IsValid() {
		return nil, fmt.Errorf("unsupported declare version %d", v)
	}
	a := Artifacts{Name: name, Version: v, Paths: l.Paths(name, v)}
	if v.IsLegacy() {
		data, err := read(a.Paths.Legacy)
		if err != nil {
			return nil, err
		}
		if a.Legacy, err = starknet.ParseLegacyClass(data); err != nil {
			return nil, malformed(a.Paths.Legacy, err)
		}
		return &a, nil
	}

	data, err := read(a.Paths.Casm)
	if err != nil {
		return nil, err
	}
	if a.Casm, err = starknet.ParseCasmClass(data); err != nil {
		return nil, malformed(a.Paths.Casm, err)
	}

	if data, err = read(a.Paths.Sierra); err != nil {
		return nil, err
	}
	if a.Sierra, err = starknet.ParseSierraClass(data); err != nil {
		return nil, malformed(a.Paths.Sierra, err)
	}
	return &a, nil
}

func read(path string) ([]byte, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %v", ErrNotFound, path)
		}
		return nil, fmt.Errorf("ioutil.ReadFile(%q): %w", path, err)
	}
	return data, nil
}

func malformed(path string, err error) error {
	return fmt.Errorf("%w: %v: %v", ErrMalformed, path, err)
}

// Hashes are the identifiers of a class. CompiledClassHash is nil for Cairo 0
// classes.
type Hashes struct {
	ClassHash         *felt.Felt
	CompiledClassHash *felt.Felt
}

// Hash computes the class hash and, for Cairo 1 classes, the compiled class
// hash of a.
func (a *Artifacts) Hash() (Hashes, error) {
	if a.Legacy != nil {
		h, err := starknet.LegacyClassHash(a.Legacy)
		if err != nil {
			return Hashes{}, malformed(a.Paths.Legacy, err)
		}
		return Hashes{ClassHash: h}, nil
	}
	h, err := starknet.SierraClassHash(a.Sierra)
	if err != nil {
		return Hashes{}, malformed(a.Paths.Sierra, err)
	}
	return Hashes{
		ClassHash:         h,
		CompiledClassHash: starknet.CompiledClassHash(a.Casm),
	}, nil
}
