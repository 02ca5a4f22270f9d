// Package starknet provides the data types, hashes and node queries needed to
// declare contract classes on Starknet.
//
// Classes are parsed from the JSON artifacts produced by the Cairo
// compilers. SierraClass and CasmClass are the two halves of a Cairo 1
// contract, LegacyClass is a Cairo 0 contract. SierraClassHash,
// CompiledClassHash and LegacyClassHash compute the identifiers the network
// derives from them.
//
// DeclareTxn describes a declare transaction of any of the V1, V2 and V3
// protocol versions. Its Sign method returns an immutable SignedDeclareTxn
// which marshals to the node's broadcast form.
//
// Methods that accept a *Client call a node's JSON-RPC API. The returned
// error can be checked to see if it is a jsonrpc2.Error type, indicating
// that the networking calls were successful, but that the node returned an
// error. The Err* codes identify the node errors that callers act upon.
package starknet
