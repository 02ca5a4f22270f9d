package starknet

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/NethermindEth/juno/core/felt"
)

var (
	l1GasName = mustShortString("L1_GAS")
	l2GasName = mustShortString("L2_GAS")

	maxUint128 = new(big.Int).Sub(two128, big.NewInt(1))
)

// ResourceBound limits the amount of one resource a V3 transaction may use
// and the price it pays per unit, in FRI.
type ResourceBound struct {
	MaxAmount       uint64
	MaxPricePerUnit *big.Int
}

// ResourceBounds are the fee fields of a V3 transaction.
type ResourceBounds struct {
	L1Gas ResourceBound `json:"l1_gas"`
	L2Gas ResourceBound `json:"l2_gas"`
}

func (b ResourceBound) price() *big.Int {
	if b.MaxPricePerUnit == nil {
		return new(big.Int)
	}
	return b.MaxPricePerUnit
}

// Validate that the price fits in 128 bits.
func (b ResourceBound) Validate() error {
	if p := b.price(); p.Sign() < 0 || p.Cmp(maxUint128) > 0 {
		return fmt.Errorf("max price per unit out of range: %v", p)
	}
	return nil
}

// pack returns name<<192 | max_amount<<128 | max_price_per_unit, the form in
// which a bound is hashed.
func (b ResourceBound) pack(name *felt.Felt) *felt.Felt {
	n := BigInt(name)
	n.Lsh(n, 64)
	n.Or(n, new(big.Int).SetUint64(b.MaxAmount))
	n.Lsh(n, 128)
	n.Or(n, b.price())
	return new(felt.Felt).SetBigInt(n)
}

func (b ResourceBound) MarshalJSON() ([]byte, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		MaxAmount       string `json:"max_amount"`
		MaxPricePerUnit string `json:"max_price_per_unit"`
	}{
		MaxAmount:       fmt.Sprintf("0x%x", b.MaxAmount),
		MaxPricePerUnit: "0x" + b.price().Text(16),
	})
}
