package starknet

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/NethermindEth/juno/core/felt"
)

// Prime is the modulus of the Starknet field, 2^251 + 17*2^192 + 1.
var Prime, _ = new(big.Int).SetString(
	"800000000000011000000000000000000000000000000000000000000000001", 16)

var two128 = new(big.Int).Lsh(big.NewInt(1), 128)

// ParseFelt parses s as either a 0x prefixed hex integer or a decimal
// integer. The value must be less than Prime.
func ParseFelt(s string) (*felt.Felt, error) {
	s = strings.TrimSpace(s)
	var n big.Int
	var ok bool
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if len(s) == 2 {
			return nil, fmt.Errorf("invalid felt %q", s)
		}
		_, ok = n.SetString(s[2:], 16)
	} else {
		_, ok = n.SetString(s, 10)
	}
	if !ok {
		return nil, fmt.Errorf("invalid felt %q", s)
	}
	return FeltFromBig(&n)
}

// FeltFromBig returns n as a felt. It is an error for n to be negative or not
// less than Prime.
func FeltFromBig(n *big.Int) (*felt.Felt, error) {
	if n.Sign() < 0 || n.Cmp(Prime) >= 0 {
		return nil, fmt.Errorf("felt out of range: %v", n)
	}
	return new(felt.Felt).SetBigInt(n), nil
}

// FeltUint64 returns v as a felt.
func FeltUint64(v uint64) *felt.Felt {
	return new(felt.Felt).SetUint64(v)
}

// BigInt returns f as a big.Int.
func BigInt(f *felt.Felt) *big.Int {
	return f.BigInt(new(big.Int))
}

// ShortString encodes s, at most 31 ASCII characters, as a Cairo short
// string: the big endian integer of its bytes.
func ShortString(s string) (*felt.Felt, error) {
	if len(s) > 31 {
		return nil, fmt.Errorf("short string %q: too long", s)
	}
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return nil, fmt.Errorf("short string %q: non-ASCII", s)
		}
	}
	return new(felt.Felt).SetBytes([]byte(s)), nil
}

func mustShortString(s string) *felt.Felt {
	f, err := ShortString(s)
	if err != nil {
		panic(err)
	}
	return f
}

// Hex decodes a felt from a JSON string holding hex or decimal digits, or from
// a JSON number, and always encodes as a 0x prefixed hex string.
type Hex struct{ F *felt.Felt }

// NewHex wraps f.
func NewHex(f *felt.Felt) Hex { return Hex{F: f} }

func (h *Hex) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		s = n.String()
	}
	f, err := ParseFelt(s)
	if err != nil {
		return err
	}
	h.F = f
	return nil
}

func (h Hex) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h Hex) String() string {
	if h.F == nil {
		return "0x0"
	}
	return h.F.String()
}

// hexes converts a slice of felts into their JSON representation.
func hexes(fs []*felt.Felt) []Hex {
	hs := make([]Hex, len(fs))
	for i, f := range fs {
		hs[i] = Hex{F: f}
	}
	return hs
}

// felts unwraps hs.
func felts(hs []Hex) []*felt.Felt {
	fs := make([]*felt.Felt, len(hs))
	for i, h := range hs {
		fs[i] = h.F
	}
	return fs
}
