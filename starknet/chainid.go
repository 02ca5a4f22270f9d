package starknet

import (
	"fmt"
	"strings"

	"github.com/NethermindEth/juno/core/felt"
)

var (
	mainnetID = mustShortString("SN_MAIN")
	sepoliaID = mustShortString("SN_SEPOLIA")
	goerliID  = mustShortString("SN_GOERLI")
)

func Mainnet() ChainID { return ChainID{id: mainnetID} }
func Sepolia() ChainID { return ChainID{id: sepoliaID} }
func Goerli() ChainID  { return ChainID{id: goerliID} }

// ChainID selects the network a transaction is valid on. It is mixed into
// every transaction hash.
type ChainID struct{ id *felt.Felt }

// ParseChainID accepts "mainnet", "sepolia", "goerli" or "testnet", the
// short string names like "SN_MAIN", or a raw felt.
func ParseChainID(s string) (ChainID, error) {
	switch strings.ToLower(s) {
	case "mainnet", "main", "sn_main":
		return Mainnet(), nil
	case "sepolia", "sn_sepolia":
		return Sepolia(), nil
	case "goerli", "testnet", "sn_goerli":
		return Goerli(), nil
	}
	if strings.HasPrefix(s, "0x") {
		id, err := ParseFelt(s)
		if err != nil {
			return ChainID{}, err
		}
		return ChainID{id: id}, nil
	}
	id, err := ShortString(s)
	if err != nil {
		return ChainID{}, fmt.Errorf("invalid chain id %q", s)
	}
	return ChainID{id: id}, nil
}

// Felt returns the chain id as it is hashed into transactions.
func (c ChainID) Felt() *felt.Felt {
	if c.id == nil {
		return new(felt.Felt)
	}
	return c.id
}

func (c ChainID) IsZero() bool { return c.id == nil || c.id.IsZero() }

func (c ChainID) Equal(o ChainID) bool { return c.Felt().Equal(o.Felt()) }

func (c ChainID) String() string {
	switch {
	case c.Equal(Mainnet()):
		return "mainnet"
	case c.Equal(Sepolia()):
		return "sepolia"
	case c.Equal(Goerli()):
		return "goerli"
	default:
		return "custom: " + c.Felt().String()
	}
}

func (c ChainID) IsMainnet() bool {
	return c.Equal(Mainnet())
}

func (c ChainID) IsCustom() bool {
	return !c.IsMainnet() && !c.Equal(Sepolia()) && !c.Equal(Goerli())
}
