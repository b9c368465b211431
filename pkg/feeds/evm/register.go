package evm

import (
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/StrathCole/chainlink-oracle-go/pkg/feeds"
)

// Register installs the chainlink aggregator kind, reading contracts through caller.
// Config keys: address (required).
func Register(caller ethereum.ContractCaller) {
	feeds.RegisterKind(feeds.KindChainlink, func(config map[string]interface{}) (feeds.Aggregator, error) {
		raw, _ := config["address"].(string)
		if raw == "" {
			return nil, fmt.Errorf("%w: %w", feeds.ErrInvalidConfig, ErrAddressRequired)
		}
		if !common.IsHexAddress(raw) {
			return nil, fmt.Errorf("%w: bad address %q", feeds.ErrInvalidConfig, raw)
		}
		return NewChainlinkAggregator(caller, common.HexToAddress(raw))
	})
}
