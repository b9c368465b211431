package feeds

import (
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Kind names of the built-in aggregator implementations.
const (
	KindStatic    = "static"
	KindChainlink = "chainlink"
)

// AggregatorFactory builds an aggregator from a generic configuration map.
type AggregatorFactory func(config map[string]interface{}) (Aggregator, error)

var (
	kinds   = make(map[string]AggregatorFactory)
	kindsMu sync.RWMutex
)

func init() {
	RegisterKind(KindStatic, NewStaticAggregatorFromConfig)
}

// RegisterKind adds an aggregator factory under name.
func RegisterKind(name string, factory AggregatorFactory) {
	kindsMu.Lock()
	defer kindsMu.Unlock()
	kinds[name] = factory
}

// NewAggregator creates an aggregator of the given kind.
func NewAggregator(kind string, config map[string]interface{}) (Aggregator, error) {
	kindsMu.RLock()
	factory, ok := kinds[kind]
	kindsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return factory(config)
}

// Kinds returns the registered kind names, sorted.
func Kinds() []string {
	kindsMu.RLock()
	defer kindsMu.RUnlock()

	names := make([]string, 0, len(kinds))
	for name := range kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewStaticAggregatorFromConfig builds a StaticAggregator.
// Keys: label (required), decimals, answer (decimal string), updated_at, address.
func NewStaticAggregatorFromConfig(config map[string]interface{}) (Aggregator, error) {
	label, _ := config["label"].(string)
	if label == "" {
		return nil, fmt.Errorf("%w: static feed requires a label", ErrInvalidConfig)
	}

	decimals, err := configUint(config, "decimals", 18)
	if err != nil {
		return nil, err
	}
	if decimals > 255 {
		return nil, fmt.Errorf("%w: decimals %d out of range", ErrInvalidConfig, decimals)
	}

	addr := StaticAddress(label)
	if raw, ok := config["address"].(string); ok && raw != "" {
		if !common.IsHexAddress(raw) {
			return nil, fmt.Errorf("%w: bad address %q", ErrInvalidConfig, raw)
		}
		addr = common.HexToAddress(raw)
	}

	agg := NewStaticAggregatorAt(addr, label, uint8(decimals))

	if raw, ok := config["answer"].(string); ok && raw != "" {
		answer, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			return nil, fmt.Errorf("%w: bad answer %q", ErrInvalidConfig, raw)
		}
		agg.SetLatestAnswer(answer)
	}

	ts, err := configUint(config, "updated_at", 0)
	if err != nil {
		return nil, err
	}
	agg.SetLatestTimestamp(ts)

	return agg, nil
}

// configUint reads an unsigned integer that YAML may have decoded as int, uint64 or float64.
func configUint(config map[string]interface{}, key string, def uint64) (uint64, error) {
	raw, ok := config[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case int:
		if v < 0 {
			return 0, fmt.Errorf("%w: %s must be >= 0", ErrInvalidConfig, key)
		}
		return uint64(v), nil
	case int64:
		if v < 0 {
			return 0, fmt.Errorf("%w: %s must be >= 0", ErrInvalidConfig, key)
		}
		return uint64(v), nil
	case uint64:
		return v, nil
	case uint8:
		return uint64(v), nil
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("%w: %s must be >= 0", ErrInvalidConfig, key)
		}
		return uint64(v), nil
	default:
		return 0, fmt.Errorf("%w: %s is %T", ErrInvalidConfig, key, raw)
	}
}
