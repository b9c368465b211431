package oracle

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/StrathCole/chainlink-oracle-go/pkg/composer"
	"github.com/StrathCole/chainlink-oracle-go/pkg/fixed"
	"github.com/StrathCole/chainlink-oracle-go/pkg/logging"
	"github.com/StrathCole/chainlink-oracle-go/pkg/metrics"
	"github.com/StrathCole/chainlink-oracle-go/pkg/symbol"
)

// Gate reports a pause flag held outside the oracle, usually by its factory.
type Gate interface {
	Paused() bool
}

// Config describes an oracle instance.
type Config struct {
	Symbol      string
	Name        string
	Decimals    uint8
	Maintainer  string
	MetadataRef common.Address
	MetadataURL string
	Path        symbol.Path
	// BaseUnits is one unit of the factory base currency, 10^baseDecimals.
	BaseUnits *big.Int
	Source    composer.HopSource
	Gate      Gate
	Logger    *logging.Logger
}

// Instance reads the combined rate of a fixed path.
type Instance struct {
	symbol    string
	name      string
	decimals  uint8
	currency  symbol.Symbol
	path      symbol.Path
	baseUnits *big.Int
	composer  *composer.Composer
	gate      Gate
	logger    *logging.Logger

	mu          sync.RWMutex
	paused      bool
	maintainer  string
	metadataRef common.Address
	metadataURL string
}

// Switch controls an Instance's own pause flag and metadata. It is handed only
// to the creator of the instance.
type Switch struct {
	inst *Instance
}

// New creates an instance and the switch that controls it.
func New(cfg Config) (*Instance, *Switch, error) {
	if cfg.Source == nil {
		return nil, nil, ErrNoSource
	}
	if cfg.BaseUnits == nil || cfg.BaseUnits.Sign() <= 0 {
		return nil, nil, ErrNoBaseUnits
	}
	if err := cfg.Path.Validate(); err != nil {
		return nil, nil, err
	}
	currency, err := symbol.FromString(cfg.Symbol)
	if err != nil {
		return nil, nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNoopLogger()
	}

	inst := &Instance{
		symbol:      cfg.Symbol,
		name:        cfg.Name,
		decimals:    cfg.Decimals,
		currency:    currency,
		path:        cfg.Path.Clone(),
		baseUnits:   new(big.Int).Set(cfg.BaseUnits),
		composer:    composer.New(cfg.Source),
		gate:        cfg.Gate,
		logger:      logger.With("oracle", cfg.Symbol),
		maintainer:  cfg.Maintainer,
		metadataRef: cfg.MetadataRef,
		metadataURL: cfg.MetadataURL,
	}
	return inst, &Switch{inst: inst}, nil
}

// ReadSample returns (tokens, equivalent) so that equivalent/tokens is the number of
// target units per base unit. hints is accepted for interface compatibility and ignored.
func (o *Instance) ReadSample(ctx context.Context, _ []byte) (*big.Int, *big.Int, error) {
	if err := o.checkPaused(); err != nil {
		metrics.RecordOracleRead(o.symbol, "paused")
		return nil, nil, err
	}

	rate, err := o.composer.Rate(ctx, o.path)
	if err != nil {
		metrics.RecordOracleRead(o.symbol, "error")
		o.logger.Warn("Failed to read sample", "path", o.path.String(), "error", err)
		return nil, nil, fmt.Errorf("oracle %s: %w", o.symbol, err)
	}

	equivalent := fixed.MulPow10(rate.Value, uint(o.decimals))
	tokens := fixed.MulPow10(o.baseUnits, uint(rate.Decimals))

	metrics.RecordOracleRead(o.symbol, "success")
	return tokens, equivalent, nil
}

// Rate returns the combined path rate without the pause check or base scaling.
func (o *Instance) Rate(ctx context.Context) (composer.Rate, error) {
	return o.composer.Rate(ctx, o.path)
}

// LatestTimestamp returns the update time of the stalest feed on the path.
func (o *Instance) LatestTimestamp(ctx context.Context) (uint64, error) {
	ts, err := o.composer.Timestamp(ctx, o.path)
	if err != nil {
		return 0, fmt.Errorf("oracle %s: %w", o.symbol, err)
	}
	metrics.RecordPathStaleness(o.symbol, ts)
	return ts, nil
}

func (o *Instance) checkPaused() error {
	o.mu.RLock()
	local := o.paused
	o.mu.RUnlock()

	if local {
		return fmt.Errorf("%w: %s", ErrPaused, o.symbol)
	}
	if o.gate != nil && o.gate.Paused() {
		return fmt.Errorf("%w: %s (factory)", ErrPaused, o.symbol)
	}
	return nil
}

// Paused reports whether reads are currently rejected by either flag.
func (o *Instance) Paused() bool {
	return o.checkPaused() != nil
}

// LocalPaused reports the instance's own flag only.
func (o *Instance) LocalPaused() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.paused
}

// Symbol returns the target currency code.
func (o *Instance) Symbol() string { return o.symbol }

// Currency returns the target currency as a Symbol.
func (o *Instance) Currency() symbol.Symbol { return o.currency }

// Name returns the display name.
func (o *Instance) Name() string { return o.name }

// Decimals returns the target precision.
func (o *Instance) Decimals() uint8 { return o.decimals }

// Path returns a copy of the conversion path.
func (o *Instance) Path() symbol.Path { return o.path.Clone() }

// Info is a descriptive snapshot of an instance.
type Info struct {
	Symbol      string   `json:"symbol"`
	Name        string   `json:"name"`
	Currency    string   `json:"currency"`
	Decimals    uint8    `json:"decimals"`
	Path        []string `json:"path"`
	Maintainer  string   `json:"maintainer,omitempty"`
	MetadataRef string   `json:"metadata_ref,omitempty"`
	MetadataURL string   `json:"metadata_url,omitempty"`
	Paused      bool     `json:"paused"`
	LocalPaused bool     `json:"local_paused"`
}

// Info returns a snapshot of the instance.
func (o *Instance) Info() Info {
	o.mu.RLock()
	info := Info{
		Symbol:      o.symbol,
		Name:        o.name,
		Currency:    o.currency.Hex(),
		Decimals:    o.decimals,
		Path:        o.path.Strings(),
		Maintainer:  o.maintainer,
		MetadataURL: o.metadataURL,
		LocalPaused: o.paused,
	}
	if o.metadataRef != (common.Address{}) {
		info.MetadataRef = o.metadataRef.Hex()
	}
	o.mu.RUnlock()

	info.Paused = o.Paused()
	return info
}

// Instance returns the controlled instance.
func (s *Switch) Instance() *Instance { return s.inst }

// Pause sets the instance's own pause flag. It reports whether the flag changed.
func (s *Switch) Pause() bool { return s.set(true) }

// Start clears the instance's own pause flag. It reports whether the flag changed.
func (s *Switch) Start() bool { return s.set(false) }

func (s *Switch) set(paused bool) bool {
	s.inst.mu.Lock()
	defer s.inst.mu.Unlock()
	changed := s.inst.paused != paused
	s.inst.paused = paused
	return changed
}

// SetMetadata replaces the maintainer and metadata URL.
func (s *Switch) SetMetadata(maintainer, url string) {
	s.inst.mu.Lock()
	defer s.inst.mu.Unlock()
	s.inst.maintainer = maintainer
	s.inst.metadataURL = url
}
