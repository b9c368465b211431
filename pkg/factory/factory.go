package factory

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/StrathCole/chainlink-oracle-go/pkg/access"
	"github.com/StrathCole/chainlink-oracle-go/pkg/composer"
	"github.com/StrathCole/chainlink-oracle-go/pkg/events"
	"github.com/StrathCole/chainlink-oracle-go/pkg/fixed"
	"github.com/StrathCole/chainlink-oracle-go/pkg/logging"
	"github.com/StrathCole/chainlink-oracle-go/pkg/oracle"
	"github.com/StrathCole/chainlink-oracle-go/pkg/symbol"
)

// Config holds factory construction parameters.
type Config struct {
	// Name identifies the factory in events and logs. Defaults to BaseSymbol.
	Name         string
	Owner        common.Address
	BaseSymbol   string
	BaseDecimals uint8
	Sink         events.Sink
	Logger       *logging.Logger
}

// OracleSpec describes an oracle to create.
type OracleSpec struct {
	Registry    composer.HopSource
	Symbol      string
	Name        string
	Decimals    uint8
	MetadataRef common.Address
	Maintainer  string
	MetadataURL string
	Path        symbol.Path
}

// Factory creates oracles that share a base currency and a global pause flag.
type Factory struct {
	*access.Ownable

	name         string
	baseSymbol   string
	baseDecimals uint8
	baseUnits    *big.Int

	mu       sync.RWMutex
	paused   bool
	pauser   common.Address
	bySymbol map[string]*oracle.Instance
	switches map[*oracle.Instance]*oracle.Switch

	sink   events.Sink
	logger *logging.Logger
}

// Ensure Factory gates its oracles.
var _ oracle.Gate = (*Factory)(nil)

// New creates a factory.
func New(cfg Config) (*Factory, error) {
	if _, err := symbol.FromString(cfg.BaseSymbol); err != nil {
		return nil, fmt.Errorf("base symbol: %w", err)
	}
	name := cfg.Name
	if name == "" {
		name = cfg.BaseSymbol
	}
	sink := cfg.Sink
	if sink == nil {
		sink = events.Discard
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNoopLogger()
	}

	return &Factory{
		Ownable:      access.NewOwnable(cfg.Owner),
		name:         name,
		baseSymbol:   cfg.BaseSymbol,
		baseDecimals: cfg.BaseDecimals,
		baseUnits:    fixed.Pow10(uint(cfg.BaseDecimals)),
		bySymbol:     make(map[string]*oracle.Instance),
		switches:     make(map[*oracle.Instance]*oracle.Switch),
		sink:         sink,
		logger:       logger.With("component", "oracle_factory", "factory", name),
	}, nil
}

// NewOracle creates an oracle over spec.Path and indexes it by spec.Symbol, replacing
// any previous index entry. The path must resolve at creation time.
func (f *Factory) NewOracle(ctx context.Context, caller common.Address, spec OracleSpec) (*oracle.Instance, error) {
	if err := f.OnlyOwner(caller); err != nil {
		return nil, err
	}
	if spec.Registry == nil {
		return nil, ErrNoRegistry
	}
	if err := spec.Path.Validate(); err != nil {
		return nil, err
	}

	rate, err := composer.New(spec.Registry).Rate(ctx, spec.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve path %s: %w", spec.Path, err)
	}

	inst, sw, err := oracle.New(oracle.Config{
		Symbol:      spec.Symbol,
		Name:        spec.Name,
		Decimals:    spec.Decimals,
		Maintainer:  spec.Maintainer,
		MetadataRef: spec.MetadataRef,
		MetadataURL: spec.MetadataURL,
		Path:        spec.Path,
		BaseUnits:   f.baseUnits,
		Source:      spec.Registry,
		Gate:        f,
		Logger:      f.logger,
	})
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if prev, ok := f.bySymbol[spec.Symbol]; ok {
		f.logger.Warn("Replacing oracle index entry", "symbol", spec.Symbol, "previous_path", prev.Path().String())
	}
	f.bySymbol[spec.Symbol] = inst
	f.switches[inst] = sw

	f.sink.Emit(events.OracleCreated(f.name, spec.Symbol, spec.Path, spec.Decimals))
	f.logger.Info("Created oracle",
		"symbol", spec.Symbol,
		"path", spec.Path.String(),
		"decimals", spec.Decimals,
		"rate", rate.String())
	return inst, nil
}

// Pause sets the factory-wide pause flag.
func (f *Factory) Pause(caller common.Address) error {
	return f.setPaused(caller, true)
}

// Start clears the factory-wide pause flag.
func (f *Factory) Start(caller common.Address) error {
	return f.setPaused(caller, false)
}

func (f *Factory) setPaused(caller common.Address, paused bool) error {
	if err := f.OnlyOwner(caller); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = paused

	f.sink.Emit(events.FactoryToggled(f.name, paused))
	f.logger.Info("Factory pause flag changed", "paused", paused)
	return nil
}

// PauseOracle sets o's own pause flag. Caller must be the owner or the pauser.
func (f *Factory) PauseOracle(caller common.Address, o *oracle.Instance) error {
	return f.setOraclePaused(caller, o, true)
}

// StartOracle clears o's own pause flag. Caller must be the owner or the pauser.
func (f *Factory) StartOracle(caller common.Address, o *oracle.Instance) error {
	return f.setOraclePaused(caller, o, false)
}

func (f *Factory) setOraclePaused(caller common.Address, o *oracle.Instance, paused bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.IsOwner(caller) && (f.pauser == (common.Address{}) || caller != f.pauser) {
		return fmt.Errorf("%w: %s", ErrNotAuthorizedToPause, caller.Hex())
	}
	sw, ok := f.switches[o]
	if !ok {
		return ErrUnknownOracle
	}

	if paused {
		sw.Pause()
	} else {
		sw.Start()
	}

	f.sink.Emit(events.OracleToggled(f.name, o.Symbol(), caller, paused))
	f.logger.Info("Oracle pause flag changed", "symbol", o.Symbol(), "paused", paused, "caller", caller.Hex())
	return nil
}

// SetPauser designates the account allowed to pause and start individual oracles.
// The zero address clears the role.
func (f *Factory) SetPauser(caller, pauser common.Address) error {
	if err := f.OnlyOwner(caller); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauser = pauser

	f.sink.Emit(events.PauserSet(f.name, pauser))
	f.logger.Info("Pauser set", "pauser", pauser.Hex())
	return nil
}

// SetMetadata replaces the maintainer and metadata URL of o.
func (f *Factory) SetMetadata(caller common.Address, o *oracle.Instance, maintainer, url string) error {
	if err := f.OnlyOwner(caller); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	sw, ok := f.switches[o]
	if !ok {
		return ErrUnknownOracle
	}
	sw.SetMetadata(maintainer, url)

	f.sink.Emit(events.MetadataUpdated(f.name, o.Symbol(), maintainer, url))
	return nil
}

// Oracle returns the oracle indexed under sym.
func (f *Factory) Oracle(sym string) (*oracle.Instance, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	o, ok := f.bySymbol[sym]
	return o, ok
}

// Oracles returns the indexed oracles ordered by symbol.
func (f *Factory) Oracles() []*oracle.Instance {
	f.mu.RLock()
	out := make([]*oracle.Instance, 0, len(f.bySymbol))
	for _, o := range f.bySymbol {
		out = append(out, o)
	}
	f.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol() < out[j].Symbol() })
	return out
}

// Paused reports the factory-wide pause flag.
func (f *Factory) Paused() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.paused
}

// Pauser returns the pauser account.
func (f *Factory) Pauser() common.Address {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.pauser
}

// Name returns the factory name.
func (f *Factory) Name() string { return f.name }

// BaseSymbol returns the base currency code.
func (f *Factory) BaseSymbol() string { return f.baseSymbol }

// BaseDecimals returns the base currency precision.
func (f *Factory) BaseDecimals() uint8 { return f.baseDecimals }

// BaseUnits returns 10^BaseDecimals.
func (f *Factory) BaseUnits() *big.Int { return new(big.Int).Set(f.baseUnits) }
