package factory

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StrathCole/chainlink-oracle-go/pkg/access"
	"github.com/StrathCole/chainlink-oracle-go/pkg/composer"
	"github.com/StrathCole/chainlink-oracle-go/pkg/events"
	"github.com/StrathCole/chainlink-oracle-go/pkg/feeds"
	"github.com/StrathCole/chainlink-oracle-go/pkg/fixed"
	"github.com/StrathCole/chainlink-oracle-go/pkg/logging"
	"github.com/StrathCole/chainlink-oracle-go/pkg/oracle"
	"github.com/StrathCole/chainlink-oracle-go/pkg/symbol"
)

var (
	owner    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	pauser   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	stranger = common.HexToAddress("0x00000000000000000000000000000000000000c3")
)

func newMarket(t *testing.T) *feeds.Registry {
	t.Helper()
	reg := feeds.NewRegistry(owner, nil, logging.NewNoopLogger())
	for _, f := range []struct {
		base, quote, answer   string
		scaleBase, scaleQuote uint8
	}{
		{"RCN", "BTC", "5770000000000", 18, 18},
		{"BTC", "ARS", "1538461538000000000000000", 18, 18},
		{"USDC", "ETH", "2438295000000000", 18, 18},
		{"ETH", "USD", "4094400000", 18, 8},
		{"GBP", "USD", "131019000", 18, 8},
		{"BTC", "ETH", "29489572978791538000", 18, 18},
	} {
		agg := feeds.NewStaticAggregator(f.base+"/"+f.quote, f.scaleQuote)
		v, ok := new(big.Int).SetString(f.answer, 10)
		require.True(t, ok)
		agg.SetLatestAnswer(v)
		agg.SetLatestTimestamp(1598500000)
		require.NoError(t, reg.Register(owner, symbol.MustFromString(f.base), symbol.MustFromString(f.quote), agg, f.scaleBase, f.scaleQuote))
	}
	return reg
}

func newFactory(t *testing.T, base string, decimals uint8, sink events.Sink) *Factory {
	t.Helper()
	f, err := New(Config{
		Owner:        owner,
		BaseSymbol:   base,
		BaseDecimals: decimals,
		Sink:         sink,
		Logger:       logging.NewNoopLogger(),
	})
	require.NoError(t, err)
	return f
}

func TestNewOracle_ReadSample(t *testing.T) {
	reg := newMarket(t)
	rcnFactory := newFactory(t, "RCN", 18, nil)
	usdcFactory := newFactory(t, "USDC", 6, nil)

	tests := []struct {
		name     string
		factory  *Factory
		symbol   string
		display  string
		decimals uint8
		path     symbol.Path
	}{
		{"RCN factory to USDC", rcnFactory, "USDC", "Token USDC", 6, symbol.MustPath("RCN", "BTC", "ETH", "USDC")},
		{"RCN factory to ARS", rcnFactory, "ARS", "Argentine Peso", 2, symbol.MustPath("RCN", "BTC", "ARS")},
		{"USDC factory to RCN", usdcFactory, "RCN", "Token RCN", 18, symbol.MustPath("USDC", "ETH", "BTC", "RCN")},
		{"USDC factory to ARS", usdcFactory, "ARS", "Argentine Peso", 2, symbol.MustPath("USDC", "ETH", "BTC", "ARS")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			inst, err := tt.factory.NewOracle(ctx, owner, OracleSpec{
				Registry:   reg,
				Symbol:     tt.symbol,
				Name:       tt.display,
				Decimals:   tt.decimals,
				Maintainer: "RCN team",
				Path:       tt.path,
			})
			require.NoError(t, err)

			rate, err := composer.New(reg).Rate(ctx, tt.path)
			require.NoError(t, err)

			tokens, equivalent, err := inst.ReadSample(ctx, nil)
			require.NoError(t, err)

			assert.Equal(t, new(big.Int).Mul(rate.Value, fixed.Pow10(uint(tt.decimals))).String(), equivalent.String())
			assert.Equal(t, new(big.Int).Mul(tt.factory.BaseUnits(), fixed.Pow10(uint(rate.Decimals))).String(), tokens.String())
			assert.Equal(t, new(big.Int).Mul(tt.factory.BaseUnits(), reg.AddedDecimals(tt.path.Target())).String(), tokens.String())
			assert.Equal(t, tt.decimals, inst.Decimals())

			indexed, ok := tt.factory.Oracle(tt.symbol)
			require.True(t, ok)
			assert.Same(t, inst, indexed)
		})
	}

	assert.Equal(t, "1000000", usdcFactory.BaseUnits().String())
	assert.Equal(t, "USDC", usdcFactory.BaseSymbol())
	assert.Len(t, rcnFactory.Oracles(), 2)
}

func TestNewOracle_Failures(t *testing.T) {
	reg := newMarket(t)
	rec := &events.Recorder{}
	f := newFactory(t, "RCN", 18, rec)
	ctx := context.Background()

	spec := OracleSpec{Registry: reg, Symbol: "ARS", Decimals: 2, Path: symbol.MustPath("RCN", "BTC", "ARS")}

	_, err := f.NewOracle(ctx, stranger, spec)
	assert.ErrorIs(t, err, access.ErrUnauthorized)

	noRegistry := spec
	noRegistry.Registry = nil
	_, err = f.NewOracle(ctx, owner, noRegistry)
	assert.ErrorIs(t, err, ErrNoRegistry)

	short := spec
	short.Path = symbol.Path{symbol.MustFromString("RCN")}
	_, err = f.NewOracle(ctx, owner, short)
	assert.ErrorIs(t, err, symbol.ErrPathTooShort)

	loop := spec
	loop.Path = symbol.Path{symbol.MustFromString("RCN"), symbol.MustFromString("BTC"), symbol.MustFromString("RCN")}
	_, err = f.NewOracle(ctx, owner, loop)
	assert.ErrorIs(t, err, symbol.ErrDuplicateSymbol)

	unresolved := spec
	unresolved.Path = symbol.MustPath("RCN", "MANA")
	_, err = f.NewOracle(ctx, owner, unresolved)
	assert.ErrorIs(t, err, feeds.ErrPathNotResolved)

	assert.Empty(t, f.Oracles())
	assert.Zero(t, rec.Len())
}

func TestNewOracle_EmitsCreated(t *testing.T) {
	rec := &events.Recorder{}
	f := newFactory(t, "RCN", 18, rec)

	_, err := f.NewOracle(context.Background(), owner, OracleSpec{
		Registry: newMarket(t),
		Symbol:   "ARS",
		Decimals: 2,
		Path:     symbol.MustPath("RCN", "BTC", "ARS"),
	})
	require.NoError(t, err)

	require.Equal(t, 1, rec.Len())
	e, _ := rec.Last()
	assert.Equal(t, events.KindOracleCreated, e.Kind)
	assert.Equal(t, "RCN", e.Factory)
	assert.Equal(t, "ARS", e.Oracle)
	assert.Equal(t, []string{"RCN", "BTC", "ARS"}, e.Path)
	require.NotNil(t, e.Decimals)
	assert.EqualValues(t, 2, *e.Decimals)
}

func TestNewOracle_OverwritesIndex(t *testing.T) {
	reg := newMarket(t)
	f := newFactory(t, "USDC", 6, nil)
	ctx := context.Background()

	first, err := f.NewOracle(ctx, owner, OracleSpec{Registry: reg, Symbol: "BTC", Decimals: 8, Path: symbol.MustPath("USDC", "ETH", "BTC")})
	require.NoError(t, err)
	second, err := f.NewOracle(ctx, owner, OracleSpec{Registry: reg, Symbol: "BTC", Decimals: 18, Path: symbol.MustPath("USDC", "ETH", "BTC")})
	require.NoError(t, err)

	indexed, ok := f.Oracle("BTC")
	require.True(t, ok)
	assert.Same(t, second, indexed)
	assert.Len(t, f.Oracles(), 1)

	// the replaced instance is still controlled by the factory
	require.NoError(t, f.PauseOracle(owner, first))
	assert.True(t, first.Paused())
	assert.False(t, second.Paused())
}

func TestPause_AllOracles(t *testing.T) {
	reg := newMarket(t)
	rec := &events.Recorder{}
	f := newFactory(t, "USDC", 6, rec)
	ctx := context.Background()

	var instances []*oracle.Instance
	for _, p := range []symbol.Path{
		symbol.MustPath("USDC", "ETH"),
		symbol.MustPath("USDC", "ETH", "USD"),
		symbol.MustPath("USDC", "ETH", "USD", "GBP"),
		symbol.MustPath("USDC", "ETH", "BTC", "RCN"),
		symbol.MustPath("USDC", "ETH", "BTC", "ARS"),
	} {
		inst, err := f.NewOracle(ctx, owner, OracleSpec{Registry: reg, Symbol: p.Target().String(), Decimals: 18, Path: p})
		require.NoError(t, err)
		instances = append(instances, inst)
	}
	rec.Reset()

	assert.ErrorIs(t, f.Pause(stranger), access.ErrUnauthorized)
	assert.ErrorIs(t, f.Pause(pauser), access.ErrUnauthorized)
	assert.Zero(t, rec.Len())

	require.NoError(t, f.Pause(owner))
	assert.True(t, f.Paused())
	for _, inst := range instances {
		_, _, err := inst.ReadSample(ctx, nil)
		assert.ErrorIs(t, err, oracle.ErrPaused, inst.Symbol())
	}

	require.NoError(t, f.Start(owner))
	assert.False(t, f.Paused())
	for _, inst := range instances {
		_, _, err := inst.ReadSample(ctx, nil)
		assert.NoError(t, err, inst.Symbol())
	}

	kinds := []events.Kind{}
	for _, e := range rec.Events() {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []events.Kind{events.KindFactoryPaused, events.KindFactoryStarted}, kinds)
}

func TestPauseOracle_Authorization(t *testing.T) {
	reg := newMarket(t)
	rec := &events.Recorder{}
	f := newFactory(t, "RCN", 18, rec)
	ctx := context.Background()

	ars, err := f.NewOracle(ctx, owner, OracleSpec{Registry: reg, Symbol: "ARS", Decimals: 2, Path: symbol.MustPath("RCN", "BTC", "ARS")})
	require.NoError(t, err)
	usdc, err := f.NewOracle(ctx, owner, OracleSpec{Registry: reg, Symbol: "USDC", Decimals: 6, Path: symbol.MustPath("RCN", "BTC", "ETH", "USDC")})
	require.NoError(t, err)
	rec.Reset()

	assert.ErrorIs(t, f.PauseOracle(pauser, ars), ErrNotAuthorizedToPause)
	assert.ErrorIs(t, f.SetPauser(stranger, pauser), access.ErrUnauthorized)

	require.NoError(t, f.SetPauser(owner, pauser))
	assert.Equal(t, pauser, f.Pauser())

	require.NoError(t, f.PauseOracle(pauser, ars))
	assert.ErrorIs(t, f.PauseOracle(stranger, ars), ErrNotAuthorizedToPause)

	_, _, err = ars.ReadSample(ctx, nil)
	assert.ErrorIs(t, err, oracle.ErrPaused)
	_, _, err = usdc.ReadSample(ctx, nil)
	assert.NoError(t, err, "other oracles are unaffected")

	require.NoError(t, f.StartOracle(owner, ars))
	_, _, err = ars.ReadSample(ctx, nil)
	assert.NoError(t, err)

	require.NoError(t, f.SetPauser(owner, common.Address{}))
	assert.ErrorIs(t, f.StartOracle(pauser, ars), ErrNotAuthorizedToPause)

	kinds := []events.Kind{}
	for _, e := range rec.Events() {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []events.Kind{
		events.KindPauserSet,
		events.KindOraclePaused,
		events.KindOracleStarted,
		events.KindPauserSet,
	}, kinds)
}

func TestPauseOracle_Unknown(t *testing.T) {
	reg := newMarket(t)
	f := newFactory(t, "RCN", 18, nil)
	other := newFactory(t, "USDC", 6, nil)

	foreign, err := other.NewOracle(context.Background(), owner, OracleSpec{Registry: reg, Symbol: "ETH", Decimals: 18, Path: symbol.MustPath("USDC", "ETH")})
	require.NoError(t, err)

	assert.ErrorIs(t, f.PauseOracle(owner, foreign), ErrUnknownOracle)
	assert.ErrorIs(t, f.StartOracle(owner, nil), ErrUnknownOracle)
	assert.ErrorIs(t, f.SetMetadata(owner, foreign, "x", "y"), ErrUnknownOracle)
	assert.False(t, foreign.Paused())
}

func TestFactoryAndOraclePauseAreIndependent(t *testing.T) {
	reg := newMarket(t)
	f := newFactory(t, "RCN", 18, nil)
	ctx := context.Background()

	ars, err := f.NewOracle(ctx, owner, OracleSpec{Registry: reg, Symbol: "ARS", Decimals: 2, Path: symbol.MustPath("RCN", "BTC", "ARS")})
	require.NoError(t, err)

	require.NoError(t, f.PauseOracle(owner, ars))
	require.NoError(t, f.Pause(owner))
	require.NoError(t, f.Start(owner))

	_, _, err = ars.ReadSample(ctx, nil)
	assert.ErrorIs(t, err, oracle.ErrPaused, "starting the factory keeps the oracle's own flag")

	require.NoError(t, f.StartOracle(owner, ars))
	_, _, err = ars.ReadSample(ctx, nil)
	assert.NoError(t, err)
}

func TestSetMetadata(t *testing.T) {
	rec := &events.Recorder{}
	f := newFactory(t, "RCN", 18, rec)

	ars, err := f.NewOracle(context.Background(), owner, OracleSpec{
		Registry:   newMarket(t),
		Symbol:     "ARS",
		Decimals:   2,
		Maintainer: "RCN team",
		Path:       symbol.MustPath("RCN", "BTC", "ARS"),
	})
	require.NoError(t, err)

	assert.ErrorIs(t, f.SetMetadata(stranger, ars, "x", "y"), access.ErrUnauthorized)

	require.NoError(t, f.SetMetadata(owner, ars, "Ripio", "https://ripio.example/ars.json"))
	info := ars.Info()
	assert.Equal(t, "Ripio", info.Maintainer)
	assert.Equal(t, "https://ripio.example/ars.json", info.MetadataURL)

	e, _ := rec.Last()
	assert.Equal(t, events.KindMetadataUpdated, e.Kind)
	assert.Equal(t, "Ripio", e.Maintainer)
}

func TestNew_InvalidBaseSymbol(t *testing.T) {
	_, err := New(Config{Owner: owner, BaseSymbol: ""})
	assert.ErrorIs(t, err, symbol.ErrEmptySymbol)
}
