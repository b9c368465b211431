package events

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StrathCole/chainlink-oracle-go/pkg/logging"
	"github.com/StrathCole/chainlink-oracle-go/pkg/symbol"
)

func TestBindingRegistered_JSON(t *testing.T) {
	agg := common.HexToAddress("0x0000000000000000000000000000000000000abc")
	e := BindingRegistered(symbol.MustFromString("ETH"), symbol.MustFromString("USD"), agg, 18, 8)

	raw, err := json.Marshal(e)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "binding_registered", decoded["kind"])
	assert.Equal(t, "ETH", decoded["symbol_a"])
	assert.Equal(t, "USD", decoded["symbol_b"])
	assert.Equal(t, agg.Hex(), decoded["aggregator"])
	assert.EqualValues(t, 18, decoded["scale_a"])
	assert.EqualValues(t, 8, decoded["scale_b"])
	assert.NotContains(t, decoded, "oracle")
}

func TestBus_DeliversAndDrops(t *testing.T) {
	bus := NewBus(logging.NewNoopLogger())

	roomy := make(chan Event, 4)
	full := make(chan Event)
	bus.Subscribe(roomy)
	bus.Subscribe(full)

	bus.Emit(FactoryToggled("RCN", true))
	bus.Emit(FactoryToggled("RCN", false))

	require.Len(t, roomy, 2)
	assert.Equal(t, KindFactoryPaused, (<-roomy).Kind)
	assert.Equal(t, KindFactoryStarted, (<-roomy).Kind)

	bus.Unsubscribe(roomy)
	bus.Emit(PauserSet("RCN", common.Address{}))
	assert.Empty(t, roomy)
}

func TestRecorderAndMulti(t *testing.T) {
	var a, b Recorder
	sink := Multi(&a, nil, &b)

	sink.Emit(OracleCreated("RCN", "ARS", symbol.MustPath("RCN", "BTC", "ARS"), 2))
	sink.Emit(MetadataUpdated("RCN", "ARS", "RCN team", "https://rcn.example/ars.json"))

	assert.Equal(t, 2, a.Len())
	assert.Equal(t, 2, b.Len())

	last, ok := a.Last()
	require.True(t, ok)
	assert.Equal(t, KindMetadataUpdated, last.Kind)
	assert.Equal(t, "RCN team", last.Maintainer)
	assert.Equal(t, []string{"RCN", "BTC", "ARS"}, a.Events()[0].Path)

	a.Reset()
	_, ok = a.Last()
	assert.False(t, ok)
}

func TestOracleToggled(t *testing.T) {
	caller := common.HexToAddress("0x01")
	e := OracleToggled("USDC", "RCN", caller, true)
	assert.Equal(t, KindOraclePaused, e.Kind)
	assert.Equal(t, caller.Hex(), e.Account)
	assert.Equal(t, KindOracleStarted, OracleToggled("USDC", "RCN", caller, false).Kind)
}
