package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/StrathCole/chainlink-oracle-go/pkg/config"
	"github.com/StrathCole/chainlink-oracle-go/pkg/events"
	"github.com/StrathCole/chainlink-oracle-go/pkg/factory"
	"github.com/StrathCole/chainlink-oracle-go/pkg/feeds"
	"github.com/StrathCole/chainlink-oracle-go/pkg/feeds/evm"
	"github.com/StrathCole/chainlink-oracle-go/pkg/logging"
	"github.com/StrathCole/chainlink-oracle-go/pkg/symbol"
)

// connectEVM dials the RPC endpoint, checks the chain id and installs the chainlink feed kind.
func connectEVM(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*ethclient.Client, error) {
	dialCtx, cancel := context.WithTimeout(ctx, cfg.EVM.Timeout.ToDuration())
	defer cancel()

	client, err := evm.Dial(dialCtx, cfg.EVM.RPCURL)
	if err != nil {
		return nil, err
	}

	if cfg.EVM.ChainID != 0 {
		chainID, err := client.ChainID(dialCtx)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to read chain id: %w", err)
		}
		if chainID.Uint64() != cfg.EVM.ChainID {
			client.Close()
			return nil, fmt.Errorf("chain id mismatch: endpoint reports %s, config expects %d", chainID, cfg.EVM.ChainID)
		}
	}

	evm.Register(client)
	logger.Info("Connected to EVM endpoint", "chain_id", cfg.EVM.ChainID)
	return client, nil
}

// buildRegistry binds every configured feed, acting as the configured owner.
func buildRegistry(ctx context.Context, cfg *config.Config, sink events.Sink, logger *logging.Logger) (*feeds.Registry, error) {
	owner := cfg.OwnerAddress()
	registry := feeds.NewRegistry(owner, sink, logger)

	for i := range cfg.Feeds {
		fc := &cfg.Feeds[i]
		base, err := symbol.FromString(strings.TrimSpace(fc.Base))
		if err != nil {
			return nil, fmt.Errorf("feed %d: %w", i, err)
		}
		quote, err := symbol.FromString(strings.TrimSpace(fc.Quote))
		if err != nil {
			return nil, fmt.Errorf("feed %d: %w", i, err)
		}

		agg, err := feeds.NewAggregator(fc.Kind, fc.AggregatorConfig())
		if err != nil {
			return nil, fmt.Errorf("feed %d (%s/%s): %w", i, fc.Base, fc.Quote, err)
		}

		if fc.HasScales() {
			err = registry.Register(owner, base, quote, agg, *fc.ScaleBase, *fc.ScaleQuote)
		} else {
			readCtx, cancel := context.WithTimeout(ctx, cfg.EVM.Timeout.ToDuration())
			err = registry.RegisterFromFeed(readCtx, owner, base, quote, agg)
			cancel()
		}
		if err != nil {
			return nil, fmt.Errorf("feed %d (%s/%s): %w", i, fc.Base, fc.Quote, err)
		}
	}

	codes := make([]string, 0, len(cfg.Multipliers))
	for code := range cfg.Multipliers {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		sym, err := symbol.FromString(strings.TrimSpace(code))
		if err != nil {
			return nil, fmt.Errorf("multiplier %q: %w", code, err)
		}
		if err := registry.SetMultiplier(owner, sym, cfg.Multipliers[code]); err != nil {
			return nil, fmt.Errorf("multiplier %q: %w", code, err)
		}
	}

	return registry, nil
}

// buildFactories creates every configured factory and its oracles.
func buildFactories(ctx context.Context, cfg *config.Config, registry *feeds.Registry, sink events.Sink, logger *logging.Logger) ([]*factory.Factory, error) {
	owner := cfg.OwnerAddress()
	out := make([]*factory.Factory, 0, len(cfg.Factories))

	for _, fc := range cfg.Factories {
		f, err := factory.New(factory.Config{
			Name:         fc.Name,
			Owner:        owner,
			BaseSymbol:   fc.BaseSymbol,
			BaseDecimals: fc.BaseDecimals,
			Sink:         sink,
			Logger:       logger,
		})
		if err != nil {
			return nil, fmt.Errorf("factory %s: %w", fc.Name, err)
		}

		if pauser := cfg.PauserAddress(); pauser != (common.Address{}) {
			if err := f.SetPauser(owner, pauser); err != nil {
				return nil, fmt.Errorf("factory %s: %w", fc.Name, err)
			}
		}

		for _, oc := range fc.Oracles {
			path, err := symbol.NewPath(oc.Path...)
			if err != nil {
				return nil, fmt.Errorf("factory %s oracle %s: %w", fc.Name, oc.Symbol, err)
			}
			var ref common.Address
			if oc.MetadataRef != "" {
				ref = common.HexToAddress(oc.MetadataRef)
			}

			readCtx, cancel := context.WithTimeout(ctx, cfg.EVM.Timeout.ToDuration())
			_, err = f.NewOracle(readCtx, owner, factory.OracleSpec{
				Registry:    registry,
				Symbol:      oc.Symbol,
				Name:        oc.Name,
				Decimals:    oc.Decimals,
				MetadataRef: ref,
				Maintainer:  oc.Maintainer,
				MetadataURL: oc.Metadata,
				Path:        path,
			})
			cancel()
			if err != nil {
				return nil, fmt.Errorf("factory %s oracle %s: %w", fc.Name, oc.Symbol, err)
			}
		}

		out = append(out, f)
	}

	return out, nil
}
