package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/StrathCole/chainlink-oracle-go/pkg/feeds"
	"github.com/StrathCole/chainlink-oracle-go/pkg/metrics"
)

// AggregatorV3 ABI (read-only subset).
const aggregatorABIJSON = `[
	{
		"inputs": [],
		"name": "latestRoundData",
		"outputs": [
			{"internalType": "uint80", "name": "roundId", "type": "uint80"},
			{"internalType": "int256", "name": "answer", "type": "int256"},
			{"internalType": "uint256", "name": "startedAt", "type": "uint256"},
			{"internalType": "uint256", "name": "updatedAt", "type": "uint256"},
			{"internalType": "uint80", "name": "answeredInRound", "type": "uint80"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "decimals",
		"outputs": [{"internalType": "uint8", "name": "", "type": "uint8"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "description",
		"outputs": [{"internalType": "string", "name": "", "type": "string"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

var aggregatorABI = mustParseABI(aggregatorABIJSON)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("parse aggregator ABI: %v", err))
	}
	return parsed
}

// RoundData is the decoded result of latestRoundData().
type RoundData struct {
	RoundID         *big.Int `abi:"roundId"`
	Answer          *big.Int `abi:"answer"`
	StartedAt       *big.Int `abi:"startedAt"`
	UpdatedAt       *big.Int `abi:"updatedAt"`
	AnsweredInRound *big.Int `abi:"answeredInRound"`
}

// ChainlinkAggregator reads an AggregatorV3 contract.
type ChainlinkAggregator struct {
	caller  ethereum.ContractCaller
	address common.Address

	mu          sync.Mutex
	decimals    uint8
	hasDecimals bool
}

// Ensure ChainlinkAggregator implements feeds.Aggregator.
var _ feeds.Aggregator = (*ChainlinkAggregator)(nil)

// NewChainlinkAggregator creates an aggregator reading the contract at address.
func NewChainlinkAggregator(caller ethereum.ContractCaller, address common.Address) (*ChainlinkAggregator, error) {
	if caller == nil {
		return nil, ErrClientRequired
	}
	if address == (common.Address{}) {
		return nil, ErrAddressRequired
	}
	return &ChainlinkAggregator{caller: caller, address: address}, nil
}

// Dial connects to an EVM JSON-RPC endpoint.
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	if rpcURL == "" {
		return nil, ErrRPCURLRequired
	}
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}
	return client, nil
}

// call packs method, calls the contract at the latest block and returns the raw output.
func (a *ChainlinkAggregator) call(ctx context.Context, method string) ([]byte, error) {
	data, err := aggregatorABI.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	result, err := a.caller.CallContract(ctx, ethereum.CallMsg{
		To:   &a.address,
		Data: data,
	}, nil)
	if err != nil {
		metrics.RecordAggregatorCall(a.address.Hex(), "error")
		return nil, fmt.Errorf("%w: %s on %s: %v", ErrCallFailed, method, a.address.Hex(), err)
	}
	metrics.RecordAggregatorCall(a.address.Hex(), "success")
	return result, nil
}

// LatestRoundData calls latestRoundData().
func (a *ChainlinkAggregator) LatestRoundData(ctx context.Context) (*RoundData, error) {
	result, err := a.call(ctx, "latestRoundData")
	if err != nil {
		return nil, err
	}

	var round RoundData
	if err := aggregatorABI.UnpackIntoInterface(&round, "latestRoundData", result); err != nil {
		return nil, fmt.Errorf("%w: latestRoundData: %v", ErrUnpack, err)
	}
	return &round, nil
}

// LatestAnswer implements feeds.Aggregator.
func (a *ChainlinkAggregator) LatestAnswer(ctx context.Context) (*big.Int, error) {
	round, err := a.LatestRoundData(ctx)
	if err != nil {
		return nil, err
	}
	return round.Answer, nil
}

// LatestTimestamp implements feeds.Aggregator.
func (a *ChainlinkAggregator) LatestTimestamp(ctx context.Context) (uint64, error) {
	round, err := a.LatestRoundData(ctx)
	if err != nil {
		return 0, err
	}
	if round.UpdatedAt == nil || !round.UpdatedAt.IsUint64() {
		return 0, fmt.Errorf("%w: updatedAt out of range", ErrUnpack)
	}
	return round.UpdatedAt.Uint64(), nil
}

// Decimals implements feeds.Aggregator. The value is read once and cached.
func (a *ChainlinkAggregator) Decimals(ctx context.Context) (uint8, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.hasDecimals {
		return a.decimals, nil
	}

	result, err := a.call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	out, err := aggregatorABI.Unpack("decimals", result)
	if err != nil || len(out) != 1 {
		return 0, fmt.Errorf("%w: decimals: %v", ErrUnpack, err)
	}
	decimals, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("%w: decimals is %T", ErrUnpack, out[0])
	}

	a.decimals = decimals
	a.hasDecimals = true
	return decimals, nil
}

// Description calls description().
func (a *ChainlinkAggregator) Description(ctx context.Context) (string, error) {
	result, err := a.call(ctx, "description")
	if err != nil {
		return "", err
	}
	out, err := aggregatorABI.Unpack("description", result)
	if err != nil || len(out) != 1 {
		return "", fmt.Errorf("%w: description: %v", ErrUnpack, err)
	}
	desc, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("%w: description is %T", ErrUnpack, out[0])
	}
	return desc, nil
}

// Address implements feeds.Aggregator.
func (a *ChainlinkAggregator) Address() common.Address {
	return a.address
}
