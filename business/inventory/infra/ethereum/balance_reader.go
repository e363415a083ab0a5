// Package ethereum implements the BalanceReader interface over an Ethereum
// RPC endpoint.
package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/vaultscope/business/inventory/app"
	"github.com/fd1az/vaultscope/internal/apperror"
	"github.com/fd1az/vaultscope/internal/circuitbreaker"
	"github.com/fd1az/vaultscope/internal/logger"
)

const tracerName = "ethereum"

// erc20ABI is the minimal ABI needed for balance reads.
const erc20ABI = `[{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"}]`

// Ensure BalanceReader implements the port.
var _ app.BalanceReader = (*BalanceReader)(nil)

// BalanceReader reads ERC20 balances through eth_call.
type BalanceReader struct {
	client *ethclient.Client
	abi    abi.ABI
	logger logger.LoggerInterface

	cb     *circuitbreaker.CircuitBreaker[[]byte]
	tracer trace.Tracer
}

// NewBalanceReader creates a balance reader over an RPC client.
func NewBalanceReader(client *ethclient.Client, log logger.LoggerInterface) (*BalanceReader, error) {
	parsedABI, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}

	return &BalanceReader{
		client: client,
		abi:    parsedABI,
		logger: log,
		cb:     circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("eth-balance")),
		tracer: otel.Tracer(tracerName),
	}, nil
}

// BalanceOf returns holder's balance of token in the smallest unit.
func (r *BalanceReader) BalanceOf(ctx context.Context, token, holder common.Address) (*big.Int, error) {
	ctx, span := r.tracer.Start(ctx, "ethereum.balance_of",
		trace.WithAttributes(
			attribute.String("token", token.Hex()),
			attribute.String("holder", holder.Hex()),
		),
	)
	defer span.End()

	input, err := r.abi.Pack("balanceOf", holder)
	if err != nil {
		return nil, apperror.Internal(apperror.CodeContractCallFailed, token.Hex(), err)
	}

	output, err := r.cb.Execute(func() ([]byte, error) {
		return r.client.CallContract(ctx, ethereum.CallMsg{
			To:   &token,
			Data: input,
		}, nil)
	})
	if err != nil {
		span.RecordError(err)
		if r.cb.IsOpen() {
			return nil, apperror.External(apperror.CodeCircuitOpen, token.Hex(), err)
		}
		return nil, apperror.External(apperror.CodeContractCallFailed, token.Hex(), err)
	}

	results, err := r.abi.Unpack("balanceOf", output)
	if err != nil || len(results) != 1 {
		return nil, apperror.Internal(apperror.CodeContractCallFailed, token.Hex(), err)
	}
	balance, ok := results[0].(*big.Int)
	if !ok {
		return nil, apperror.Internal(apperror.CodeContractCallFailed, token.Hex(),
			fmt.Errorf("unexpected balanceOf result type %T", results[0]))
	}
	return balance, nil
}
