package deposit

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"ping-onramp/config"
)

// ERC20 balanceOf function ABI
const erc20BalanceOfABI = `[{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"}]`

// EVMReader reads the deposit balance on an EVM-compatible chain: the
// native balance, or an ERC-20 balance when a token contract is given.
type EVMReader struct {
	client  *ethclient.Client
	account common.Address
	token   *common.Address
	abi     abi.ABI
}

// NewEVMReader connects to the network RPC and binds the reader to one
// account and optional token contract.
func NewEVMReader(network config.EVMNetwork, account, tokenContract string) (*EVMReader, error) {
	if network.RPCUrl == "" {
		return nil, fmt.Errorf("RPC URL not configured: %w", ErrMisconfigured)
	}
	if !common.IsHexAddress(account) {
		return nil, fmt.Errorf("invalid deposit account address %q: %w", account, ErrMisconfigured)
	}

	client, err := ethclient.Dial(network.RPCUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}

	parsedABI, err := abi.JSON(strings.NewReader(erc20BalanceOfABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}

	reader := &EVMReader{
		client:  client,
		account: common.HexToAddress(account),
		abi:     parsedABI,
	}

	if tokenContract != "" {
		if !common.IsHexAddress(tokenContract) {
			return nil, fmt.Errorf("invalid token contract address %q: %w", tokenContract, ErrMisconfigured)
		}
		addr := common.HexToAddress(tokenContract)
		reader.token = &addr
	}

	return reader, nil
}

// Balance implements BalanceReader.
func (r *EVMReader) Balance(ctx context.Context) (*big.Int, error) {
	if r.token == nil {
		balance, err := r.client.BalanceAt(ctx, r.account, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to get balance: %w", err)
		}
		return balance, nil
	}

	data, err := r.abi.Pack("balanceOf", r.account)
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf data: %w", err)
	}

	msg := ethereum.CallMsg{
		To:   r.token,
		Data: data,
	}

	result, err := r.client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call balanceOf: %w", err)
	}

	return new(big.Int).SetBytes(result), nil
}

// Close closes the client connection
func (r *EVMReader) Close() {
	if r.client != nil {
		r.client.Close()
	}
}
