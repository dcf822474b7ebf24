// Package zkclient provides a typed wrapper over the zkVM node RPC surface
// the transaction adapter needs.
package zkclient

import (
	"context"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/zkforge/zkforge/internal/ethapi"
)

// Client defines typed wrappers for the zk node RPC API.
type Client struct {
	c *rpc.Client
}

// DialOptions creates a new RPC client for the given URL. You can supply any
// of the pre-defined client options to configure the underlying transport.
func DialOptions(ctx context.Context, rawurl string, opts ...rpc.ClientOption) (*Client, error) {
	c, err := rpc.DialOptions(ctx, rawurl, opts...)
	if err != nil {
		return nil, err
	}
	return NewClient(c), nil
}

// NewClient creates a client that uses the given RPC client.
func NewClient(c *rpc.Client) *Client {
	return &Client{c}
}

// Close closes the underlying RPC connection.
func (ec *Client) Close() {
	ec.c.Close()
}

// EstimateFee queries the node for the fee of a draft transaction. Errors are
// returned unchanged; the adapter does not retry.
func (ec *Client) EstimateFee(ctx context.Context, tx *ethapi.ZkTransaction) (*ethapi.Fee, error) {
	var fee ethapi.Fee
	if err := ec.c.CallContext(ctx, &fee, "zks_estimateFee", toCallArg(tx)); err != nil {
		return nil, err
	}
	return &fee, nil
}

func toCallArg(tx *ethapi.ZkTransaction) interface{} {
	arg := map[string]interface{}{
		"from": tx.Args.From,
		"to":   tx.Args.To,
	}
	if tx.Args.Data != nil {
		arg["data"] = *tx.Args.Data
	}
	if tx.Args.Value != nil {
		arg["value"] = *tx.Args.Value
	}
	if tx.Args.Nonce != nil {
		arg["nonce"] = *tx.Args.Nonce
	}

	meta := map[string]interface{}{}
	if tx.Opts.GasPerPubdata != nil {
		meta["gasPerPubdata"] = *tx.Opts.GasPerPubdata
	}
	if len(tx.Opts.FactoryDeps) > 0 {
		meta["factoryDeps"] = tx.Opts.FactoryDeps
	}
	if len(tx.Opts.CustomSignature) > 0 {
		meta["customSignature"] = tx.Opts.CustomSignature
	}
	if tx.Opts.Paymaster != nil {
		meta["paymasterParams"] = map[string]interface{}{
			"paymaster":      *tx.Opts.Paymaster,
			"paymasterInput": tx.Opts.PaymasterInput,
		}
	}
	if len(meta) > 0 {
		arg["eip712Meta"] = meta
	}
	return arg
}
