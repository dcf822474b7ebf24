package ethapi

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/zkforge/zkforge/core/dualvm"
)

// DefaultGasPerPubdata is the nominal per-byte publication gas limit used
// when no estimate is requested; read-only calls never pay for pubdata but
// the field must be non-zero on the wire.
const DefaultGasPerPubdata = 50_000

// ErrInvalidExtensionField is returned when the VM-specific extension of a
// transaction request is malformed. It is surfaced at request-construction
// time, never silently defaulted.
var ErrInvalidExtensionField = errors.New("invalid zk transaction extension field")

// TransactionArgs is the generic transaction request the adapter augments.
// Field shapes follow the JSON-RPC wire format.
type TransactionArgs struct {
	From                 *common.Address `json:"from"`
	To                   *common.Address `json:"to"`
	Gas                  *hexutil.Uint64 `json:"gas"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas"`
	Value                *hexutil.Big    `json:"value"`
	Nonce                *hexutil.Uint64 `json:"nonce"`
	Data                 *hexutil.Bytes  `json:"data"`
}

// ZkTransactionOpts are the VM-specific extension fields of a transaction
// request. Absence of every field means the request is not a zk transaction.
type ZkTransactionOpts struct {
	Paymaster       *common.Address `json:"paymaster,omitempty"`
	PaymasterInput  hexutil.Bytes   `json:"paymasterInput,omitempty"`
	CustomSignature hexutil.Bytes   `json:"customSignature,omitempty"`
	FactoryDeps     []hexutil.Bytes `json:"factoryDeps,omitempty"`
	GasPerPubdata   *hexutil.Big    `json:"gasPerPubdata,omitempty"`
}

// IsZkTransaction reports whether any extension field is present.
func (o *ZkTransactionOpts) IsZkTransaction() bool {
	return o.Paymaster != nil || len(o.PaymasterInput) > 0 ||
		len(o.CustomSignature) > 0 || len(o.FactoryDeps) > 0 || o.GasPerPubdata != nil
}

// Validate checks the extension invariants. Paymaster address and paymaster
// input are only meaningful together: an address without input cannot be
// encoded, and input without an address has no payer.
func (o *ZkTransactionOpts) Validate() error {
	if o.Paymaster != nil && len(o.PaymasterInput) == 0 {
		return fmt.Errorf("paymaster address given without paymaster input: %w", ErrInvalidExtensionField)
	}
	if o.Paymaster == nil && len(o.PaymasterInput) > 0 {
		return fmt.Errorf("paymaster input given without paymaster address: %w", ErrInvalidExtensionField)
	}
	if o.GasPerPubdata != nil && o.GasPerPubdata.ToInt().Sign() <= 0 {
		return fmt.Errorf("gas per pubdata must be positive: %w", ErrInvalidExtensionField)
	}
	return nil
}

// Fee is the result of fee estimation against the target VM.
type Fee struct {
	GasLimit             hexutil.Uint64 `json:"gas_limit"`
	MaxFeePerGas         hexutil.Big    `json:"max_fee_per_gas"`
	MaxPriorityFeePerGas hexutil.Big    `json:"max_priority_fee_per_gas"`
	GasPerPubdataLimit   hexutil.Big    `json:"gas_per_pubdata_limit"`
}

// FeeEstimator queries fee estimation for a draft transaction. Estimation
// failures propagate unchanged; retry policy belongs to the implementation's
// transport, not to the adapter.
type FeeEstimator interface {
	EstimateFee(ctx context.Context, tx *ZkTransaction) (*Fee, error)
}

// CallKind distinguishes state-mutating submissions from read-only calls.
type CallKind byte

const (
	// CallExecute is a state-mutating submission; fee fields are estimated.
	CallExecute CallKind = iota
	// CallReadOnly is an eth_call style read; fee fields are irrelevant.
	CallReadOnly
)

// ZkTransaction is a fully-specified VM transaction produced by the adapter.
type ZkTransaction struct {
	Args TransactionArgs
	Opts ZkTransactionOpts
	Fee  *Fee
}

// AdaptTransaction augments a generic transaction request with the VM
// extension and fills the fee fields.
//
// Deploying requests (nil To) are rewritten to call the deployer system
// contract: the zkVM exposes creation as an ABI call rather than an
// init-code transaction, so the declared constructor encoding is swapped for
// the canonical create entry point. The contract's zk bytecode rides along as
// the first factory dependency and the original Data is passed through as the
// constructor input.
func AdaptTransaction(ctx context.Context, args TransactionArgs, opts ZkTransactionOpts, kind CallKind, estimator FeeEstimator) (*ZkTransaction, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	tx := &ZkTransaction{Args: args, Opts: opts}

	if args.To == nil {
		if len(opts.FactoryDeps) == 0 {
			return nil, fmt.Errorf("deployment requires the contract bytecode as a factory dependency: %w", ErrInvalidExtensionField)
		}
		var input []byte
		if args.Data != nil {
			input = *args.Data
		}
		bytecodeHash := dualvm.HashZkBytecode(opts.FactoryDeps[0])
		calldata, err := dualvm.ContractDeployerABI().Pack("create", [32]byte{}, [32]byte(bytecodeHash), input)
		if err != nil {
			return nil, fmt.Errorf("encoding deployer call: %w", err)
		}
		deployer := dualvm.ContractDeployerAddress
		tx.Args.To = &deployer
		data := hexutil.Bytes(calldata)
		tx.Args.Data = &data
	}

	if kind == CallReadOnly {
		tx.Fee = &Fee{GasPerPubdataLimit: (hexutil.Big)(*big.NewInt(DefaultGasPerPubdata))}
		return tx, nil
	}

	fee, err := estimator.EstimateFee(ctx, tx)
	if err != nil {
		return nil, err
	}
	if fee.GasPerPubdataLimit.ToInt().Sign() == 0 {
		gpp := big.NewInt(DefaultGasPerPubdata)
		if opts.GasPerPubdata != nil {
			gpp = opts.GasPerPubdata.ToInt()
		}
		fee.GasPerPubdataLimit = (hexutil.Big)(*gpp)
	}
	tx.Fee = fee
	tx.Args.Gas = &fee.GasLimit
	tx.Args.MaxFeePerGas = &fee.MaxFeePerGas
	tx.Args.MaxPriorityFeePerGas = &fee.MaxPriorityFeePerGas
	return tx, nil
}
