package ethapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"

	"github.com/zkforge/zkforge/core/dualvm"
	"github.com/zkforge/zkforge/internal/ethapi"
)

type fakeEstimator struct {
	fee *ethapi.Fee
	err error

	called int
}

func (f *fakeEstimator) EstimateFee(_ context.Context, _ *ethapi.ZkTransaction) (*ethapi.Fee, error) {
	f.called++
	if f.err != nil {
		return nil, f.err
	}
	fee := *f.fee
	return &fee, nil
}

func addrPtr(a common.Address) *common.Address { return &a }

func TestZkTransactionOptsValidate(t *testing.T) {
	paymaster := common.HexToAddress("0x00000000000000000000000000000000000000fe")

	tests := []struct {
		name     string
		opts     ethapi.ZkTransactionOpts
		mustFail bool
	}{
		{"Empty", ethapi.ZkTransactionOpts{}, false},
		{"PaymasterOnly", ethapi.ZkTransactionOpts{Paymaster: &paymaster}, true},
		{"PaymasterInputOnly", ethapi.ZkTransactionOpts{PaymasterInput: hexutil.Bytes{0x01}}, true},
		{"PaymasterPair", ethapi.ZkTransactionOpts{Paymaster: &paymaster, PaymasterInput: hexutil.Bytes{0x01, 0x02}}, false},
		{"ZeroGasPerPubdata", ethapi.ZkTransactionOpts{GasPerPubdata: (*hexutil.Big)(big.NewInt(0))}, true},
		{"SignatureOnly", ethapi.ZkTransactionOpts{CustomSignature: hexutil.Bytes{0xAA}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.mustFail {
				require.ErrorIs(t, err, ethapi.ErrInvalidExtensionField)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestZkTransactionOptsJSON(t *testing.T) {
	input := `{"paymaster":"0x00000000000000000000000000000000000000fe","paymasterInput":"0x0102","factoryDeps":["0xdead"],"gasPerPubdata":"0xc350"}`
	var opts ethapi.ZkTransactionOpts
	require.NoError(t, json.Unmarshal([]byte(input), &opts))
	require.True(t, opts.IsZkTransaction())
	require.NoError(t, opts.Validate())
	require.Equal(t, hexutil.Bytes{0xde, 0xad}, opts.FactoryDeps[0])
	require.Equal(t, int64(50000), opts.GasPerPubdata.ToInt().Int64())

	// Malformed hex surfaces at construction, never defaulted.
	require.Error(t, json.Unmarshal([]byte(`{"paymasterInput":"0xzz"}`), &opts))
}

func TestAdaptTransactionEstimatesFees(t *testing.T) {
	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	est := &fakeEstimator{fee: &ethapi.Fee{
		GasLimit:             1_000_000,
		MaxFeePerGas:         (hexutil.Big)(*big.NewInt(250_000_000)),
		MaxPriorityFeePerGas: (hexutil.Big)(*big.NewInt(0)),
	}}

	args := ethapi.TransactionArgs{
		To:    &to,
		Value: (*hexutil.Big)(big.NewInt(1)),
	}
	tx, err := ethapi.AdaptTransaction(context.Background(), args, ethapi.ZkTransactionOpts{}, ethapi.CallExecute, est)
	require.NoError(t, err)
	require.Equal(t, 1, est.called)
	require.Equal(t, hexutil.Uint64(1_000_000), *tx.Args.Gas)
	require.Equal(t, int64(250_000_000), tx.Args.MaxFeePerGas.ToInt().Int64())
	// The estimator left gas-per-pubdata unset, so the default applies.
	require.Equal(t, int64(ethapi.DefaultGasPerPubdata), tx.Fee.GasPerPubdataLimit.ToInt().Int64())
}

func TestAdaptTransactionReadOnly(t *testing.T) {
	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	est := &fakeEstimator{err: errors.New("must not be called")}

	tx, err := ethapi.AdaptTransaction(context.Background(), ethapi.TransactionArgs{To: &to}, ethapi.ZkTransactionOpts{}, ethapi.CallReadOnly, est)
	require.NoError(t, err)
	require.Zero(t, est.called, "read-only calls never hit fee estimation")
	require.NotZero(t, tx.Fee.GasPerPubdataLimit.ToInt().Sign(), "placeholder must be non-zero")
	require.Nil(t, tx.Args.Gas)
}

func TestAdaptTransactionEstimationFailurePropagates(t *testing.T) {
	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	boom := errors.New("connection refused")
	est := &fakeEstimator{err: boom}

	_, err := ethapi.AdaptTransaction(context.Background(), ethapi.TransactionArgs{To: &to}, ethapi.ZkTransactionOpts{}, ethapi.CallExecute, est)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, est.called, "no internal retry")
}

func TestAdaptTransactionRejectsHalfPaymaster(t *testing.T) {
	paymaster := common.HexToAddress("0x00000000000000000000000000000000000000fe")
	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	opts := ethapi.ZkTransactionOpts{Paymaster: &paymaster}

	_, err := ethapi.AdaptTransaction(context.Background(), ethapi.TransactionArgs{To: &to}, opts, ethapi.CallExecute, &fakeEstimator{})
	require.ErrorIs(t, err, ethapi.ErrInvalidExtensionField)
}

func TestAdaptTransactionRewritesDeploy(t *testing.T) {
	bytecode := hexutil.Bytes{0x60, 0x80, 0x60, 0x40}
	ctorArgs := hexutil.Bytes{0x00, 0x2A}
	est := &fakeEstimator{fee: &ethapi.Fee{GasLimit: 2_000_000}}

	args := ethapi.TransactionArgs{Data: &ctorArgs} // nil To: deployment
	opts := ethapi.ZkTransactionOpts{FactoryDeps: []hexutil.Bytes{bytecode}}
	tx, err := ethapi.AdaptTransaction(context.Background(), args, opts, ethapi.CallExecute, est)
	require.NoError(t, err)

	// The call now targets the deployer system contract through its canonical
	// create entry point instead of the declared constructor.
	require.Equal(t, dualvm.ContractDeployerAddress, *tx.Args.To)
	sig, ok := dualvm.DecodeSystemCall(*tx.Args.Data)
	require.True(t, ok)
	require.Equal(t, "create(bytes32,bytes32,bytes)", sig)

	deployerABI := dualvm.ContractDeployerABI()
	method, err := deployerABI.MethodById((*tx.Args.Data)[:4])
	require.NoError(t, err)
	unpacked, err := method.Inputs.Unpack((*tx.Args.Data)[4:])
	require.NoError(t, err)
	require.Equal(t, [32]byte(dualvm.HashZkBytecode(bytecode)), unpacked[1])
	require.Equal(t, []byte(ctorArgs), unpacked[2])

	// A deployment without the contract bytecode cannot be encoded.
	_, err = ethapi.AdaptTransaction(context.Background(), ethapi.TransactionArgs{}, ethapi.ZkTransactionOpts{}, ethapi.CallExecute, est)
	require.ErrorIs(t, err, ethapi.ErrInvalidExtensionField)
}
