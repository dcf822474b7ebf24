package dualvm

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

var mockTarget = common.HexToAddress("0x00000000000000000000000000000000000000aa")

func TestMockSpecificityWinsOverOrder(t *testing.T) {
	selector := []byte{0x11, 0x22, 0x33, 0x44}
	withArgs := append(append([]byte{}, selector...), 0x00, 0x00, 0x00, 0x01)

	// Register the generic mock first and the specific one second; then the
	// other way round. Resolution must not depend on registration order.
	orders := [][2][]byte{
		{selector, withArgs},
		{withArgs, selector},
	}
	for _, order := range orders {
		reg := NewMockRegistry()
		for _, calldata := range order {
			ret := MockCallReturn{ReturnData: append([]byte{}, calldata...)}
			require.NoError(t, reg.Register(mockTarget, MockCallDataContext{Calldata: calldata}, ret))
		}

		got, ok := reg.Match(mockTarget, withArgs, nil)
		require.True(t, ok)
		require.Equal(t, withArgs, got.ReturnData, "longest prefix must win")

		// A call matching only the selector falls back to the generic mock.
		other := append(append([]byte{}, selector...), 0xFF)
		got, ok = reg.Match(mockTarget, other, nil)
		require.True(t, ok)
		require.Equal(t, selector, got.ReturnData)
	}
}

func TestMockValueSpecificity(t *testing.T) {
	reg := NewMockRegistry()
	calldata := []byte{0xDE, 0xAD, 0xBE, 0xEF}

	anyValue := MockCallReturn{ReturnData: []byte{0x00}}
	oneWei := MockCallReturn{ReturnData: []byte{0x01}}
	require.NoError(t, reg.Register(mockTarget, MockCallDataContext{Calldata: calldata}, anyValue))
	require.NoError(t, reg.Register(mockTarget, MockCallDataContext{Calldata: calldata, Value: uint256.NewInt(1)}, oneWei))

	got, ok := reg.Match(mockTarget, calldata, uint256.NewInt(1))
	require.True(t, ok)
	require.Equal(t, oneWei.ReturnData, got.ReturnData, "specified value must beat wildcard")

	got, ok = reg.Match(mockTarget, calldata, uint256.NewInt(2))
	require.True(t, ok)
	require.Equal(t, anyValue.ReturnData, got.ReturnData, "non-matching value falls back to wildcard")

	// A nil incoming value is a zero-value call.
	got, ok = reg.Match(mockTarget, calldata, nil)
	require.True(t, ok)
	require.Equal(t, anyValue.ReturnData, got.ReturnData)
}

func TestMockDuplicateRegistration(t *testing.T) {
	reg := NewMockRegistry()
	ctx := MockCallDataContext{Calldata: []byte{0x01, 0x02}, Value: uint256.NewInt(5)}

	require.NoError(t, reg.Register(mockTarget, ctx, MockCallReturn{}))
	require.ErrorIs(t, reg.Register(mockTarget, ctx, MockCallReturn{Revert: true}), ErrDuplicateMock)

	// Same calldata with a different value is a distinct mock.
	other := MockCallDataContext{Calldata: []byte{0x01, 0x02}, Value: uint256.NewInt(6)}
	require.NoError(t, reg.Register(mockTarget, other, MockCallReturn{}))
	require.Equal(t, 2, reg.Len())
}

func TestMockAddressIsolationAndRemoval(t *testing.T) {
	reg := NewMockRegistry()
	other := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	calldata := []byte{0x01, 0x02, 0x03, 0x04}

	require.NoError(t, reg.Register(mockTarget, MockCallDataContext{Calldata: calldata}, MockCallReturn{Revert: true}))

	_, ok := reg.Match(other, calldata, nil)
	require.False(t, ok, "mocks must not leak across addresses")

	got, ok := reg.Match(mockTarget, calldata, nil)
	require.True(t, ok)
	require.True(t, got.Revert)

	reg.RemoveAll(mockTarget)
	_, ok = reg.Match(mockTarget, calldata, nil)
	require.False(t, ok)
}

func TestMockOrderingIsStrictWeak(t *testing.T) {
	a := &MockCallDataContext{Calldata: []byte{0x01, 0x02, 0x03}}
	b := &MockCallDataContext{Calldata: []byte{0x01, 0x02}}
	c := &MockCallDataContext{Calldata: []byte{0x01, 0x02}, Value: uint256.NewInt(1)}

	require.Negative(t, a.Compare(b), "longer calldata sorts first")
	require.Positive(t, b.Compare(a))
	require.Negative(t, c.Compare(b), "specified value sorts before wildcard")
	require.Zero(t, b.Compare(b))

	// Antisymmetry over a mixed set.
	set := []*MockCallDataContext{a, b, c}
	for _, x := range set {
		for _, y := range set {
			require.Equal(t, x.Compare(y), -y.Compare(x))
		}
	}
}
