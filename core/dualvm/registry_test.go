package dualvm

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func testContract(name string, evmDeployed []byte) DualCompiledContract {
	return DualCompiledContract{
		Name:                name,
		ZkBytecodeHash:      HashZkBytecode([]byte(name)),
		ZkDeployedBytecode:  []byte(name),
		EvmBytecodeHash:     common.BytesToHash([]byte(name)),
		EvmDeployedBytecode: evmDeployed,
		EvmBytecode:         append([]byte{0x60, 0x80}, evmDeployed...),
	}
}

func TestRegistryFindByEvmBytecode(t *testing.T) {
	reg := NewContractRegistry()

	deployed := make([]byte, 32)
	deployed[0], deployed[1] = 0xAA, 0xBB
	counter := testContract("Counter", deployed)
	require.NoError(t, reg.Add(counter))
	require.NoError(t, reg.Add(testContract("Token", []byte{0xCC, 0xDD, 0xEE})))
	require.Equal(t, 2, reg.Len())

	// A probe carrying trailing constructor-appended metadata still resolves.
	probe := append(append([]byte{}, deployed...), 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08)
	found, ok := reg.FindByEvmBytecode(probe)
	require.True(t, ok)
	require.Equal(t, "Counter", found.Name)

	// Second probe goes through the memoized path.
	found, ok = reg.FindByEvmBytecode(probe)
	require.True(t, ok)
	require.Equal(t, "Counter", found.Name)

	// Unknown bytecode is absence, not an error.
	_, ok = reg.FindByEvmBytecode([]byte{0x01, 0x02})
	require.False(t, ok)
	_, ok = reg.FindByEvmBytecode([]byte{0x01, 0x02})
	require.False(t, ok)
}

func TestRegistryFindByZkBytecodeHash(t *testing.T) {
	reg := NewContractRegistry()
	counter := testContract("Counter", []byte{0xAA, 0xBB, 0xCC})
	require.NoError(t, reg.Add(counter))

	found, ok := reg.FindByZkBytecodeHash(counter.ZkBytecodeHash)
	require.True(t, ok)
	require.Equal(t, "Counter", found.Name)

	_, ok = reg.FindByZkBytecodeHash(common.HexToHash("0xdead"))
	require.False(t, ok)
}

func TestRegistryRejectsCollisions(t *testing.T) {
	reg := NewContractRegistry()
	require.NoError(t, reg.Add(testContract("A", []byte{0xAA, 0xBB, 0xCC})))

	// Same zk hash.
	dup := testContract("A", []byte{0x11, 0x22, 0x33})
	dup.Name = "B"
	dup.ZkBytecodeHash = HashZkBytecode([]byte("A"))
	require.ErrorIs(t, reg.Add(dup), ErrDuplicateBytecode)

	// New entry is a prefix of an existing one.
	require.ErrorIs(t, reg.Add(testContract("C", []byte{0xAA, 0xBB})), ErrDuplicateBytecode)

	// Existing entry is a prefix of the new one.
	require.ErrorIs(t, reg.Add(testContract("D", []byte{0xAA, 0xBB, 0xCC, 0xDD})), ErrDuplicateBytecode)

	// Empty deployed bytecode would match every probe.
	require.ErrorIs(t, reg.Add(testContract("E", nil)), ErrDuplicateBytecode)

	require.Equal(t, 1, reg.Len())
}

func TestHashZkBytecode(t *testing.T) {
	code := []byte{0x01, 0x02, 0x03}
	hash := HashZkBytecode(code)

	// Versioned header: version byte, zero byte, odd word count.
	require.Equal(t, byte(1), hash[0])
	require.Equal(t, byte(0), hash[1])
	require.Equal(t, byte(1), hash[3])

	// Deterministic, content-sensitive.
	require.Equal(t, hash, HashZkBytecode([]byte{0x01, 0x02, 0x03}))
	require.NotEqual(t, hash, HashZkBytecode([]byte{0x01, 0x02, 0x04}))

	// 32 bytes pad to one word, 33 bytes need three (next odd count).
	require.Equal(t, byte(1), HashZkBytecode(make([]byte, 32))[3])
	require.Equal(t, byte(3), HashZkBytecode(make([]byte, 33))[3])
}
