package dualvm

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/lru"
	"github.com/ethereum/go-ethereum/crypto"
)

// DualCompiledContract pairs the two artifacts produced when one source
// contract is compiled for both VM targets. Entries are immutable once added
// to a registry.
type DualCompiledContract struct {
	Name string

	ZkBytecodeHash     common.Hash
	ZkDeployedBytecode []byte

	EvmBytecodeHash     common.Hash
	EvmDeployedBytecode []byte
	// EvmBytecode is the init (creation) bytecode of the EVM artifact.
	EvmBytecode []byte
}

const probeCacheCap = 256

// ContractRegistry resolves runtime bytecode or bytecode hashes back to the
// logical dual-compiled contract, in either direction. It is populated once
// per compilation session and is read-only afterwards, which makes it safe to
// share across concurrent sessions without locking.
type ContractRegistry struct {
	contracts []DualCompiledContract
	byZkHash  map[common.Hash]int

	// probeCache memoizes FindByEvmBytecode results keyed by the probe's
	// keccak hash. A negative index records a miss.
	probeCache *lru.Cache[common.Hash, int]
}

func NewContractRegistry() *ContractRegistry {
	return &ContractRegistry{
		byZkHash:   make(map[common.Hash]int),
		probeCache: lru.NewCache[common.Hash, int](probeCacheCap),
	}
}

// Add registers a dual-compiled contract. It rejects entries that would make
// later lookups ambiguous: a zk bytecode hash already present, or an EVM
// deployed bytecode that is a prefix of (or prefixed by) an existing entry.
// A collision is a build-time error of the compilation session, never
// resolved silently at lookup time.
func (r *ContractRegistry) Add(c DualCompiledContract) error {
	if len(c.EvmDeployedBytecode) == 0 {
		// An empty prefix would match every probe.
		return fmt.Errorf("contract %s: empty deployed bytecode: %w", c.Name, ErrDuplicateBytecode)
	}
	if prev, ok := r.byZkHash[c.ZkBytecodeHash]; ok {
		return fmt.Errorf("contract %s: zk bytecode hash already registered by %s: %w",
			c.Name, r.contracts[prev].Name, ErrDuplicateBytecode)
	}
	for i := range r.contracts {
		existing := r.contracts[i].EvmDeployedBytecode
		if bytes.HasPrefix(existing, c.EvmDeployedBytecode) || bytes.HasPrefix(c.EvmDeployedBytecode, existing) {
			return fmt.Errorf("contract %s: deployed bytecode prefix collides with %s: %w",
				c.Name, r.contracts[i].Name, ErrDuplicateBytecode)
		}
	}
	r.contracts = append(r.contracts, c)
	r.byZkHash[c.ZkBytecodeHash] = len(r.contracts) - 1
	return nil
}

// Len returns the number of registered contracts.
func (r *ContractRegistry) Len() int {
	return len(r.contracts)
}

// FindByEvmBytecode returns the registry entry whose EVM deployed bytecode is
// a byte-prefix of probe. Deployed bytecode observed on-chain may carry
// trailing constructor-appended metadata, hence prefix rather than equality.
// Uniqueness of the winner is guaranteed by Add.
func (r *ContractRegistry) FindByEvmBytecode(probe []byte) (*DualCompiledContract, bool) {
	key := crypto.Keccak256Hash(probe)
	if idx, ok := r.probeCache.Get(key); ok {
		if idx < 0 {
			return nil, false
		}
		return &r.contracts[idx], true
	}
	for i := range r.contracts {
		if bytes.HasPrefix(probe, r.contracts[i].EvmDeployedBytecode) {
			r.probeCache.Add(key, i)
			registryHitCounter.Inc(1)
			return &r.contracts[i], true
		}
	}
	r.probeCache.Add(key, -1)
	registryMissCounter.Inc(1)
	return nil, false
}

// FindByZkBytecodeHash returns the registry entry with the given zk bytecode
// hash.
func (r *ContractRegistry) FindByZkBytecodeHash(hash common.Hash) (*DualCompiledContract, bool) {
	idx, ok := r.byZkHash[hash]
	if !ok {
		registryMissCounter.Inc(1)
		return nil, false
	}
	registryHitCounter.Inc(1)
	return &r.contracts[idx], true
}

const (
	zkBytecodeHashVersion = 1
	zkWordSize            = 32
)

// HashZkBytecode computes the versioned zkVM bytecode hash: sha256 of the
// word-padded code with the first bytes overwritten by {version, 0, length in
// words}. The word count is forced odd, matching the zkVM requirement that
// deployable bytecode has an odd number of 32-byte words.
func HashZkBytecode(code []byte) common.Hash {
	words := (len(code) + zkWordSize - 1) / zkWordSize
	if words%2 == 0 {
		words++
	}
	padded := make([]byte, words*zkWordSize)
	copy(padded, code)

	sum := sha256.Sum256(padded)
	sum[0] = zkBytecodeHashVersion
	sum[1] = 0
	binary.BigEndian.PutUint16(sum[2:4], uint16(words))
	return common.BytesToHash(sum[:])
}
