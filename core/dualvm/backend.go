package dualvm

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Runners are stateless; one instance of each serves every session.
var (
	nativeBackendRunnerInstance = &nativeBackendRunner{}
	zkBackendRunnerInstance     = &zkBackendRunner{}
)

// NativeBackendContext is the backend state of a native session. The native
// VM keeps balance and nonce in the account header, so there is nothing to
// carry besides the variant itself.
type NativeBackendContext struct{}

func newNativeBackendContext() *NativeBackendContext { return &NativeBackendContext{} }

func (c *NativeBackendContext) Variant() StrategyVariant { return VariantNative }

func (c *NativeBackendContext) NewCloned() BackendStrategyContext {
	cp := *c
	return &cp
}

// ZkBackendContext is the backend state of a zk session: factory dependencies
// persisted across forks keyed by their zk bytecode hash, and the storage
// keys of immutable variables that must survive a fork.
type ZkBackendContext struct {
	persistedFactoryDeps map[common.Hash][]byte
	immutableKeys        map[common.Address]mapset.Set[common.Hash]
}

func newZkBackendContext() *ZkBackendContext {
	return &ZkBackendContext{
		persistedFactoryDeps: make(map[common.Hash][]byte),
		immutableKeys:        make(map[common.Address]mapset.Set[common.Hash]),
	}
}

func (c *ZkBackendContext) Variant() StrategyVariant { return VariantZk }

func (c *ZkBackendContext) NewCloned() BackendStrategyContext {
	cloned := newZkBackendContext()
	for hash, dep := range c.persistedFactoryDeps {
		cloned.persistedFactoryDeps[hash] = dep
	}
	for addr, keys := range c.immutableKeys {
		cloned.immutableKeys[addr] = keys.Clone()
	}
	return cloned
}

// AsZkBackendContext downcasts a backend context to its zk implementation.
func AsZkBackendContext(ctx BackendStrategyContext) (*ZkBackendContext, bool) {
	c, ok := ctx.(*ZkBackendContext)
	return c, ok
}

func mustZkBackendContext(ctx BackendStrategyContext) *ZkBackendContext {
	c, ok := AsZkBackendContext(ctx)
	if !ok {
		panic("dualvm: zk backend runner driven with a " + ctx.Variant().String() + " context")
	}
	return c
}

// nativeBackendRunner reads and writes account fields directly.
type nativeBackendRunner struct{}

func (r *nativeBackendRunner) Name() string { return "native backend" }

func (r *nativeBackendRunner) GetBalance(_ BackendStrategyContext, state StateDB, addr common.Address) *uint256.Int {
	return state.GetBalance(addr)
}

func (r *nativeBackendRunner) SetBalance(_ BackendStrategyContext, state StateDB, addr common.Address, amount *uint256.Int) {
	state.SetBalance(addr, amount)
}

func (r *nativeBackendRunner) GetNonce(_ BackendStrategyContext, state StateDB, addr common.Address) uint64 {
	return state.GetNonce(addr)
}

func (r *nativeBackendRunner) SetNonce(_ BackendStrategyContext, state StateDB, addr common.Address, nonce uint64) {
	state.SetNonce(addr, nonce)
}

func (r *nativeBackendRunner) GetFullNonce(_ BackendStrategyContext, state StateDB, addr common.Address) FullNonce {
	// The native VM has no deployment nonce.
	return FullNonce{Tx: state.GetNonce(addr)}
}

func (r *nativeBackendRunner) SetFullNonce(_ BackendStrategyContext, state StateDB, addr common.Address, nonce FullNonce) {
	state.SetNonce(addr, nonce.Tx)
}

func (r *nativeBackendRunner) PersistFactoryDep(BackendStrategyContext, common.Hash, []byte) {}

func (r *nativeBackendRunner) PersistedFactoryDep(BackendStrategyContext, common.Hash) ([]byte, bool) {
	return nil, false
}

func (r *nativeBackendRunner) PersistImmutableKey(BackendStrategyContext, common.Address, common.Hash) {
}

func (r *nativeBackendRunner) IsPersistedImmutableKey(BackendStrategyContext, common.Address, common.Hash) bool {
	return false
}

// zkBackendRunner reads and writes balance and nonce through the system
// contract storage slots derived in slots.go, so the same harness query works
// regardless of which VM executed the state change.
type zkBackendRunner struct{}

func (r *zkBackendRunner) Name() string { return "zk backend" }

func (r *zkBackendRunner) GetBalance(_ BackendStrategyContext, state StateDB, addr common.Address) *uint256.Int {
	token, slot := BalanceSlot(addr)
	word := state.GetState(token, slot)
	return new(uint256.Int).SetBytes(word.Bytes())
}

func (r *zkBackendRunner) SetBalance(_ BackendStrategyContext, state StateDB, addr common.Address, amount *uint256.Int) {
	token, slot := BalanceSlot(addr)
	state.SetState(token, slot, common.Hash(amount.Bytes32()))
}

func (r *zkBackendRunner) GetNonce(ctx BackendStrategyContext, state StateDB, addr common.Address) uint64 {
	return r.GetFullNonce(ctx, state, addr).Tx
}

func (r *zkBackendRunner) SetNonce(ctx BackendStrategyContext, state StateDB, addr common.Address, nonce uint64) {
	full := r.GetFullNonce(ctx, state, addr)
	full.Tx = nonce
	r.SetFullNonce(ctx, state, addr, full)
}

func (r *zkBackendRunner) GetFullNonce(_ BackendStrategyContext, state StateDB, addr common.Address) FullNonce {
	holder, slot := NonceSlot(addr)
	word := state.GetState(holder, slot)
	return UnpackNonce(new(uint256.Int).SetBytes(word.Bytes()))
}

func (r *zkBackendRunner) SetFullNonce(_ BackendStrategyContext, state StateDB, addr common.Address, nonce FullNonce) {
	holder, slot := NonceSlot(addr)
	state.SetState(holder, slot, common.Hash(PackNonce(nonce).Bytes32()))
}

func (r *zkBackendRunner) PersistFactoryDep(ctx BackendStrategyContext, hash common.Hash, bytecode []byte) {
	mustZkBackendContext(ctx).persistedFactoryDeps[hash] = bytecode
}

func (r *zkBackendRunner) PersistedFactoryDep(ctx BackendStrategyContext, hash common.Hash) ([]byte, bool) {
	dep, ok := mustZkBackendContext(ctx).persistedFactoryDeps[hash]
	return dep, ok
}

func (r *zkBackendRunner) PersistImmutableKey(ctx BackendStrategyContext, addr common.Address, key common.Hash) {
	c := mustZkBackendContext(ctx)
	keys, ok := c.immutableKeys[addr]
	if !ok {
		keys = mapset.NewThreadUnsafeSet[common.Hash]()
		c.immutableKeys[addr] = keys
	}
	keys.Add(key)
}

func (r *zkBackendRunner) IsPersistedImmutableKey(ctx BackendStrategyContext, addr common.Address, key common.Hash) bool {
	keys, ok := mustZkBackendContext(ctx).immutableKeys[addr]
	return ok && keys.Contains(key)
}
