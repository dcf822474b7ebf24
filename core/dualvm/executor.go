package dualvm

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
)

var (
	nativeExecutorRunnerInstance = &nativeExecutorRunner{}
	zkExecutorRunnerInstance     = &zkExecutorRunner{}
)

// NativeExecutorContext is the executor state of a native session. There is
// no second toolchain to reconcile against, so no registry and no factory
// dependencies.
type NativeExecutorContext struct{}

func newNativeExecutorContext() *NativeExecutorContext { return &NativeExecutorContext{} }

func (c *NativeExecutorContext) Variant() StrategyVariant { return VariantNative }

func (c *NativeExecutorContext) NewCloned() ExecutorStrategyContext {
	cp := *c
	return &cp
}

// ZkExecutorContext is the executor state of a zk session: the shared
// immutable registry, the VM-environment parameters, and the factory
// dependencies accumulated for the transaction being built.
type ZkExecutorContext struct {
	registry *ContractRegistry // shared, read-only
	env      ZkEnv

	factoryDeps [][]byte
	depsSeen    mapset.Set[common.Hash]
}

func newZkExecutorContext(registry *ContractRegistry, env ZkEnv) *ZkExecutorContext {
	return &ZkExecutorContext{
		registry: registry,
		env:      env,
		depsSeen: mapset.NewThreadUnsafeSet[common.Hash](),
	}
}

func (c *ZkExecutorContext) Variant() StrategyVariant { return VariantZk }

func (c *ZkExecutorContext) NewCloned() ExecutorStrategyContext {
	cloned := newZkExecutorContext(c.registry, c.env)
	cloned.factoryDeps = append([][]byte(nil), c.factoryDeps...)
	cloned.depsSeen = c.depsSeen.Clone()
	return cloned
}

// Env returns the VM-environment parameters of the session.
func (c *ZkExecutorContext) Env() ZkEnv { return c.env }

// AsZkExecutorContext downcasts an executor context to its zk implementation.
func AsZkExecutorContext(ctx ExecutorStrategyContext) (*ZkExecutorContext, bool) {
	c, ok := ctx.(*ZkExecutorContext)
	return c, ok
}

func mustZkExecutorContext(ctx ExecutorStrategyContext) *ZkExecutorContext {
	c, ok := AsZkExecutorContext(ctx)
	if !ok {
		panic("dualvm: zk executor runner driven with a " + ctx.Variant().String() + " context")
	}
	return c
}

// nativeExecutorRunner never resolves cross-VM identity: with a single
// toolchain there is no twin artifact to find.
type nativeExecutorRunner struct{}

func (r *nativeExecutorRunner) Name() string { return "native executor" }

func (r *nativeExecutorRunner) ResolveDeployedCode(ExecutorStrategyContext, []byte) (*DualCompiledContract, bool) {
	return nil, false
}

func (r *nativeExecutorRunner) ResolveBytecodeHash(ExecutorStrategyContext, common.Hash) (*DualCompiledContract, bool) {
	return nil, false
}

func (r *nativeExecutorRunner) RecordFactoryDep(ExecutorStrategyContext, []byte) {}

func (r *nativeExecutorRunner) TakeFactoryDeps(ExecutorStrategyContext) [][]byte { return nil }

// zkExecutorRunner consults the dual-contract registry whenever code identity
// crosses the VM boundary, and collects the factory dependencies a deploying
// transaction has to carry.
type zkExecutorRunner struct{}

func (r *zkExecutorRunner) Name() string { return "zk executor" }

func (r *zkExecutorRunner) ResolveDeployedCode(ctx ExecutorStrategyContext, probe []byte) (*DualCompiledContract, bool) {
	c, found := mustZkExecutorContext(ctx).registry.FindByEvmBytecode(probe)
	if !found {
		debugWarn("no dual-compiled contract for deployed bytecode", "probeLen", len(probe))
	}
	return c, found
}

func (r *zkExecutorRunner) ResolveBytecodeHash(ctx ExecutorStrategyContext, hash common.Hash) (*DualCompiledContract, bool) {
	c, found := mustZkExecutorContext(ctx).registry.FindByZkBytecodeHash(hash)
	if !found {
		debugWarn("no dual-compiled contract for bytecode hash", "hash", hash)
	}
	return c, found
}

func (r *zkExecutorRunner) RecordFactoryDep(ctx ExecutorStrategyContext, bytecode []byte) {
	c := mustZkExecutorContext(ctx)
	hash := HashZkBytecode(bytecode)
	if c.depsSeen.Contains(hash) {
		return
	}
	c.depsSeen.Add(hash)
	c.factoryDeps = append(c.factoryDeps, bytecode)
	debugInfo("recorded factory dependency", "hash", hash, "size", len(bytecode))
}

// TakeFactoryDeps drains the accumulated dependencies in recording order.
func (r *zkExecutorRunner) TakeFactoryDeps(ctx ExecutorStrategyContext) [][]byte {
	c := mustZkExecutorContext(ctx)
	deps := c.factoryDeps
	c.factoryDeps = nil
	c.depsSeen = mapset.NewThreadUnsafeSet[common.Hash]()
	return deps
}
