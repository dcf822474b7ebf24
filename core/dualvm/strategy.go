// Package dualvm lets a contract test harness run the same test against
// either the native EVM or the zkVM. Behavior is selected once per session
// through three pluggable strategy slots (backend, executor, cheatcode
// inspector); contract identity is reconciled across the two compiler outputs
// by the dual-contract registry.
package dualvm

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// StrategyVariant identifies which execution backend a session runs on. The
// set is closed; every place behavior differs switches exhaustively over it.
type StrategyVariant byte

const (
	VariantNative StrategyVariant = iota
	VariantZk
)

func (v StrategyVariant) String() string {
	if v == VariantZk {
		return "zk"
	}
	return "native"
}

// ZkEnv carries the VM-environment parameters of a zk session: the chain id
// and the gas-schedule knobs the fee model needs.
type ZkEnv struct {
	ChainID       uint64
	GasPerPubdata uint64
}

// Strategy contexts carry all mutable per-session state of one slot. Runners
// are stateless; forking a session clones the contexts and nothing else.
// Each context knows its variant so agreement across slots can be asserted.

type BackendStrategyContext interface {
	Variant() StrategyVariant
	NewCloned() BackendStrategyContext
}

type ExecutorStrategyContext interface {
	Variant() StrategyVariant
	NewCloned() ExecutorStrategyContext
}

type CheatcodeInspectorStrategyContext interface {
	Variant() StrategyVariant
	NewCloned() CheatcodeInspectorStrategyContext
}

// BackendStrategyRunner is the stateless behavior object of the state/backend
// slot. It reads and writes account balance and nonce through the variant's
// storage encoding, and persists factory dependencies and immutable-variable
// keys across forks.
type BackendStrategyRunner interface {
	Name() string

	GetBalance(ctx BackendStrategyContext, state StateDB, addr common.Address) *uint256.Int
	SetBalance(ctx BackendStrategyContext, state StateDB, addr common.Address, amount *uint256.Int)

	GetNonce(ctx BackendStrategyContext, state StateDB, addr common.Address) uint64
	SetNonce(ctx BackendStrategyContext, state StateDB, addr common.Address, nonce uint64)

	GetFullNonce(ctx BackendStrategyContext, state StateDB, addr common.Address) FullNonce
	SetFullNonce(ctx BackendStrategyContext, state StateDB, addr common.Address, nonce FullNonce)

	PersistFactoryDep(ctx BackendStrategyContext, hash common.Hash, bytecode []byte)
	PersistedFactoryDep(ctx BackendStrategyContext, hash common.Hash) ([]byte, bool)

	PersistImmutableKey(ctx BackendStrategyContext, addr common.Address, key common.Hash)
	IsPersistedImmutableKey(ctx BackendStrategyContext, addr common.Address, key common.Hash) bool
}

// ExecutorStrategyRunner is the stateless behavior object of the executor
// slot. It resolves code identity across the VM boundary through the
// dual-contract registry and accumulates the factory dependencies of the
// transaction being built.
type ExecutorStrategyRunner interface {
	Name() string

	ResolveDeployedCode(ctx ExecutorStrategyContext, probe []byte) (*DualCompiledContract, bool)
	ResolveBytecodeHash(ctx ExecutorStrategyContext, hash common.Hash) (*DualCompiledContract, bool)

	RecordFactoryDep(ctx ExecutorStrategyContext, bytecode []byte)
	TakeFactoryDeps(ctx ExecutorStrategyContext) [][]byte
}

// CheatcodeInspectorStrategyRunner is the stateless behavior object of the
// inspector slot. It owns mock resolution, expected-call tracking and the
// startup-migration driver.
type CheatcodeInspectorStrategyRunner interface {
	Name() string

	MockCall(ctx CheatcodeInspectorStrategyContext, addr common.Address, mctx MockCallDataContext, ret MockCallReturn) error
	MatchMockCall(ctx CheatcodeInspectorStrategyContext, addr common.Address, calldata []byte, value *uint256.Int) (*MockCallReturn, bool)
	ClearMockedCalls(ctx CheatcodeInspectorStrategyContext, addr common.Address)

	ExpectCall(ctx CheatcodeInspectorStrategyContext, addr common.Address, calldata []byte, exp ExpectedCall)
	RecordCall(ctx CheatcodeInspectorStrategyContext, addr common.Address, calldata []byte, value *uint256.Int, gas uint64)
	AssertExpectedCalls(ctx CheatcodeInspectorStrategyContext) error

	// AllowStartupMigration unlocks the one-shot state migration once the
	// baseline system contracts are in place. StartupMigrationPending reports
	// whether the migration is unlocked but not yet performed; callers consult
	// it before the first state-mutating call. RunStartupMigration performs
	// the rewrite; driving it again after completion is a sequencing bug and
	// returns ErrIllegalMigrationTransition.
	AllowStartupMigration(ctx CheatcodeInspectorStrategyContext)
	StartupMigrationPending(ctx CheatcodeInspectorStrategyContext) bool
	RunStartupMigration(ctx CheatcodeInspectorStrategyContext, backend BackendStrategyContext, state StateDB, accounts []common.Address) (bool, error)
}

// BackendStrategy pairs the stateless backend runner with the per-session
// context it operates on. Executor and inspector slots follow the same shape.
type BackendStrategy struct {
	Runner  BackendStrategyRunner
	Context BackendStrategyContext
}

type ExecutorStrategy struct {
	Runner  ExecutorStrategyRunner
	Context ExecutorStrategyContext
}

type CheatcodeInspectorStrategy struct {
	Runner  CheatcodeInspectorStrategyRunner
	Context CheatcodeInspectorStrategyContext
}

// Config selects the strategy implementation for a session. The single
// UseZkVM flag decides the variant of all three slots; they are never derived
// independently.
type Config struct {
	UseZkVM bool

	// Registry and Env are required when UseZkVM is set and ignored otherwise.
	Registry *ContractRegistry
	Env      ZkEnv
}

var errMissingRegistry = errors.New("zk strategy requires a dual-contract registry")

// Strategy bundles the three slots of one session. Selection is immutable
// after construction; only the contexts mutate during execution.
type Strategy struct {
	Backend   BackendStrategy
	Executor  ExecutorStrategy
	Inspector CheatcodeInspectorStrategy
}

// NewStrategy builds the strategy bundle for a session. All three slots are
// derived from the same flag, so their variants agree by construction.
func NewStrategy(cfg Config) (*Strategy, error) {
	if !cfg.UseZkVM {
		return &Strategy{
			Backend:   BackendStrategy{Runner: nativeBackendRunnerInstance, Context: newNativeBackendContext()},
			Executor:  ExecutorStrategy{Runner: nativeExecutorRunnerInstance, Context: newNativeExecutorContext()},
			Inspector: CheatcodeInspectorStrategy{Runner: nativeInspectorRunnerInstance, Context: newNativeInspectorContext()},
		}, nil
	}
	if cfg.Registry == nil {
		return nil, errMissingRegistry
	}
	return &Strategy{
		Backend:   BackendStrategy{Runner: zkBackendRunnerInstance, Context: newZkBackendContext()},
		Executor:  ExecutorStrategy{Runner: zkExecutorRunnerInstance, Context: newZkExecutorContext(cfg.Registry, cfg.Env)},
		Inspector: CheatcodeInspectorStrategy{Runner: zkInspectorRunnerInstance, Context: newZkInspectorContext()},
	}, nil
}

// Variant returns the session's variant. All three contexts agree on it by
// construction.
func (s *Strategy) Variant() StrategyVariant {
	return s.Backend.Context.Variant()
}

// NewCloned forks the session: contexts are deep-copied, runners are shared.
func (s *Strategy) NewCloned() *Strategy {
	return &Strategy{
		Backend:   BackendStrategy{Runner: s.Backend.Runner, Context: s.Backend.Context.NewCloned()},
		Executor:  ExecutorStrategy{Runner: s.Executor.Runner, Context: s.Executor.Context.NewCloned()},
		Inspector: CheatcodeInspectorStrategy{Runner: s.Inspector.Runner, Context: s.Inspector.Context.NewCloned()},
	}
}
