package dualvm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	nativeInspectorRunnerInstance = &nativeInspectorRunner{}
	zkInspectorRunnerInstance     = &zkInspectorRunner{}
)

// inspectorState is the mock and expectation state shared by both variants;
// cheatcodes behave identically on either VM.
type inspectorState struct {
	mocks    *MockRegistry
	expected *ExpectedCallTracker
}

func newInspectorState() inspectorState {
	return inspectorState{
		mocks:    NewMockRegistry(),
		expected: NewExpectedCallTracker(),
	}
}

func (s inspectorState) newCloned() inspectorState {
	return inspectorState{
		mocks:    s.mocks.newCloned(),
		expected: s.expected.newCloned(),
	}
}

// NativeInspectorContext is the inspector state of a native session.
type NativeInspectorContext struct {
	inspectorState
}

func newNativeInspectorContext() *NativeInspectorContext {
	return &NativeInspectorContext{inspectorState: newInspectorState()}
}

func (c *NativeInspectorContext) Variant() StrategyVariant { return VariantNative }

func (c *NativeInspectorContext) NewCloned() CheatcodeInspectorStrategyContext {
	return &NativeInspectorContext{inspectorState: c.inspectorState.newCloned()}
}

// ZkInspectorContext additionally owns the startup-migration gate of a zk
// session.
type ZkInspectorContext struct {
	inspectorState
	migration ZkStartupMigration
}

func newZkInspectorContext() *ZkInspectorContext {
	return &ZkInspectorContext{inspectorState: newInspectorState()}
}

func (c *ZkInspectorContext) Variant() StrategyVariant { return VariantZk }

func (c *ZkInspectorContext) NewCloned() CheatcodeInspectorStrategyContext {
	return &ZkInspectorContext{
		inspectorState: c.inspectorState.newCloned(),
		migration:      c.migration,
	}
}

// Migration exposes the current migration state, mainly for assertions.
func (c *ZkInspectorContext) Migration() ZkStartupMigration { return c.migration }

// AsZkInspectorContext downcasts an inspector context to its zk
// implementation.
func AsZkInspectorContext(ctx CheatcodeInspectorStrategyContext) (*ZkInspectorContext, bool) {
	c, ok := ctx.(*ZkInspectorContext)
	return c, ok
}

func mustZkInspectorContext(ctx CheatcodeInspectorStrategyContext) *ZkInspectorContext {
	c, ok := AsZkInspectorContext(ctx)
	if !ok {
		panic("dualvm: zk inspector runner driven with a " + ctx.Variant().String() + " context")
	}
	return c
}

func stateOf(ctx CheatcodeInspectorStrategyContext) inspectorState {
	switch c := ctx.(type) {
	case *NativeInspectorContext:
		return c.inspectorState
	case *ZkInspectorContext:
		return c.inspectorState
	default:
		panic("dualvm: unknown inspector context variant")
	}
}

// inspectorRunner implements the cheatcode behavior shared by both variants.
type inspectorRunner struct{}

func (r *inspectorRunner) MockCall(ctx CheatcodeInspectorStrategyContext, addr common.Address, mctx MockCallDataContext, ret MockCallReturn) error {
	return stateOf(ctx).mocks.Register(addr, mctx, ret)
}

func (r *inspectorRunner) MatchMockCall(ctx CheatcodeInspectorStrategyContext, addr common.Address, calldata []byte, value *uint256.Int) (*MockCallReturn, bool) {
	return stateOf(ctx).mocks.Match(addr, calldata, value)
}

func (r *inspectorRunner) ClearMockedCalls(ctx CheatcodeInspectorStrategyContext, addr common.Address) {
	stateOf(ctx).mocks.RemoveAll(addr)
}

func (r *inspectorRunner) ExpectCall(ctx CheatcodeInspectorStrategyContext, addr common.Address, calldata []byte, exp ExpectedCall) {
	stateOf(ctx).expected.Expect(addr, calldata, exp)
}

func (r *inspectorRunner) RecordCall(ctx CheatcodeInspectorStrategyContext, addr common.Address, calldata []byte, value *uint256.Int, gas uint64) {
	stateOf(ctx).expected.Record(addr, calldata, value, gas)
}

func (r *inspectorRunner) AssertExpectedCalls(ctx CheatcodeInspectorStrategyContext) error {
	return stateOf(ctx).expected.Assert()
}

// nativeInspectorRunner has no migration to drive; the gates are no-ops.
type nativeInspectorRunner struct {
	inspectorRunner
}

func (r *nativeInspectorRunner) Name() string { return "native cheatcode inspector" }

func (r *nativeInspectorRunner) AllowStartupMigration(CheatcodeInspectorStrategyContext) {}

func (r *nativeInspectorRunner) StartupMigrationPending(CheatcodeInspectorStrategyContext) bool {
	return false
}

func (r *nativeInspectorRunner) RunStartupMigration(CheatcodeInspectorStrategyContext, BackendStrategyContext, StateDB, []common.Address) (bool, error) {
	return false, nil
}

// zkInspectorRunner drives the one-shot rewrite of native account state into
// the zk storage layout.
type zkInspectorRunner struct {
	inspectorRunner
}

func (r *zkInspectorRunner) Name() string { return "zk cheatcode inspector" }

func (r *zkInspectorRunner) AllowStartupMigration(ctx CheatcodeInspectorStrategyContext) {
	mustZkInspectorContext(ctx).migration.Allow()
}

func (r *zkInspectorRunner) StartupMigrationPending(ctx CheatcodeInspectorStrategyContext) bool {
	return mustZkInspectorContext(ctx).migration.IsAllowed()
}

// RunStartupMigration copies every account's balance and transaction nonce
// into the system-contract slots the zkVM reads. The native fields are left
// in place: after migration the zk slots are authoritative, and re-running
// the copy would clobber them with stale values, which is why the gate is
// one-shot.
func (r *zkInspectorRunner) RunStartupMigration(ctx CheatcodeInspectorStrategyContext, backend BackendStrategyContext, state StateDB, accounts []common.Address) (bool, error) {
	c := mustZkInspectorContext(ctx)
	if c.migration.IsDone() {
		return false, ErrIllegalMigrationTransition
	}
	if !c.migration.IsAllowed() {
		return false, nil
	}
	for _, addr := range accounts {
		if bal := state.GetBalance(addr); !bal.IsZero() {
			zkBackendRunnerInstance.SetBalance(backend, state, addr, bal)
		}
		if nonce := state.GetNonce(addr); nonce != 0 {
			zkBackendRunnerInstance.SetFullNonce(backend, state, addr, FullNonce{Tx: nonce})
		}
		debugInfo("migrated account to zk storage layout", "addr", addr)
	}
	c.migration.Done()
	migrationRunCounter.Inc(1)
	return true, nil
}

// MigrateImmutables is the extension point for carrying immutable-variable
// storage over during forked execution. The persisted keys are tracked in the
// backend context; the rewrite itself is not implemented yet.
func (r *zkInspectorRunner) MigrateImmutables(ctx CheatcodeInspectorStrategyContext, backend BackendStrategyContext, state StateDB, addr common.Address) error {
	return nil
}
