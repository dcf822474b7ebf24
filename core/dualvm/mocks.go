package dualvm

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// MockCallDataContext keys a configured mock: a calldata prefix and an
// optional exact value. A nil Value matches any call value.
type MockCallDataContext struct {
	Calldata []byte
	Value    *uint256.Int
}

// Compare defines the strict weak ordering used to rank mocks: longer (more
// specific) calldata sorts before shorter, a specified value sorts before a
// wildcard, and remaining ties are broken bytewise so the order is total.
// Returns a negative number if m sorts before other.
func (m *MockCallDataContext) Compare(other *MockCallDataContext) int {
	if len(m.Calldata) != len(other.Calldata) {
		return len(other.Calldata) - len(m.Calldata)
	}
	if c := bytes.Compare(m.Calldata, other.Calldata); c != 0 {
		return c
	}
	switch {
	case m.Value != nil && other.Value == nil:
		return -1
	case m.Value == nil && other.Value != nil:
		return 1
	case m.Value == nil && other.Value == nil:
		return 0
	default:
		return m.Value.Cmp(other.Value)
	}
}

// equal reports whether two contexts have identical priority, which makes
// them indistinguishable to the resolver.
func (m *MockCallDataContext) equal(other *MockCallDataContext) bool {
	return m.Compare(other) == 0
}

// MockCallReturn is the configured outcome of a mocked call.
type MockCallReturn struct {
	ReturnData []byte
	Revert     bool
}

type mockCall struct {
	ctx MockCallDataContext
	ret MockCallReturn
}

// MockRegistry holds the configured mocks per target address, each address's
// entries kept sorted by MockCallDataContext ordering so resolution is a
// first-match scan.
type MockRegistry struct {
	mocks map[common.Address][]mockCall
}

func NewMockRegistry() *MockRegistry {
	return &MockRegistry{
		mocks: make(map[common.Address][]mockCall),
	}
}

// Register adds a mock for addr. Registering a second mock with an identical
// (calldata, value) context is a configuration error: the resolver would have
// no deterministic winner.
func (r *MockRegistry) Register(addr common.Address, ctx MockCallDataContext, ret MockCallReturn) error {
	entries := r.mocks[addr]
	i := sort.Search(len(entries), func(i int) bool {
		return entries[i].ctx.Compare(&ctx) >= 0
	})
	if i < len(entries) && entries[i].ctx.equal(&ctx) {
		return fmt.Errorf("address %s calldata %#x: %w", addr, ctx.Calldata, ErrDuplicateMock)
	}
	entries = append(entries, mockCall{})
	copy(entries[i+1:], entries[i:])
	entries[i] = mockCall{ctx: ctx, ret: ret}
	r.mocks[addr] = entries
	return nil
}

// Match resolves the best mock for an incoming call. Among all mocks whose
// calldata is a prefix of the incoming calldata and whose value constraint
// accepts the call, the most specific one wins; the sorted order makes that
// the first hit. A nil incoming value is treated as zero.
func (r *MockRegistry) Match(addr common.Address, calldata []byte, value *uint256.Int) (*MockCallReturn, bool) {
	if value == nil {
		value = new(uint256.Int)
	}
	for i := range r.mocks[addr] {
		m := &r.mocks[addr][i]
		if !bytes.HasPrefix(calldata, m.ctx.Calldata) {
			continue
		}
		if m.ctx.Value != nil && !m.ctx.Value.Eq(value) {
			continue
		}
		mockHitCounter.Inc(1)
		debugInfo("mock matched", "addr", addr, "calldata", fmt.Sprintf("%#x", m.ctx.Calldata), "revert", m.ret.Revert)
		return &m.ret, true
	}
	mockMissCounter.Inc(1)
	return nil, false
}

// RemoveAll drops every mock registered for addr.
func (r *MockRegistry) RemoveAll(addr common.Address) {
	delete(r.mocks, addr)
}

// Clear drops all mocks.
func (r *MockRegistry) Clear() {
	r.mocks = make(map[common.Address][]mockCall)
}

// Len returns the total number of registered mocks.
func (r *MockRegistry) Len() int {
	n := 0
	for _, entries := range r.mocks {
		n += len(entries)
	}
	return n
}

func (r *MockRegistry) newCloned() *MockRegistry {
	cloned := NewMockRegistry()
	for addr, entries := range r.mocks {
		cloned.mocks[addr] = append([]mockCall(nil), entries...)
	}
	return cloned
}
