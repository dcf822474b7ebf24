package dualvm

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ExpectedCallKind selects how the observed count is compared against the
// configured count at assertion time.
type ExpectedCallKind byte

const (
	// ExpectAtLeast passes when the call happened at least Count times.
	ExpectAtLeast ExpectedCallKind = iota
	// ExpectExact passes only when the call happened exactly Count times.
	ExpectExact
)

func (k ExpectedCallKind) String() string {
	if k == ExpectExact {
		return "exact"
	}
	return "at least"
}

// ExpectedCall is an assertion that a call pattern occurs. Nil constraint
// fields are "don't care".
type ExpectedCall struct {
	Value  *uint256.Int
	Gas    *uint64
	MinGas *uint64
	Count  uint64
	Kind   ExpectedCallKind
}

type expectedCallRecord struct {
	expected ExpectedCall
	observed uint64
}

// ExpectedCallTracker records expected calls per (address, calldata) and
// counts matching outgoing calls. An expectation keyed by full calldata is
// independent from one keyed by the selector alone: both are recorded and
// both are checked.
type ExpectedCallTracker struct {
	calls map[common.Address]map[string]*expectedCallRecord
}

func NewExpectedCallTracker() *ExpectedCallTracker {
	return &ExpectedCallTracker{
		calls: make(map[common.Address]map[string]*expectedCallRecord),
	}
}

// Expect registers an expectation for (addr, calldata). Re-registering the
// same key replaces the expectation but keeps the observed count, so an
// expectation can be tightened mid-run without losing history.
func (t *ExpectedCallTracker) Expect(addr common.Address, calldata []byte, exp ExpectedCall) {
	byCalldata, ok := t.calls[addr]
	if !ok {
		byCalldata = make(map[string]*expectedCallRecord)
		t.calls[addr] = byCalldata
	}
	if rec, ok := byCalldata[string(calldata)]; ok {
		rec.expected = exp
		return
	}
	byCalldata[string(calldata)] = &expectedCallRecord{expected: exp}
}

// Record accounts an outgoing call against every expectation whose calldata
// prefixes the actual calldata and whose value/gas constraints accept the
// call. Counts only ever increase.
func (t *ExpectedCallTracker) Record(addr common.Address, calldata []byte, value *uint256.Int, gas uint64) {
	if value == nil {
		value = new(uint256.Int)
	}
	for prefix, rec := range t.calls[addr] {
		if !bytes.HasPrefix(calldata, []byte(prefix)) {
			continue
		}
		exp := &rec.expected
		if exp.Value != nil && !exp.Value.Eq(value) {
			continue
		}
		if exp.Gas != nil && *exp.Gas != gas {
			continue
		}
		if exp.MinGas != nil && gas < *exp.MinGas {
			continue
		}
		rec.observed++
		expectedCallCounter.Inc(1)
	}
}

// Observed returns the current observed count for an exact (addr, calldata)
// key.
func (t *ExpectedCallTracker) Observed(addr common.Address, calldata []byte) uint64 {
	if rec, ok := t.calls[addr][string(calldata)]; ok {
		return rec.observed
	}
	return 0
}

// Assert checks every registered expectation and returns the joined failures,
// or nil when all pass.
func (t *ExpectedCallTracker) Assert() error {
	var failures []error
	for addr, byCalldata := range t.calls {
		for calldata, rec := range byCalldata {
			exp := rec.expected
			ok := rec.observed >= exp.Count
			if exp.Kind == ExpectExact {
				ok = rec.observed == exp.Count
			}
			if !ok {
				failures = append(failures, fmt.Errorf(
					"expected call to %s with data %#x to be called %s %d time(s), but was called %d time(s)",
					addr, []byte(calldata), exp.Kind, exp.Count, rec.observed))
			}
		}
	}
	return errors.Join(failures...)
}

// Reset drops all expectations and observed counts.
func (t *ExpectedCallTracker) Reset() {
	t.calls = make(map[common.Address]map[string]*expectedCallRecord)
}

func (t *ExpectedCallTracker) newCloned() *ExpectedCallTracker {
	cloned := NewExpectedCallTracker()
	for addr, byCalldata := range t.calls {
		dst := make(map[string]*expectedCallRecord, len(byCalldata))
		for calldata, rec := range byCalldata {
			cp := *rec
			dst[calldata] = &cp
		}
		cloned.calls[addr] = dst
	}
	return cloned
}
