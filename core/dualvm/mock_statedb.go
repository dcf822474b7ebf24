package dualvm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// MockStateDB is an in-memory StateDB used by tests and by harnesses that run
// without a real backing database.
type MockStateDB struct {
	balances map[common.Address]*uint256.Int
	nonces   map[common.Address]uint64
	codes    map[common.Address][]byte
	storage  map[common.Address]map[common.Hash]common.Hash
}

func NewMockStateDB() *MockStateDB {
	return &MockStateDB{
		balances: make(map[common.Address]*uint256.Int),
		nonces:   make(map[common.Address]uint64),
		codes:    make(map[common.Address][]byte),
		storage:  make(map[common.Address]map[common.Hash]common.Hash),
	}
}

func (m *MockStateDB) GetBalance(addr common.Address) *uint256.Int {
	if bal, ok := m.balances[addr]; ok {
		return new(uint256.Int).Set(bal)
	}
	return new(uint256.Int)
}

func (m *MockStateDB) SetBalance(addr common.Address, amount *uint256.Int) {
	m.balances[addr] = new(uint256.Int).Set(amount)
}

func (m *MockStateDB) GetNonce(addr common.Address) uint64 {
	return m.nonces[addr]
}

func (m *MockStateDB) SetNonce(addr common.Address, nonce uint64) {
	m.nonces[addr] = nonce
}

func (m *MockStateDB) GetCode(addr common.Address) []byte {
	return m.codes[addr]
}

func (m *MockStateDB) SetCode(addr common.Address, code []byte) {
	m.codes[addr] = code
}

func (m *MockStateDB) GetCodeHash(addr common.Address) common.Hash {
	code, ok := m.codes[addr]
	if !ok {
		return common.Hash{}
	}
	return crypto.Keccak256Hash(code)
}

func (m *MockStateDB) GetState(addr common.Address, key common.Hash) common.Hash {
	return m.storage[addr][key]
}

func (m *MockStateDB) SetState(addr common.Address, key, value common.Hash) {
	slots, ok := m.storage[addr]
	if !ok {
		slots = make(map[common.Hash]common.Hash)
		m.storage[addr] = slots
	}
	slots[key] = value
}
