package dualvm

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// System contracts live in a reserved low address range on the zkVM. Native
// balance and nonce are ordinary storage slots inside these contracts rather
// than account header fields.
var (
	AccountCodeStorageAddress = common.HexToAddress("0x0000000000000000000000000000000000008002")
	NonceHolderAddress        = common.HexToAddress("0x0000000000000000000000000000000000008003")
	KnownCodesStorageAddress  = common.HexToAddress("0x0000000000000000000000000000000000008004")
	ContractDeployerAddress   = common.HexToAddress("0x0000000000000000000000000000000000008006")
	L2BaseTokenAddress        = common.HexToAddress("0x000000000000000000000000000000000000800a")
)

// Both the base-token balances and the raw nonces sit in a mapping rooted at
// slot zero of their respective system contracts.
const (
	balanceMappingSlot = 0
	nonceMappingSlot   = 0
)

// mappingSlot derives the storage slot of mapping[key] for an address-keyed
// mapping rooted at the given slot index, per the Solidity storage layout:
// keccak256(pad32(key) ++ pad32(slot)).
func mappingSlot(key common.Address, slot uint64) common.Hash {
	var buf [64]byte
	copy(buf[12:32], key.Bytes())
	binary.BigEndian.PutUint64(buf[56:64], slot)
	return crypto.Keccak256Hash(buf[:])
}

// BalanceSlot returns the system contract and storage slot holding the native
// balance of addr under the zkVM storage layout.
func BalanceSlot(addr common.Address) (common.Address, common.Hash) {
	return L2BaseTokenAddress, mappingSlot(addr, balanceMappingSlot)
}

// NonceSlot returns the system contract and storage slot holding the packed
// full nonce of addr under the zkVM storage layout.
func NonceSlot(addr common.Address) (common.Address, common.Hash) {
	return NonceHolderAddress, mappingSlot(addr, nonceMappingSlot)
}

// FullNonce is the two-part nonce tracked per account on the zkVM: the
// transaction nonce and the deployment nonce advance independently.
type FullNonce struct {
	Tx     uint64
	Deploy uint64
}

// The packed word keeps the deployment nonce in the upper half and the
// transaction nonce in the lower half of one 256-bit storage word.
const deployNonceShift = 128

// PackNonce encodes a full nonce into the single storage word kept by the
// nonce-holder system contract. UnpackNonce is its exact inverse.
func PackNonce(n FullNonce) *uint256.Int {
	packed := uint256.NewInt(n.Deploy)
	packed.Lsh(packed, deployNonceShift)
	return packed.Or(packed, uint256.NewInt(n.Tx))
}

// UnpackNonce decodes the packed nonce word written by PackNonce.
func UnpackNonce(word *uint256.Int) FullNonce {
	deploy := new(uint256.Int).Rsh(word, deployNonceShift)
	return FullNonce{
		Tx:     word.Uint64(),
		Deploy: deploy.Uint64(),
	}
}
