package dualvm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// StateDB is the minimal state surface the strategy layer drives. The
// embedding harness supplies the real implementation; the strategies never
// assume anything about commitment, tries or journaling behind it.
type StateDB interface {
	GetBalance(common.Address) *uint256.Int
	SetBalance(common.Address, *uint256.Int)

	GetNonce(common.Address) uint64
	SetNonce(common.Address, uint64)

	GetCode(common.Address) []byte
	GetCodeHash(common.Address) common.Hash

	GetState(common.Address, common.Hash) common.Hash
	SetState(common.Address, common.Hash, common.Hash)
}
