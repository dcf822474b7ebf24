package dualvm

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

func selectorOf(sig string) []byte {
	return crypto.Keccak256([]byte(sig))[:4]
}

// The zkVM exposes contract creation as ordinary calls into the deployer
// system contract; this is the ABI surface the transaction adapter encodes
// against and the decoder reports in traces.
const contractDeployerABIJSON = `[
	{"type":"function","name":"create","stateMutability":"payable","inputs":[{"name":"_salt","type":"bytes32"},{"name":"_bytecodeHash","type":"bytes32"},{"name":"_input","type":"bytes"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"create2","stateMutability":"payable","inputs":[{"name":"_salt","type":"bytes32"},{"name":"_bytecodeHash","type":"bytes32"},{"name":"_input","type":"bytes"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"createAccount","stateMutability":"payable","inputs":[{"name":"_salt","type":"bytes32"},{"name":"_bytecodeHash","type":"bytes32"},{"name":"_input","type":"bytes"},{"name":"_aaVersion","type":"uint8"}],"outputs":[{"name":"","type":"address"}]}
]`

// Selector signatures of the remaining system-contract entry points worth
// naming in traces. Kept static; the set changes only with the protocol.
var systemCallSignatures = []string{
	"incrementMinNonceIfEquals(uint256)",
	"incrementDeploymentNonce(address)",
	"getRawNonce(address)",
	"markBytecodeAsPublished(bytes32)",
	"balanceOf(uint256)",
	"transferFromTo(address,address,uint256)",
}

var (
	decoderOnce     sync.Once
	deployerABI     abi.ABI
	deployerABIErr  error
	systemCallNames map[[4]byte]string
)

func buildDecoder() {
	deployerABI, deployerABIErr = abi.JSON(strings.NewReader(contractDeployerABIJSON))
	if deployerABIErr != nil {
		return
	}
	systemCallNames = make(map[[4]byte]string)
	for _, method := range deployerABI.Methods {
		var sel [4]byte
		copy(sel[:], method.ID)
		systemCallNames[sel] = method.Sig
	}
	for _, sig := range systemCallSignatures {
		var sel [4]byte
		copy(sel[:], selectorOf(sig))
		systemCallNames[sel] = sig
	}
}

// ContractDeployerABI returns the parsed deployer ABI. The parse happens once
// per process; the ABI source is a compile-time constant, so a parse failure
// is a programming error.
func ContractDeployerABI() abi.ABI {
	decoderOnce.Do(buildDecoder)
	if deployerABIErr != nil {
		panic("dualvm: invalid contract deployer ABI: " + deployerABIErr.Error())
	}
	return deployerABI
}

// DecodeSystemCall names the system-contract function a calldata blob
// targets. The selector tables are built once and never mutated, so the
// lookup is safe from any goroutine.
func DecodeSystemCall(calldata []byte) (string, bool) {
	decoderOnce.Do(buildDecoder)
	if deployerABIErr != nil || len(calldata) < 4 {
		return "", false
	}
	var sel [4]byte
	copy(sel[:], calldata[:4])
	sig, ok := systemCallNames[sel]
	return sig, ok
}
