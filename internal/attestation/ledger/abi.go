package ledger

import "github.com/ethereum/go-ethereum/accounts/abi/bind"

// RegistryMetaData describes the attestation registry contract surface this
// service uses.
var RegistryMetaData = &bind.MetaData{
	ABI: `[
{"type":"function","name":"mintAttestation","stateMutability":"nonpayable","inputs":[{"name":"user","type":"address"},{"name":"verificationType","type":"string"},{"name":"cid","type":"string"}],"outputs":[]},
{"type":"function","name":"getUserVerificationTypes","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"string[]"}]},
{"type":"function","name":"getUserAttestation","stateMutability":"view","inputs":[{"name":"user","type":"address"},{"name":"verificationType","type":"string"}],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"isRevoked","stateMutability":"view","inputs":[{"name":"cid","type":"string"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"hasConsented","stateMutability":"view","inputs":[{"name":"user","type":"address"},{"name":"verificationType","type":"string"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"hasAnyVerification","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"getLatestAttestation","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"string"}]}
]`,
}

const (
	methodMint          = "mintAttestation"
	methodTypes         = "getUserVerificationTypes"
	methodAttestation   = "getUserAttestation"
	methodIsRevoked     = "isRevoked"
	methodHasConsented  = "hasConsented"
	methodHasAny        = "hasAnyVerification"
	methodLatestPointer = "getLatestAttestation"
)
