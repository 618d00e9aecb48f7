package engine

import (
	"crypto/rand"
	"encoding/hex"
)

// newTxnID mints an explicit transaction's identifier the same way
// pkg/session mints a Session.ID and pkg/exec mints node/edge ids: random
// bytes, hex-encoded, no attempt at global ordering since nothing here
// depends on transaction ids sorting or incrementing.
func newTxnID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing means the process has no entropy source left;
		// a zero id is distinguishable in logs and never collides with a
		// successfully generated one in the same run.
		return "0000000000000000"
	}
	return hex.EncodeToString(b[:])
}
