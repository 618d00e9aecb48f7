package exec

import (
	"crypto/rand"
	"fmt"

	"github.com/orneryd/gqlgraph/pkg/storage"
)

// newEntityID mints a 128-bit random identifier, stringified, for a freshly
// inserted node or edge.
func newEntityID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}

func newNodeID() storage.NodeID { return storage.NodeID(newEntityID()) }
func newEdgeID() storage.EdgeID { return storage.EdgeID(newEntityID()) }
