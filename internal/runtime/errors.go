package runtime

import (
	"errors"
	"fmt"

	"github.com/imovia/fluxo/pkg/domain"
)

// ErrEffectFailed is wrapped by a NodeError when an effect fails under the halt policy.
var ErrEffectFailed = errors.New("external effect failed")

// NodeError reports a node that could not be interpreted.
type NodeError struct {
	NodeID   string
	NodeType domain.NodeType
	Err      error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node '%s' (%s): %v", e.NodeID, e.NodeType, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

func nodeIDOf(err error) string {
	var nodeErr *NodeError
	if errors.As(err, &nodeErr) {
		return nodeErr.NodeID
	}
	return ""
}
