package types

import "fmt"

// Operation names a collection operation that accepts pre and post hooks.
type Operation string

// The fixed hook set. Every collection carries a pre and post slot for each.
const (
	OpGet       Operation = "get"
	OpCount     Operation = "count"
	OpFlush     Operation = "flush"
	OpInsert    Operation = "insert"
	OpUpdate    Operation = "update"
	OpUpdateAll Operation = "updateAll"
	OpRemove    Operation = "remove"
	OpRemoveAll Operation = "removeAll"
	OpFind      Operation = "find"
)

// Operations lists every hookable operation in a stable order.
var Operations = []Operation{
	OpGet,
	OpCount,
	OpFlush,
	OpInsert,
	OpUpdate,
	OpUpdateAll,
	OpRemove,
	OpRemoveAll,
	OpFind,
}

var knownOperations = func() map[Operation]bool {
	m := make(map[Operation]bool, len(Operations))
	for _, op := range Operations {
		m[op] = true
	}
	return m
}()

// ParseOperation validates a hook name. It returns ErrUnknownHook for names
// outside the fixed set.
func ParseOperation(name string) (Operation, error) {
	op := Operation(name)
	if !knownOperations[op] {
		return "", fmt.Errorf("%w: %q", ErrUnknownHook, name)
	}
	return op, nil
}
