package cache

import (
	"github.com/Konsultn-Engineering/sqlfrag/utils"
)

type Operation uint8

const (
	OpSelect Operation = iota
	OpCount
	OpInsert
	OpUpdate
	OpDelete
	OpUpsert
)

func (o Operation) String() string {
	switch o {
	case OpSelect:
		return "select"
	case OpCount:
		return "count"
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	case OpUpsert:
		return "upsert"
	default:
		return "unknown"
	}
}

// StatementKey derives the store key of a compiled statement from the
// connection identity, the operation, the target entity and the key of the
// fragment list that shaped the statement. It returns "" when the fragment
// list is not cacheable, which disables caching for the call.
func StatementKey(connection string, op Operation, entity string, fragmentKey string, cacheable bool) string {
	if !cacheable {
		return ""
	}
	return "stmt." + utils.HashKey(connection, op.String(), utils.HashKey(entity), fragmentKey)
}
