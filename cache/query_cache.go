package cache

import (
	"errors"
	"fmt"
)

var ErrMissingParameter = errors.New("cache: missing parameter value")

// CachedQuery is the compiled form of a statement. It never holds parameter
// values: ArgsOrder names the parameter bound to each placeholder.
type CachedQuery struct {
	SQL        string            `json:"sql"`
	ArgsOrder  []string          `json:"args_order,omitempty"`
	ParamTypes map[string]string `json:"param_types,omitempty"`
}

// Args binds values to placeholders in ArgsOrder order.
func (q *CachedQuery) Args(params map[string]any) ([]any, error) {
	if len(q.ArgsOrder) == 0 {
		return nil, nil
	}
	args := make([]any, len(q.ArgsOrder))
	for i, name := range q.ArgsOrder {
		v, ok := params[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingParameter, name)
		}
		args[i] = v
	}
	return args, nil
}
