package engine

// Statement is compiled SQL bound to the parameter values of one call.
type Statement struct {
	SQL  string
	Args []any
	// Key is the statement cache key, empty when the fragments were not
	// cacheable.
	Key    string
	Cached bool
}
