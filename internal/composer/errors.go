package composer

import "fmt"

// SchemaError reports a schema that cannot be used. It is the only error
// the engine surfaces; all per-call lookup misses are absorbed.
type SchemaError struct {
	Path   string
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("schema %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("schema %s: %s", e.Path, e.Reason)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}
