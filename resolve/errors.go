package resolve

import (
	"fmt"

	"github.com/saem/nimph/vers"
)

// UnsatisfiableError reports a requirement no reachable candidate meets,
// locally or over the network.
type UnsatisfiableError struct {
	Req vers.Requirement
}

func (e *UnsatisfiableError) Error() string {
	return fmt.Sprintf("no candidate for %s satisfies %s", e.Req.Name, e.Req)
}

// UnknownNameError reports a name lookup that failed against a resolved
// group.
type UnknownNameError struct {
	Name string
}

func (e *UnknownNameError) Error() string {
	return fmt.Sprintf("%s is not part of the resolved dependency group", e.Name)
}

// MaterializationError reports a failed clone, checkout, relocation or
// remote operation on one project.
type MaterializationError struct {
	Op      string
	Subject string
	Err     error
}

func (e *MaterializationError) Error() string {
	return fmt.Sprintf("%s of %s failed: %v", e.Op, e.Subject, e.Err)
}

func (e *MaterializationError) Unwrap() error { return e.Err }
