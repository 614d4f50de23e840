package services

// NotFoundError covers missing resources and resources addressed under the
// wrong parent. Both read as "not found" to the caller so that outsiders
// cannot probe which projects or issues exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// PermissionError carries the rule that was violated, stated in plain
// language for the caller.
type PermissionError struct {
	Reason string
}

func (e *PermissionError) Error() string {
	return e.Reason
}

func notFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

func deny(reason string) error {
	return &PermissionError{Reason: reason}
}
