package storage

// NotFoundError is returned when a trace doesn't exist in the store.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return "trace not found"
	}

	return "trace not found: " + e.ID
}
