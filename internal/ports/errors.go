package ports

// Shared sentinel errors adapters translate their driver errors into, so
// services can match on them without importing the adapter.
var (
	ErrNotFound  = errString("not found")
	ErrDuplicate = errString("duplicate")
)

type errString string

func (e errString) Error() string { return string(e) }
