package nimph

import "fmt"

// ConfigError means a manifest or side config could not be read or parsed.
// It is fatal: commands abort before resolution starts.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("unreadable configuration %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// LockNotFoundError means no room with the requested name is persisted.
type LockNotFoundError struct {
	Name string
}

func (e *LockNotFoundError) Error() string {
	return fmt.Sprintf("no lock room named %q", e.Name)
}

// LockWriteError means a room could not be captured or persisted.
type LockWriteError struct {
	Name string
	Err  error
}

func (e *LockWriteError) Error() string {
	return fmt.Sprintf("unable to write lock room %q: %v", e.Name, e.Err)
}

func (e *LockWriteError) Unwrap() error { return e.Err }
