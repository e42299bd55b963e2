package resolver

import "fmt"

// LoopError reports a request whose target points back at the proxy itself.
type LoopError struct {
	ID   string
	Host string
}

func (e *LoopError) Error() string {
	return fmt.Sprintf("refusing to proxy %q: target host %s is the proxy itself", e.ID, e.Host)
}
