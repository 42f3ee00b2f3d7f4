package model

// Status reports whether the classification service can accept requests.
type Status int

const (
	NotReady Status = iota
	Ready
)

// String returns the wire form used by the status endpoint.
func (s Status) String() string {
	if s == Ready {
		return "OK"
	}
	return "NOT_READY"
}
