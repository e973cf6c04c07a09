package domain

// Decision is the outcome of a second factor check. The zero value is
// Rejected so an unset decision never grants access.
type Decision uint8

const (
	Rejected Decision = iota
	Accepted
)

func (d Decision) String() string {
	if d == Accepted {
		return "accepted"
	}
	return "rejected"
}
