package vault

const (
	KeyLen   = 32
	NonceLen = 12
	TagLen   = 16

	DefaultCapacity = 100

	// Delimiter separates the fields of a serialized record.
	Delimiter = ':'
)

// Record is a single stored credential.
type Record struct {
	Site     string
	Username string
	Password string
}

// Limits bounds the byte length of each record field.
type Limits struct {
	Site     int
	Username int
	Password int
}

// DefaultLimits matches the field budgets of the legacy vault format.
func DefaultLimits() Limits { return Limits{Site: 99, Username: 49, Password: 49} }

func (l Limits) slotSize() int {
	return l.Site + l.Username + l.Password + 3
}
