package vault

import (
	"github.com/pkg/errors"
)

// Kind classifies a vault failure.
type Kind uint8

const (
	KindUnknown Kind = iota
	CapacityExceeded
	FieldTooLong
	InvalidField
	MalformedRecord
	TruncatedFile
	AuthenticationFailed
	InvalidKeyLength
	InvalidNonceLength
	IOError
)

var kindNames = map[Kind]string{
	KindUnknown:          "unknown error",
	CapacityExceeded:     "capacity exceeded",
	FieldTooLong:         "field too long",
	InvalidField:         "invalid field",
	MalformedRecord:      "malformed record",
	TruncatedFile:        "truncated file",
	AuthenticationFailed: "authentication failed",
	InvalidKeyLength:     "invalid key length",
	InvalidNonceLength:   "invalid nonce length",
	IOError:              "i/o error",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[KindUnknown]
}

// Sentinels for errors.Is. Every *Error matches the sentinel of its kind.
var (
	ErrCapacityExceeded   = &Error{Kind: CapacityExceeded}
	ErrFieldTooLong       = &Error{Kind: FieldTooLong}
	ErrInvalidField       = &Error{Kind: InvalidField}
	ErrMalformedRecord    = &Error{Kind: MalformedRecord}
	ErrTruncatedFile      = &Error{Kind: TruncatedFile}
	ErrAuthFailed         = &Error{Kind: AuthenticationFailed}
	ErrInvalidKeyLength   = &Error{Kind: InvalidKeyLength}
	ErrInvalidNonceLength = &Error{Kind: InvalidNonceLength}
	ErrIO                 = &Error{Kind: IOError}
)

// Error is returned by every vault operation. Detail never carries key or
// password material.
type Error struct {
	Kind   Kind
	Op     string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := "vault: "
	if e.Op != "" {
		msg += e.Op + ": "
	}
	msg += e.Kind.String()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func newError(op string, kind Kind, detail string) error {
	return &Error{Kind: kind, Op: op, Detail: detail}
}

func ioError(op string, err error, msg string) error {
	return &Error{Kind: IOError, Op: op, Err: errors.Wrap(err, msg)}
}
