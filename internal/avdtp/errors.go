package avdtp

// ErrorCode enumerates the error kinds from spec.md §7.
type ErrorCode int

const (
	ErrNone ErrorCode = iota
	// ErrInvalidCommand: an IPC message shorter than its declared length.
	ErrInvalidCommand
	// ErrAlreadyPresent: no eligible SEP, or a HID device already exists
	// for the requested address.
	ErrAlreadyPresent
	// ErrTransport: an L2CAP connect failure or channel hangup/error.
	ErrTransport
	// ErrAVDTPSignalling: a non-zero error in an AVDTP confirmation.
	ErrAVDTPSignalling
	// ErrNoCommonCapability: the Codec Selector found an empty
	// intersection between local and remote capability.
	ErrNoCommonCapability
	// ErrUnsupportedConfiguration: a remote set_configuration was
	// rejected for an out-of-range parameter.
	ErrUnsupportedConfiguration
)

func (c ErrorCode) String() string {
	switch c {
	case ErrInvalidCommand:
		return "InvalidCommand"
	case ErrAlreadyPresent:
		return "AlreadyPresent"
	case ErrTransport:
		return "Transport"
	case ErrAVDTPSignalling:
		return "AvdtpSignalling"
	case ErrNoCommonCapability:
		return "NoCommonCapability"
	case ErrUnsupportedConfiguration:
		return "UnsupportedConfiguration"
	default:
		return "None"
	}
}

// Error is the typed error carried through AVDTP confirmations and
// rejections. A nil *Error means success/accept.
type Error struct {
	Code     ErrorCode
	Category Category
	Reason   string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Category != CategoryNone {
		return e.Code.String() + " (" + e.Category.String() + "): " + e.Reason
	}
	return e.Code.String() + ": " + e.Reason
}

// NewError builds an *Error, the return value AVDTP confirmations use
// to signal a non-zero result (spec.md §7: "any non-zero error in an
// AVDTP confirmation").
func NewError(code ErrorCode, category Category, reason string) *Error {
	return &Error{Code: code, Category: category, Reason: reason}
}
