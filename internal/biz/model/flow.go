package model

// AuthStep is the active step of the sign-in branch.
type AuthStep string

const (
	StepIdentifier AuthStep = "identifier"
	StepPassword   AuthStep = "password"
	StepSetup      AuthStep = "setup"
)

// RecoveryStep is the active step of the forgot-password branch.
type RecoveryStep string

const (
	StepAnswer RecoveryStep = "answer"
	StepReset  RecoveryStep = "reset"
)

// ErrorKind classifies a flow error so the presentation layer never has
// to re-derive the class from message content.
type ErrorKind int

const (
	// KindNone is the zero value: no error.
	KindNone ErrorKind = iota
	// KindValidation is a client-side check that failed before any
	// network call.
	KindValidation
	// KindBusiness is a server-side rejection carried in an {error}
	// payload, shown verbatim.
	KindBusiness
	// KindTransport is a network or decoding failure; the raw cause is
	// logged and a generic message shown.
	KindTransport
	// KindMissingToken marks a response that succeeded per the error
	// check but carried no session token.
	KindMissingToken
)

// FlowError is the single current error of a flow. A new error replaces
// the previous one; there is no queue.
type FlowError struct {
	Kind    ErrorKind
	Field   Field
	Message string
}

// IsZero reports whether no error is set.
func (e FlowError) IsZero() bool { return e.Kind == KindNone }

func (e FlowError) Error() string { return e.Message }

// ValidationError builds a field-scoped client-side error.
func ValidationError(field Field, msg string) FlowError {
	return FlowError{Kind: KindValidation, Field: field, Message: msg}
}

// BusinessError builds a server-rejection error shown verbatim.
func BusinessError(msg string) FlowError {
	return FlowError{Kind: KindBusiness, Message: msg}
}

// TransportError builds a generic transport failure error.
func TransportError(msg string) FlowError {
	return FlowError{Kind: KindTransport, Message: msg}
}

// User-facing messages fixed by the flow contract.
const (
	MsgAccountRejected      = "Your account has been rejected."
	MsgAccountPending       = "Your account is pending verification."
	MsgPasswordsDoNotMatch  = "Passwords do not match"
	MsgSomethingWentWrong   = "Something went wrong"
	MsgSessionTokenMissing  = "Sign-in succeeded but no session was issued"
	MsgRequestInFlight      = "Another request is in progress"
)

// SetupForm is the first-time credential setup input. It is built fresh
// each time the setup step is entered and validated only at submission.
type SetupForm struct {
	SecurityQuestion SecurityQuestion
	SecurityAnswer   string
	Password         string
	ConfirmPassword  string
}
