package biz

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"memberflow/internal/biz/model"
	"memberflow/internal/data"
	"memberflow/internal/service"
)

// SignInFlow drives the identifier → credential → session sequence.
//
// Transitions are one-directional except Back, which resets to the
// identifier step and clears the looked-up user and any error. At most
// one submission is in flight at a time; a second call while busy is
// rejected without touching the stored state. No transition retries
// automatically.
type SignInFlow struct {
	client service.IdentityAPI
	tokens data.TokenStore
	l      *zap.Logger

	mu            sync.Mutex
	busy          bool
	step          model.AuthStep
	identifier    string
	user          *model.UserDetails
	err           model.FlowError
	authenticated bool
}

// NewSignInFlow builds a flow at the identifier step.
func NewSignInFlow(client service.IdentityAPI, tokens data.TokenStore, logger *zap.Logger) *SignInFlow {
	return &SignInFlow{
		client: client,
		tokens: tokens,
		l:      logger,
		step:   model.StepIdentifier,
	}
}

// Step returns the active sign-in step.
func (f *SignInFlow) Step() model.AuthStep {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// User returns the account found by the identifier lookup, nil before a
// successful lookup and after Back.
func (f *SignInFlow) User() *model.UserDetails {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user
}

// Err returns the current error. A new error replaces the previous one.
func (f *SignInFlow) Err() model.FlowError {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Authenticated reports whether a session token has been issued and
// persisted; the flow's job ends when this turns true.
func (f *SignInFlow) Authenticated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authenticated
}

// SubmitIdentifier looks up an email or membership ID. On success the
// flow advances to the password step when the account already has a
// password, to setup otherwise. Rejected and pending accounts stay at
// the identifier step with a fixed message.
func (f *SignInFlow) SubmitIdentifier(ctx context.Context, identifier string) model.FlowError {
	if f.Step() != model.StepIdentifier {
		return f.fail(model.BusinessError("An account is already selected"))
	}
	if strings.TrimSpace(identifier) == "" {
		return f.fail(model.ValidationError(model.FieldIdentifier, "Identifier is required"))
	}
	if !f.begin() {
		return model.BusinessError(model.MsgRequestInFlight)
	}
	defer f.finish()

	user, err := f.client.LookupIdentifier(ctx, identifier)
	if abandoned(ctx) {
		return model.FlowError{}
	}
	if err != nil {
		return f.fail(f.classify("identifier lookup", err))
	}

	switch user.VerificationStatus {
	case model.VerificationRejected:
		return f.fail(model.BusinessError(model.MsgAccountRejected))
	case model.VerificationPending:
		return f.fail(model.BusinessError(model.MsgAccountPending))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.identifier = identifier
	f.user = user
	f.err = model.FlowError{}
	if user.HasPassword {
		f.step = model.StepPassword
	} else {
		f.step = model.StepSetup
	}
	return model.FlowError{}
}

// Back returns to the identifier step, discarding the looked-up user
// and any error. It never makes a network call.
func (f *SignInFlow) Back() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.step = model.StepIdentifier
	f.identifier = ""
	f.user = nil
	f.err = model.FlowError{}
}

// SubmitPassword exchanges the stored identifier and the given password
// for a session token. On success the token is persisted and the flow
// is authenticated.
func (f *SignInFlow) SubmitPassword(ctx context.Context, password string) model.FlowError {
	if f.Step() != model.StepPassword {
		return f.fail(model.BusinessError("No account selected"))
	}
	if password == "" {
		return f.fail(model.ValidationError(model.FieldPassword, "Password is required"))
	}
	if !f.begin() {
		return model.BusinessError(model.MsgRequestInFlight)
	}
	defer f.finish()

	token, err := f.client.SubmitPassword(ctx, f.currentIdentifier(), password)
	if abandoned(ctx) {
		return model.FlowError{}
	}
	if err != nil {
		return f.fail(f.classify("password submit", err))
	}

	return f.establishSession(ctx, token)
}

// SubmitSetup submits first-time credentials for an account without a
// password. Password and confirmation must be non-empty and equal, and
// the security question one of the registered five, before any request
// is made.
func (f *SignInFlow) SubmitSetup(ctx context.Context, form model.SetupForm) model.FlowError {
	if f.Step() != model.StepSetup {
		return f.fail(model.BusinessError("No account selected"))
	}
	if form.Password == "" || form.ConfirmPassword == "" || form.Password != form.ConfirmPassword {
		return f.fail(model.ValidationError(model.FieldPassword, model.MsgPasswordsDoNotMatch))
	}
	if !form.SecurityQuestion.Valid() {
		return f.fail(model.ValidationError(model.FieldSecurityQuestion, "Select a security question"))
	}
	if !f.begin() {
		return model.BusinessError(model.MsgRequestInFlight)
	}
	defer f.finish()

	userID := ""
	if u := f.User(); u != nil {
		userID = u.ID
	}

	token, err := f.client.SetupPassword(ctx, service.SetupPasswordRequest{
		UserID:           userID,
		SecurityQuestion: form.SecurityQuestion,
		SecurityAnswer:   form.SecurityAnswer,
		Password:         form.Password,
	})
	if abandoned(ctx) {
		return model.FlowError{}
	}
	if err != nil {
		return f.fail(f.classify("password setup", err))
	}

	return f.establishSession(ctx, token)
}

// establishSession persists a freshly issued token. A success response
// without a token is surfaced as a distinct error instead of silently
// doing nothing.
func (f *SignInFlow) establishSession(ctx context.Context, token string) model.FlowError {
	if token == "" {
		return f.fail(model.FlowError{Kind: model.KindMissingToken, Message: model.MsgSessionTokenMissing})
	}
	if err := f.tokens.Set(ctx, token); err != nil {
		f.l.Error("persist session token", zap.Error(err))
		return f.fail(model.TransportError(model.MsgSomethingWentWrong))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = model.FlowError{}
	f.authenticated = true
	return model.FlowError{}
}

func (f *SignInFlow) currentIdentifier() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.identifier
}

func (f *SignInFlow) begin() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return false
	}
	f.busy = true
	return true
}

func (f *SignInFlow) finish() {
	f.mu.Lock()
	f.busy = false
	f.mu.Unlock()
}

func (f *SignInFlow) fail(e model.FlowError) model.FlowError {
	f.mu.Lock()
	f.err = e
	f.mu.Unlock()
	return e
}

// classify maps an API client error to a flow error: {error} payloads
// are business rejections shown verbatim, anything else is a transport
// problem logged in full and shown as a generic message.
func (f *SignInFlow) classify(op string, err error) model.FlowError {
	return classifyError(f.l, op, err)
}

func classifyError(logger *zap.Logger, op string, err error) model.FlowError {
	var apiErr *service.APIError
	if errors.As(err, &apiErr) {
		return model.BusinessError(apiErr.Message)
	}
	logger.Error(op+" failed", zap.Error(err))
	return model.TransportError(model.MsgSomethingWentWrong)
}

// abandoned reports whether the caller's context ended while a request
// was in flight; a stale resolution must not mutate flow state.
func abandoned(ctx context.Context) bool {
	return ctx.Err() != nil
}
