package biz

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"memberflow/internal/biz/model"
	"memberflow/internal/data"
	"memberflow/internal/service"
)

// RecoveryFactory builds forgot-password flows. The flow is a separate
// two-step machine keyed by the user id carried over from the password
// step of sign-in.
type RecoveryFactory struct {
	client service.IdentityAPI
	tokens data.TokenStore
	state  *AppState
	l      *zap.Logger
}

func NewRecoveryFactory(client service.IdentityAPI, tokens data.TokenStore, state *AppState, logger *zap.Logger) *RecoveryFactory {
	return &RecoveryFactory{
		client: client,
		tokens: tokens,
		state:  state,
		l:      logger,
	}
}

// Begin returns a recovery flow for the given account. Load must be
// called before any submission.
func (rf *RecoveryFactory) Begin(userID string) *RecoveryFlow {
	return &RecoveryFlow{
		client: rf.client,
		tokens: rf.tokens,
		state:  rf.state,
		l:      rf.l,
		userID: userID,
		step:   model.StepAnswer,
	}
}

// RecoveryFlow is the forgot-password machine: answer → reset. A failed
// security-question fetch is terminal for this flow instance; the user
// has to start over.
type RecoveryFlow struct {
	client service.IdentityAPI
	tokens data.TokenStore
	state  *AppState
	l      *zap.Logger

	userID string

	mu            sync.Mutex
	busy          bool
	loaded        bool
	failed        bool
	subject       *model.RecoveryUser
	step          model.RecoveryStep
	err           model.FlowError
	authenticated bool
}

// Load fetches the pre-registered security question. A failure marks
// the flow failed; there is no retry path.
func (f *RecoveryFlow) Load(ctx context.Context) model.FlowError {
	if !f.begin() {
		return model.BusinessError(model.MsgRequestInFlight)
	}
	defer f.finish()

	subject, err := f.client.SecurityQuestion(ctx, f.userID)
	if abandoned(ctx) {
		return model.FlowError{}
	}
	if err != nil {
		e := classifyError(f.l, "security question fetch", err)
		f.mu.Lock()
		f.failed = true
		f.err = e
		f.mu.Unlock()
		return e
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded = true
	f.subject = subject
	f.err = model.FlowError{}
	return model.FlowError{}
}

// Subject returns the account under recovery, nil until Load succeeds.
func (f *RecoveryFlow) Subject() *model.RecoveryUser {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subject
}

// Step returns the active recovery step.
func (f *RecoveryFlow) Step() model.RecoveryStep {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Failed reports whether the question fetch failed terminally.
func (f *RecoveryFlow) Failed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failed
}

// Err returns the current error.
func (f *RecoveryFlow) Err() model.FlowError {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Authenticated reports whether the reset completed; the caller then
// returns to the authenticated home after a short delay.
func (f *RecoveryFlow) Authenticated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authenticated
}

// SubmitAnswer verifies the free-text security answer. An empty answer
// is rejected before any call; a server rejection keeps the flow at the
// answer step.
func (f *RecoveryFlow) SubmitAnswer(ctx context.Context, answer string) model.FlowError {
	if !f.ready(model.StepAnswer) {
		return f.fail(model.BusinessError("Recovery is not ready"))
	}
	if answer == "" {
		return f.fail(model.ValidationError(model.FieldSecurityAnswer, "Answer is required"))
	}
	if !f.begin() {
		return model.BusinessError(model.MsgRequestInFlight)
	}
	defer f.finish()

	err := f.client.VerifyAnswer(ctx, f.userID, answer)
	if abandoned(ctx) {
		return model.FlowError{}
	}
	if err != nil {
		return f.fail(classifyError(f.l, "answer verification", err))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.step = model.StepReset
	f.err = model.FlowError{}
	return model.FlowError{}
}

// SubmitReset sets the new password. The pair must be non-empty and
// equal before any call. When the response carries a token it is
// persisted and the cached user data refetched.
func (f *RecoveryFlow) SubmitReset(ctx context.Context, password, confirm string) model.FlowError {
	if !f.ready(model.StepReset) {
		return f.fail(model.BusinessError("Recovery is not ready"))
	}
	if password == "" || confirm == "" || password != confirm {
		return f.fail(model.ValidationError(model.FieldPassword, model.MsgPasswordsDoNotMatch))
	}
	if !f.begin() {
		return model.BusinessError(model.MsgRequestInFlight)
	}
	defer f.finish()

	token, err := f.client.ResetPassword(ctx, f.userID, password)
	if abandoned(ctx) {
		return model.FlowError{}
	}
	if err != nil {
		return f.fail(classifyError(f.l, "password reset", err))
	}

	// The reset endpoint may omit the token; recovery still succeeded
	// and the user signs in with the new password.
	if token != "" {
		if err := f.tokens.Set(ctx, token); err != nil {
			f.l.Error("persist session token", zap.Error(err))
			return f.fail(model.TransportError(model.MsgSomethingWentWrong))
		}
	}

	if err := f.state.Refetch(ctx); err != nil {
		f.l.Warn("refetch after reset failed", zap.Error(err))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = model.FlowError{}
	f.authenticated = true
	return model.FlowError{}
}

func (f *RecoveryFlow) ready(step model.RecoveryStep) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loaded && !f.failed && f.step == step
}

func (f *RecoveryFlow) begin() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return false
	}
	f.busy = true
	return true
}

func (f *RecoveryFlow) finish() {
	f.mu.Lock()
	f.busy = false
	f.mu.Unlock()
}

func (f *RecoveryFlow) fail(e model.FlowError) model.FlowError {
	f.mu.Lock()
	f.err = e
	f.mu.Unlock()
	return e
}
