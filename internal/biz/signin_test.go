package biz

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"memberflow/internal/biz/model"
	"memberflow/internal/service"
)

// SignInFlowTestSuite drives the sign-in state machine against mocks.
type SignInFlowTestSuite struct {
	suite.Suite
	client *MockIdentityAPI
	tokens *MockTokenStore
	flow   *SignInFlow
}

func (suite *SignInFlowTestSuite) SetupTest() {
	suite.client = new(MockIdentityAPI)
	suite.tokens = new(MockTokenStore)
	suite.flow = NewSignInFlow(suite.client, suite.tokens, zap.NewNop())
}

func verifiedUser(hasPassword bool) *model.UserDetails {
	return &model.UserDetails{
		ID:                 "1",
		Name:               "John",
		VerificationStatus: model.VerificationVerified,
		HasPassword:        hasPassword,
	}
}

func (suite *SignInFlowTestSuite) TestSubmitIdentifier_EmptyRejectedLocally() {
	ferr := suite.flow.SubmitIdentifier(context.Background(), "  ")

	assert.Equal(suite.T(), model.KindValidation, ferr.Kind)
	assert.Equal(suite.T(), model.FieldIdentifier, ferr.Field)
	suite.client.AssertNotCalled(suite.T(), "LookupIdentifier", mock.Anything, mock.Anything)
}

func (suite *SignInFlowTestSuite) TestSubmitIdentifier_BranchesToPassword() {
	ctx := context.Background()
	suite.client.On("LookupIdentifier", ctx, "john@x.com").Return(verifiedUser(true), nil)

	ferr := suite.flow.SubmitIdentifier(ctx, "john@x.com")

	assert.True(suite.T(), ferr.IsZero())
	assert.Equal(suite.T(), model.StepPassword, suite.flow.Step())
	assert.Equal(suite.T(), "John", suite.flow.User().Name)
}

func (suite *SignInFlowTestSuite) TestSubmitIdentifier_BranchesToSetup() {
	ctx := context.Background()
	suite.client.On("LookupIdentifier", ctx, "MEM-042").Return(verifiedUser(false), nil)

	ferr := suite.flow.SubmitIdentifier(ctx, "MEM-042")

	assert.True(suite.T(), ferr.IsZero())
	assert.Equal(suite.T(), model.StepSetup, suite.flow.Step())
}

func (suite *SignInFlowTestSuite) TestSubmitIdentifier_RejectedAccountStays() {
	ctx := context.Background()
	suite.client.On("LookupIdentifier", ctx, "john@x.com").Return(&model.UserDetails{
		ID:                 "1",
		VerificationStatus: model.VerificationRejected,
		HasPassword:        true,
	}, nil)

	ferr := suite.flow.SubmitIdentifier(ctx, "john@x.com")

	assert.Equal(suite.T(), model.KindBusiness, ferr.Kind)
	assert.Equal(suite.T(), model.MsgAccountRejected, ferr.Message)
	assert.Equal(suite.T(), model.StepIdentifier, suite.flow.Step())
	assert.Nil(suite.T(), suite.flow.User())
}

func (suite *SignInFlowTestSuite) TestSubmitIdentifier_PendingAccountStays() {
	ctx := context.Background()
	suite.client.On("LookupIdentifier", ctx, "john@x.com").Return(&model.UserDetails{
		ID:                 "1",
		VerificationStatus: model.VerificationPending,
	}, nil)

	ferr := suite.flow.SubmitIdentifier(ctx, "john@x.com")

	assert.Equal(suite.T(), model.MsgAccountPending, ferr.Message)
	assert.Equal(suite.T(), model.StepIdentifier, suite.flow.Step())
}

func (suite *SignInFlowTestSuite) TestSubmitIdentifier_BusinessErrorShownVerbatim() {
	ctx := context.Background()
	suite.client.On("LookupIdentifier", ctx, "nobody").
		Return(nil, &service.APIError{Message: "No account found for this identifier"})

	ferr := suite.flow.SubmitIdentifier(ctx, "nobody")

	assert.Equal(suite.T(), model.KindBusiness, ferr.Kind)
	assert.Equal(suite.T(), "No account found for this identifier", ferr.Message)
}

func (suite *SignInFlowTestSuite) TestSubmitIdentifier_TransportErrorIsGeneric() {
	ctx := context.Background()
	suite.client.On("LookupIdentifier", ctx, "john@x.com").
		Return(nil, errors.New("dial tcp: connection refused"))

	ferr := suite.flow.SubmitIdentifier(ctx, "john@x.com")

	assert.Equal(suite.T(), model.KindTransport, ferr.Kind)
	assert.Equal(suite.T(), model.MsgSomethingWentWrong, ferr.Message)
}

func (suite *SignInFlowTestSuite) TestBack_ResetsToIdentifier() {
	ctx := context.Background()
	suite.client.On("LookupIdentifier", ctx, "john@x.com").Return(verifiedUser(true), nil)

	assert.True(suite.T(), suite.flow.SubmitIdentifier(ctx, "john@x.com").IsZero())
	suite.flow.Back()

	assert.Equal(suite.T(), model.StepIdentifier, suite.flow.Step())
	assert.Nil(suite.T(), suite.flow.User())
	assert.True(suite.T(), suite.flow.Err().IsZero())
}

func (suite *SignInFlowTestSuite) TestSubmitPassword_RequiresPasswordStep() {
	ferr := suite.flow.SubmitPassword(context.Background(), "secret")

	assert.Equal(suite.T(), model.KindBusiness, ferr.Kind)
	suite.client.AssertNotCalled(suite.T(), "SubmitPassword", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *SignInFlowTestSuite) TestSubmitPassword_Authenticates() {
	ctx := context.Background()
	suite.client.On("LookupIdentifier", ctx, "john@x.com").Return(verifiedUser(true), nil)
	suite.client.On("SubmitPassword", ctx, "john@x.com", "Abc12345!").Return("TOKEN", nil)
	suite.tokens.On("Set", ctx, "TOKEN").Return(nil)

	assert.True(suite.T(), suite.flow.SubmitIdentifier(ctx, "john@x.com").IsZero())
	ferr := suite.flow.SubmitPassword(ctx, "Abc12345!")

	assert.True(suite.T(), ferr.IsZero())
	assert.True(suite.T(), suite.flow.Authenticated())
	suite.tokens.AssertCalled(suite.T(), "Set", ctx, "TOKEN")
}

func (suite *SignInFlowTestSuite) TestSubmitPassword_WrongPasswordStays() {
	ctx := context.Background()
	suite.client.On("LookupIdentifier", ctx, "john@x.com").Return(verifiedUser(true), nil)
	suite.client.On("SubmitPassword", ctx, "john@x.com", "wrong").
		Return("", &service.APIError{Message: "Invalid credentials"})

	assert.True(suite.T(), suite.flow.SubmitIdentifier(ctx, "john@x.com").IsZero())
	ferr := suite.flow.SubmitPassword(ctx, "wrong")

	assert.Equal(suite.T(), model.KindBusiness, ferr.Kind)
	assert.Equal(suite.T(), "Invalid credentials", ferr.Message)
	assert.Equal(suite.T(), model.StepPassword, suite.flow.Step())
	assert.False(suite.T(), suite.flow.Authenticated())
	suite.tokens.AssertNotCalled(suite.T(), "Set", mock.Anything, mock.Anything)
}

func (suite *SignInFlowTestSuite) TestSubmitPassword_MissingTokenIsDistinct() {
	ctx := context.Background()
	suite.client.On("LookupIdentifier", ctx, "john@x.com").Return(verifiedUser(true), nil)
	suite.client.On("SubmitPassword", ctx, "john@x.com", "Abc12345!").Return("", nil)

	assert.True(suite.T(), suite.flow.SubmitIdentifier(ctx, "john@x.com").IsZero())
	ferr := suite.flow.SubmitPassword(ctx, "Abc12345!")

	assert.Equal(suite.T(), model.KindMissingToken, ferr.Kind)
	assert.Equal(suite.T(), model.MsgSessionTokenMissing, ferr.Message)
	assert.False(suite.T(), suite.flow.Authenticated())
	suite.tokens.AssertNotCalled(suite.T(), "Set", mock.Anything, mock.Anything)
}

func (suite *SignInFlowTestSuite) TestSubmitSetup_PairMustMatch() {
	ctx := context.Background()
	suite.client.On("LookupIdentifier", ctx, "MEM-042").Return(verifiedUser(false), nil)
	assert.True(suite.T(), suite.flow.SubmitIdentifier(ctx, "MEM-042").IsZero())

	ferr := suite.flow.SubmitSetup(ctx, model.SetupForm{
		Password:        "Abc12345!",
		ConfirmPassword: "Different1!",
	})

	assert.Equal(suite.T(), model.KindValidation, ferr.Kind)
	assert.Equal(suite.T(), model.MsgPasswordsDoNotMatch, ferr.Message)
	suite.client.AssertNotCalled(suite.T(), "SetupPassword", mock.Anything, mock.Anything)
}

func (suite *SignInFlowTestSuite) TestSubmitIdentifier_RejectedAfterAccountSelected() {
	ctx := context.Background()
	suite.client.On("LookupIdentifier", ctx, "john@x.com").Return(verifiedUser(true), nil)

	assert.True(suite.T(), suite.flow.SubmitIdentifier(ctx, "john@x.com").IsZero())
	ferr := suite.flow.SubmitIdentifier(ctx, "jane@x.com")

	assert.Equal(suite.T(), model.KindBusiness, ferr.Kind)
	assert.Equal(suite.T(), model.StepPassword, suite.flow.Step())
	assert.Equal(suite.T(), "John", suite.flow.User().Name)
	suite.client.AssertNumberOfCalls(suite.T(), "LookupIdentifier", 1)
}

func (suite *SignInFlowTestSuite) TestSubmitSetup_RequiresRegisteredQuestion() {
	ctx := context.Background()
	suite.client.On("LookupIdentifier", ctx, "MEM-042").Return(verifiedUser(false), nil)
	assert.True(suite.T(), suite.flow.SubmitIdentifier(ctx, "MEM-042").IsZero())

	ferr := suite.flow.SubmitSetup(ctx, model.SetupForm{
		SecurityQuestion: "FAVOURITE_COLOUR",
		SecurityAnswer:   "Blue",
		Password:         "Abc12345!",
		ConfirmPassword:  "Abc12345!",
	})

	assert.Equal(suite.T(), model.KindValidation, ferr.Kind)
	assert.Equal(suite.T(), model.FieldSecurityQuestion, ferr.Field)
	suite.client.AssertNotCalled(suite.T(), "SetupPassword", mock.Anything, mock.Anything)
}

func (suite *SignInFlowTestSuite) TestSubmitSetup_Authenticates() {
	ctx := context.Background()
	suite.client.On("LookupIdentifier", ctx, "MEM-042").Return(verifiedUser(false), nil)
	suite.client.On("SetupPassword", ctx, mock.MatchedBy(func(req service.SetupPasswordRequest) bool {
		return req.UserID == "1" && req.SecurityQuestion == model.QuestionFirstPet
	})).Return("TOKEN", nil)
	suite.tokens.On("Set", ctx, "TOKEN").Return(nil)

	assert.True(suite.T(), suite.flow.SubmitIdentifier(ctx, "MEM-042").IsZero())
	ferr := suite.flow.SubmitSetup(ctx, model.SetupForm{
		Password:         "Abc12345!",
		ConfirmPassword:  "Abc12345!",
		SecurityQuestion: model.QuestionFirstPet,
		SecurityAnswer:   "Rex",
	})

	assert.True(suite.T(), ferr.IsZero())
	assert.True(suite.T(), suite.flow.Authenticated())
}

func (suite *SignInFlowTestSuite) TestBusyGuard_SecondSubmissionRejected() {
	ctx := context.Background()
	entered := make(chan struct{})
	release := make(chan struct{})
	suite.client.On("LookupIdentifier", ctx, "john@x.com").
		Run(func(args mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(verifiedUser(true), nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		suite.flow.SubmitIdentifier(ctx, "john@x.com")
	}()

	// The first submission holds the in-flight slot until released.
	<-entered
	ferr := suite.flow.SubmitIdentifier(ctx, "again")
	assert.Equal(suite.T(), model.MsgRequestInFlight, ferr.Message)

	close(release)
	wg.Wait()

	suite.client.AssertNumberOfCalls(suite.T(), "LookupIdentifier", 1)
	assert.Equal(suite.T(), model.StepPassword, suite.flow.Step())
}

func (suite *SignInFlowTestSuite) TestAbandonedContext_DiscardsResolution() {
	ctx, cancel := context.WithCancel(context.Background())
	suite.client.On("LookupIdentifier", ctx, "john@x.com").
		Run(func(args mock.Arguments) { cancel() }).
		Return(verifiedUser(true), nil)

	ferr := suite.flow.SubmitIdentifier(ctx, "john@x.com")

	assert.True(suite.T(), ferr.IsZero())
	assert.Equal(suite.T(), model.StepIdentifier, suite.flow.Step())
	assert.Nil(suite.T(), suite.flow.User())
}

func TestSignInFlowTestSuite(t *testing.T) {
	suite.Run(t, new(SignInFlowTestSuite))
}
