package biz

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"memberflow/internal/biz/model"
	"memberflow/internal/pkg/validate"
	"memberflow/internal/service"
)

// WizardVariant distinguishes the pre-authentication registration form
// from the complete-account form of an already signed-in member.
type WizardVariant int

const (
	VariantRegistration WizardVariant = iota
	VariantCompleteAccount
)

// WizardFactory builds profile wizards.
type WizardFactory struct {
	client service.IdentityAPI
	state  *AppState
	l      *zap.Logger
}

func NewWizardFactory(client service.IdentityAPI, state *AppState, logger *zap.Logger) *WizardFactory {
	return &WizardFactory{
		client: client,
		state:  state,
		l:      logger,
	}
}

// Registration returns an empty wizard starting at the first stage.
func (wf *WizardFactory) Registration() *Wizard {
	return &Wizard{
		client:  wf.client,
		state:   wf.state,
		l:       wf.l,
		variant: VariantRegistration,
		errors:  model.FormErrors{},
	}
}

// CompleteAccount returns a wizard prefilled from the server-known
// record, starting at the first stage whose required fields are still
// missing.
func (wf *WizardFactory) CompleteAccount(user model.CompleteUser) *Wizard {
	return &Wizard{
		client:  wf.client,
		state:   wf.state,
		l:       wf.l,
		variant: VariantCompleteAccount,
		stage:   ResumeStage(user),
		form:    prefill(user),
		errors:  model.FormErrors{},
	}
}

// Wizard is the four-stage linear profile form. Next validates the
// current stage before advancing; Previous always succeeds and keeps
// entered data. Submission is only reachable from the Photo stage.
type Wizard struct {
	client service.IdentityAPI
	state  *AppState
	l      *zap.Logger

	variant WizardVariant

	mu     sync.Mutex
	busy   bool
	stage  model.Stage
	form   model.RegisterForm
	errors model.FormErrors
	err    model.FlowError
	done   bool
}

// Stage returns the active stage index.
func (w *Wizard) Stage() model.Stage {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stage
}

// Form returns a snapshot of the entered data.
func (w *Wizard) Form() model.RegisterForm {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form
}

// Update applies edits to the form without validating. Validation only
// happens on Next and Submit.
func (w *Wizard) Update(edit func(*model.RegisterForm)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	edit(&w.form)
}

// Errors returns the field errors of the last failed validation.
func (w *Wizard) Errors() model.FormErrors {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.errors
}

// Err returns the last submission error.
func (w *Wizard) Err() model.FlowError {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Done reports whether the profile was submitted successfully.
func (w *Wizard) Done() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.done
}

// Next validates the current stage and advances on success. On failure
// the stage is unchanged and the field errors are kept.
func (w *Wizard) Next() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	errs := ValidateStage(w.stage, w.form)
	w.errors = errs
	if len(errs) > 0 {
		return false
	}
	if w.stage < model.StageLast {
		w.stage++
	}
	return true
}

// Previous steps back without validating or clearing entered data.
func (w *Wizard) Previous() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stage > model.StagePersonal {
		w.stage--
	}
}

// Submit re-validates the last stage, normalizes the form and sends it.
// A server rejection leaves the wizard on the Photo stage; on success
// the complete-account variant refetches the cached user data.
func (w *Wizard) Submit(ctx context.Context) model.FlowError {
	w.mu.Lock()
	stage := w.stage
	form := w.form
	w.mu.Unlock()

	if stage != model.StageLast {
		e := model.BusinessError("Complete all stages first")
		w.mu.Lock()
		w.err = e
		w.mu.Unlock()
		return e
	}

	errs := ValidateStage(stage, form)
	if len(errs) > 0 {
		w.mu.Lock()
		w.errors = errs
		e := model.ValidationError("", "Fix the highlighted fields")
		w.err = e
		w.mu.Unlock()
		return e
	}

	if !w.begin() {
		return model.BusinessError(model.MsgRequestInFlight)
	}
	defer w.finish()

	form.DOB = validate.NormalizeDate(form.DOB)

	user, err := w.client.SubmitProfile(ctx, form)
	if abandoned(ctx) {
		return model.FlowError{}
	}
	if err != nil {
		e := classifyError(w.l, "profile submit", err)
		w.mu.Lock()
		w.err = e
		w.mu.Unlock()
		return e
	}

	if w.variant == VariantCompleteAccount {
		if err := w.state.Refetch(ctx); err != nil {
			w.l.Warn("refetch after profile submit failed", zap.Error(err))
		}
	}

	w.l.Info("profile submitted", zap.String("user_id", user.ID))

	w.mu.Lock()
	defer w.mu.Unlock()
	w.errors = model.FormErrors{}
	w.err = model.FlowError{}
	w.done = true
	return model.FlowError{}
}

func (w *Wizard) begin() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy {
		return false
	}
	w.busy = true
	return true
}

func (w *Wizard) finish() {
	w.mu.Lock()
	w.busy = false
	w.mu.Unlock()
}

// ValidateStage checks only the given stage's fields and returns a map
// keyed by field; an empty map means the stage may be left.
func ValidateStage(stage model.Stage, form model.RegisterForm) model.FormErrors {
	errs := model.FormErrors{}

	switch stage {
	case model.StagePersonal:
		if strings.TrimSpace(form.Name) == "" {
			errs[model.FieldName] = "Name is required"
		}
		if form.DOB == "" {
			errs[model.FieldDOB] = "Date of birth is required"
		} else if !validate.Date(form.DOB) {
			errs[model.FieldDOB] = "Enter a valid date"
		}
		if form.Gender == "" {
			errs[model.FieldGender] = "Gender is required"
		}
		if form.BloodGroup == "" {
			errs[model.FieldBloodGroup] = "Blood group is required"
		}

	case model.StageProfessional:
		switch prof := form.Professional().(type) {
		case model.Working:
			if prof.Department == "" {
				errs[model.FieldDepartment] = "Department is required"
			}
			if prof.Designation == "" {
				errs[model.FieldDesignation] = "Designation is required"
			}
			if prof.WorkDistrict == "" {
				errs[model.FieldWorkDistrict] = "Work district is required"
			}
		case model.Retired:
			if prof.Department == "" {
				errs[model.FieldRetiredDepartment] = "Department is required"
			}
		default:
			errs[model.FieldUserStatus] = "Select your service status"
		}

	case model.StageContact:
		if strings.TrimSpace(form.PersonalAddress) == "" {
			errs[model.FieldPersonalAddress] = "Address is required"
		}
		if form.HomeDistrict == "" {
			errs[model.FieldHomeDistrict] = "Home district is required"
		}
		if form.Email == "" {
			errs[model.FieldEmail] = "Email is required"
		} else if !validate.Email(form.Email) {
			errs[model.FieldEmail] = "Enter a valid email"
		}
		if form.MobileNumber == "" {
			errs[model.FieldMobileNumber] = "Mobile number is required"
		} else if !validate.Mobile(form.MobileNumber) {
			errs[model.FieldMobileNumber] = "Enter a valid mobile number"
		}
		if form.PhoneNumber != "" && !validate.Phone(form.PhoneNumber) {
			errs[model.FieldPhoneNumber] = "Enter a valid phone number"
		}

	case model.StagePhoto:
		// Photo is optional; nothing blocks submission.
	}

	return errs
}

// ResumeStage computes the starting stage from the server-known record:
// the first stage whose required fields are not all present. When every
// stage is already satisfied it falls back to the first stage — the
// historical behavior, kept until product decides on a terminal state.
func ResumeStage(u model.CompleteUser) model.Stage {
	if !personalComplete(u) {
		return model.StagePersonal
	}
	if !professionalComplete(u) {
		return model.StageProfessional
	}
	if !contactComplete(u) {
		return model.StageContact
	}
	if u.PhotoURL == "" {
		return model.StagePhoto
	}
	return model.StagePersonal
}

func personalComplete(u model.CompleteUser) bool {
	return u.Name != "" && u.DOB != "" && u.Gender != "" && u.BloodGroup != ""
}

func professionalComplete(u model.CompleteUser) bool {
	switch prof := u.Professional().(type) {
	case model.Working:
		return prof.Department != "" && prof.Designation != "" && prof.WorkDistrict != ""
	case model.Retired:
		return prof.Department != ""
	}
	return false
}

func contactComplete(u model.CompleteUser) bool {
	return u.PersonalAddress != "" && u.HomeDistrict != "" && u.Email != "" && u.MobileNumber != ""
}

// prefill copies the server-known record into the entry form.
func prefill(u model.CompleteUser) model.RegisterForm {
	return model.RegisterForm{
		Name:              u.Name,
		DOB:               u.DOB,
		Gender:            u.Gender,
		BloodGroup:        u.BloodGroup,
		UserStatus:        u.UserStatus,
		Department:        u.Department,
		Designation:       u.Designation,
		WorkDistrict:      u.WorkDistrict,
		OfficeAddress:     u.OfficeAddress,
		RetiredDepartment: u.RetiredDepartment,
		PersonalAddress:   u.PersonalAddress,
		HomeDistrict:      u.HomeDistrict,
		Email:             u.Email,
		PhoneNumber:       u.PhoneNumber,
		MobileNumber:      u.MobileNumber,
		PhotoURL:          u.PhotoURL,
		PhotoID:           u.PhotoID,
	}
}
