package model

import "time"

// VerificationStatus is the membership verification state returned by
// the identifier lookup.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationVerified VerificationStatus = "VERIFIED"
	VerificationRejected VerificationStatus = "REJECTED"
)

// UserDetails is the account summary returned by the identifier lookup.
// It is immutable for the duration of one sign-in attempt and discarded
// when the flow goes back to the identifier step.
type UserDetails struct {
	ID                 string
	Name               string
	PhotoURL           *string
	VerificationStatus VerificationStatus
	HasPassword        bool
}

// SecurityQuestion is the pre-registered recovery question.
type SecurityQuestion string

const (
	QuestionFirstPet         SecurityQuestion = "FIRST_PET"
	QuestionMotherMaidenName SecurityQuestion = "MOTHER_MAIDEN_NAME"
	QuestionFirstSchool      SecurityQuestion = "FIRST_SCHOOL"
	QuestionBirthTown        SecurityQuestion = "BIRTH_TOWN"
	QuestionFavouriteTeacher SecurityQuestion = "FAVOURITE_TEACHER"
)

// Valid reports whether q is one of the five registered questions.
func (q SecurityQuestion) Valid() bool {
	switch q {
	case QuestionFirstPet, QuestionMotherMaidenName, QuestionFirstSchool,
		QuestionBirthTown, QuestionFavouriteTeacher:
		return true
	}
	return false
}

// RecoveryUser is the subject of a forgot-password flow.
type RecoveryUser struct {
	ID               string
	Name             string
	SecurityQuestion SecurityQuestion
}

// UserStatus is the professional branch selector of the profile form.
type UserStatus string

const (
	StatusWorking UserStatus = "WORKING"
	StatusRetired UserStatus = "RETIRED"
)

// CompleteUser is the server-known member record. It is the source of
// truth for the resumable wizard start stage and for the app-state
// cache.
type CompleteUser struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	DOB                string             `json:"dob"`
	Gender             string             `json:"gender"`
	BloodGroup         string             `json:"bloodGroup"`
	UserStatus         UserStatus         `json:"userStatus"`
	Department         string             `json:"department"`
	Designation        string             `json:"designation"`
	WorkDistrict       string             `json:"workDistrict"`
	OfficeAddress      string             `json:"officeAddress"`
	RetiredDepartment  string             `json:"retiredDepartment"`
	PersonalAddress    string             `json:"personalAddress"`
	HomeDistrict       string             `json:"homeDistrict"`
	Email              string             `json:"email"`
	PhoneNumber        string             `json:"phoneNumber"`
	MobileNumber       string             `json:"mobileNumber"`
	PhotoURL           string             `json:"photoUrl"`
	PhotoID            string             `json:"photoId"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
}

// Professional resolves the record's professional branch, nil when the
// member has not chosen a service status yet.
func (u CompleteUser) Professional() Professional {
	switch u.UserStatus {
	case StatusWorking:
		return Working{
			Department:    u.Department,
			Designation:   u.Designation,
			WorkDistrict:  u.WorkDistrict,
			OfficeAddress: u.OfficeAddress,
		}
	case StatusRetired:
		return Retired{Department: u.RetiredDepartment}
	}
	return nil
}

// AdminRequestType names the administrative request kinds a member can
// submit.
type AdminRequestType string

const (
	RequestPromotion  AdminRequestType = "PROMOTION"
	RequestTransfer   AdminRequestType = "TRANSFER"
	RequestRetirement AdminRequestType = "RETIREMENT"
)

// AdminRequest is the latest administrative request on record for the
// signed-in member.
type AdminRequest struct {
	ID          string           `json:"id"`
	Type        AdminRequestType `json:"type"`
	Status      string           `json:"status"`
	SubmittedAt time.Time        `json:"submittedAt"`
}

// Account bundles what the server reports about the signed-in member.
type Account struct {
	User          CompleteUser  `json:"user"`
	LatestRequest *AdminRequest `json:"latestRequest"`
}
