package model

// Stage is a profile wizard stage index.
type Stage int

const (
	StagePersonal Stage = iota
	StageProfessional
	StageContact
	StagePhoto

	// StageLast is the terminal stage from which submission happens.
	StageLast = StagePhoto
)

// String returns the stage title shown to the user.
func (s Stage) String() string {
	switch s {
	case StagePersonal:
		return "Personal"
	case StageProfessional:
		return "Professional"
	case StageContact:
		return "Contact"
	case StagePhoto:
		return "Photo"
	}
	return "Unknown"
}

// Field names a profile form field. The values match the wire keys of
// the profile PATCH payload.
type Field string

const (
	FieldIdentifier        Field = "identifier"
	FieldPassword          Field = "password"
	FieldSecurityQuestion  Field = "securityQuestion"
	FieldSecurityAnswer    Field = "securityAnswer"
	FieldName              Field = "name"
	FieldDOB               Field = "dob"
	FieldGender            Field = "gender"
	FieldBloodGroup        Field = "bloodGroup"
	FieldUserStatus        Field = "userStatus"
	FieldDepartment        Field = "department"
	FieldDesignation       Field = "designation"
	FieldWorkDistrict      Field = "workDistrict"
	FieldOfficeAddress     Field = "officeAddress"
	FieldRetiredDepartment Field = "retiredDepartment"
	FieldPersonalAddress   Field = "personalAddress"
	FieldHomeDistrict      Field = "homeDistrict"
	FieldEmail             Field = "email"
	FieldPhoneNumber       Field = "phoneNumber"
	FieldMobileNumber      Field = "mobileNumber"
	FieldPhotoURL          Field = "photoUrl"
	FieldPhotoID           Field = "photoId"
)

// FormErrors maps a field to a human-readable message. Absence of a key
// means the field is currently valid. Maps are recomputed per stage,
// never globally.
type FormErrors map[Field]string

// RegisterForm is the flat entry record behind the four wizard stages.
// Optional fields (officeAddress, phoneNumber, photoUrl, photoId) are
// omitted from the wire payload when empty.
type RegisterForm struct {
	// Personal
	Name       string `json:"name"`
	DOB        string `json:"dob"`
	Gender     string `json:"gender"`
	BloodGroup string `json:"bloodGroup"`

	// Professional
	UserStatus        UserStatus `json:"userStatus"`
	Department        string     `json:"department,omitempty"`
	Designation       string     `json:"designation,omitempty"`
	WorkDistrict      string     `json:"workDistrict,omitempty"`
	OfficeAddress     string     `json:"officeAddress,omitempty"`
	RetiredDepartment string     `json:"retiredDepartment,omitempty"`

	// Contact
	PersonalAddress string `json:"personalAddress"`
	HomeDistrict    string `json:"homeDistrict"`
	Email           string `json:"email"`
	PhoneNumber     string `json:"phoneNumber,omitempty"`
	MobileNumber    string `json:"mobileNumber"`

	// Photo
	PhotoURL string `json:"photoUrl,omitempty"`
	PhotoID  string `json:"photoId,omitempty"`
}

// Professional is the mode-dependent professional section, resolved
// from the flat form or the server record. The two variants carry
// mutually exclusive required-field sets.
type Professional interface {
	isProfessional()
}

// Working is the professional section of an in-service member.
type Working struct {
	Department    string
	Designation   string
	WorkDistrict  string
	OfficeAddress string // optional
}

// Retired is the professional section of a retired member.
type Retired struct {
	Department string
}

func (Working) isProfessional() {}
func (Retired) isProfessional() {}

// Professional resolves the flat form's professional branch. It returns
// nil when no user status has been chosen yet.
func (f RegisterForm) Professional() Professional {
	switch f.UserStatus {
	case StatusWorking:
		return Working{
			Department:    f.Department,
			Designation:   f.Designation,
			WorkDistrict:  f.WorkDistrict,
			OfficeAddress: f.OfficeAddress,
		}
	case StatusRetired:
		return Retired{Department: f.RetiredDepartment}
	}
	return nil
}
