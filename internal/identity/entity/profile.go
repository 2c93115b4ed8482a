package entity

import (
	"strconv"
	"time"
)

// UserType classifies a user account.
type UserType int16

const (
	UserTypeIndividual UserType = 1
	UserTypeBusiness   UserType = 2
	UserTypeAgent      UserType = 3
)

// Gender as captured on profile forms.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// RegistrationKey tells the client where to go after phone verification.
type RegistrationKey int

const (
	RegistrationComplete RegistrationKey = 1
	RegistrationRequired RegistrationKey = 2
)

// Document field names, also used as object key prefixes.
const (
	DocAddressProof  = "address_proof"
	DocIdentityProof = "identity_proof"
	DocProfileLogo   = "profile_logo"
)

// DocumentKey builds the object key for an uploaded profile document.
func DocumentKey(field string, userID int64, at time.Time, filename string) string {
	return field + "/" + strconv.FormatInt(userID, 10) + "/" + strconv.FormatInt(at.Unix(), 10) + "_" + filename
}

// UserProfile is the data saved when a user completes registration.
type UserProfile struct {
	UserID             int64
	FullName           string
	Email              string
	UserType           UserType
	Gender             Gender
	DOBOrIncorporation time.Time
	GSTDetails         string
	AadhaarNumber      string
	PANNumber          string
	AddressLine        string
	State              string
	City               string
	Pincode            string
	AddressProof       string
	IdentityProof      string
	ProfileLogo        string
	PasswordHash       string
}

// NewAdmin is an admin account provisioned by a SuperAdmin.
type NewAdmin struct {
	ID           int64
	FullName     string
	Email        string
	Phone        string
	Role         Role
	Gender       Gender
	Designation  string
	Department   string
	EmployeeID   string
	PasswordHash string
}

// NewUser is a user account provisioned by a SupportExecutive.
type NewUser struct {
	ID           int64
	FullName     string
	Phone        string
	Email        string
	UserType     UserType
	PANNumber    string
	AdminID      int64
	PasswordHash string
}

// AdminSummary is an admin row as shown on the dashboard.
type AdminSummary struct {
	ID          int64
	FullName    string
	Email       string
	Phone       string
	Role        Role
	Designation string
	Department  string
	EmployeeID  string
	CreatedAt   time.Time
}

// UserSummary is a user row as shown on the dashboard.
type UserSummary struct {
	ID          int64
	FullName    string
	Email       string
	Phone       string
	UserType    UserType
	IsVerified  bool
	ProfileLogo string
	AdminID     *int64
	CreatedAt   time.Time
}
