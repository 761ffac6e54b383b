package domain

// Enrollment selects how a User is created. It is one of PhoneEnrollment, PasswordEnrollment
// or ImportedEnrollment.
type Enrollment interface {
	enrollment()
}

// PhoneEnrollment signs a user up by phone. The initial password is a generated access code.
type PhoneEnrollment struct {
	Phone string
}

// PasswordEnrollment signs a user up by email and password.
type PasswordEnrollment struct {
	Email    string
	Password string
}

// ImportedEnrollment carries credentials hashed elsewhere. Salt and Hash are stored as given.
// Email and Phone may both be set. With neither, the user has no login.
type ImportedEnrollment struct {
	Email string
	Phone string
	Salt  string
	Hash  string
}

func (PhoneEnrollment) enrollment()    {}
func (PasswordEnrollment) enrollment() {}
func (ImportedEnrollment) enrollment() {}

// Meta keys and values recording enrollment provenance.
const (
	MetaAuth   = "auth"
	MetaSource = "src"

	AuthSMS      = "sms"
	AuthPassword = "password"
	SourceCSV    = "csv"
)
