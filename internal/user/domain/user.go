package domain

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Credentials derives and checks password digests for a User. Implemented by security.Engine.
type Credentials interface {
	GenerateSalt() (string, error)
	GenerateAccessCode() (string, error)
	Derive(salt, secret string) string
	Verify(salt, hash, candidate string) bool
	Rotate(oldSecret, newSecret, salt, hash string) (string, error)
	Reset(salt string) (code, hash string, err error)
}

// User is an enrolled identity. Values are only obtained from NewUser or Restore and always
// carry a password hash. A User is not safe for concurrent mutation.
type User struct {
	id         string
	firstName  string
	lastName   string
	login      string
	email      string
	phone      string
	salt       string
	hash       string
	accessCode string
	meta       map[string]string
	info       string
	createdAt  time.Time
	updatedAt  time.Time

	creds Credentials
}

// NewUser validates the identity fields and binds credentials according to the enrollment.
// It returns either a fully credentialed User or an error, never a partial value.
func NewUser(creds Credentials, firstName, lastName string, e Enrollment) (*User, error) {
	if strings.TrimSpace(firstName) == "" {
		return nil, invalid("firstName", "must not be blank")
	}
	now := time.Now().UTC()
	u := &User{
		id:        uuid.New().String(),
		firstName: firstName,
		lastName:  strings.TrimSpace(lastName),
		createdAt: now,
		updatedAt: now,
		creds:     creds,
	}

	switch e := e.(type) {
	case PhoneEnrollment:
		u.phone = NormalizePhone(e.Phone)
		if u.phone == "" {
			return nil, invalid("phone", "must not be blank")
		}
		u.login = strings.ToLower(u.phone)
		u.meta = map[string]string{MetaAuth: AuthSMS}
		salt, err := creds.GenerateSalt()
		if err != nil {
			return nil, fmt.Errorf("generate salt: %w", err)
		}
		code, err := creds.GenerateAccessCode()
		if err != nil {
			return nil, fmt.Errorf("generate access code: %w", err)
		}
		u.salt = salt
		u.hash = creds.Derive(salt, code)
		u.accessCode = code

	case PasswordEnrollment:
		if strings.TrimSpace(e.Email) == "" {
			return nil, invalid("email", "must not be blank")
		}
		if strings.TrimSpace(e.Password) == "" {
			return nil, invalid("password", "must not be blank")
		}
		u.email = e.Email
		u.login = strings.ToLower(e.Email)
		u.meta = map[string]string{MetaAuth: AuthPassword}
		salt, err := creds.GenerateSalt()
		if err != nil {
			return nil, fmt.Errorf("generate salt: %w", err)
		}
		u.salt = salt
		u.hash = creds.Derive(salt, e.Password)

	case ImportedEnrollment:
		if strings.TrimSpace(e.Hash) == "" {
			return nil, invalid("access", "password hash must not be blank")
		}
		if strings.TrimSpace(e.Email) != "" {
			u.email = e.Email
		}
		u.phone = NormalizePhone(e.Phone)
		// A record with neither identifier is accepted with an empty login; callers that
		// persist users reject it.
		switch {
		case u.email != "":
			u.login = strings.ToLower(u.email)
		case u.phone != "":
			u.login = u.phone
		}
		u.meta = map[string]string{MetaSource: SourceCSV}
		u.salt = e.Salt
		u.hash = e.Hash

	default:
		return nil, invalid("", "unsupported enrollment %T", e)
	}

	u.info = u.renderInfo()
	return u, nil
}

// Record is the persisted form of a User. The transient access code is not part of it.
type Record struct {
	ID           string
	FirstName    string
	LastName     string
	Login        string
	Email        string
	Phone        string
	Salt         string
	PasswordHash string
	Meta         map[string]string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Restore rebuilds a stored User. It is not an enrollment path: credentials are taken as stored.
func Restore(creds Credentials, r Record) (*User, error) {
	if strings.TrimSpace(r.FirstName) == "" {
		return nil, invalid("firstName", "must not be blank")
	}
	if r.Login == "" {
		return nil, invalid("login", "must not be blank")
	}
	if r.PasswordHash == "" {
		return nil, invalid("passwordHash", "must not be blank")
	}
	u := &User{
		id:         r.ID,
		firstName:  r.FirstName,
		lastName:   r.LastName,
		login:      strings.ToLower(r.Login),
		email:      r.Email,
		phone:      NormalizePhone(r.Phone),
		salt:       r.Salt,
		hash:       r.PasswordHash,
		meta:       maps.Clone(r.Meta),
		createdAt:  r.CreatedAt,
		updatedAt:  r.UpdatedAt,
		creds:      creds,
	}
	if u.meta == nil {
		u.meta = map[string]string{}
	}
	u.info = u.renderInfo()
	return u, nil
}

// Record returns the persisted form of u.
func (u *User) Record() Record {
	return Record{
		ID:           u.id,
		FirstName:    u.firstName,
		LastName:     u.lastName,
		Login:        u.login,
		Email:        u.email,
		Phone:        u.phone,
		Salt:         u.salt,
		PasswordHash: u.hash,
		Meta:         u.Meta(),
		CreatedAt:    u.createdAt,
		UpdatedAt:    u.updatedAt,
	}
}

func (u *User) ID() string { return u.id }
func (u *User) FirstName() string { return u.firstName }
func (u *User) LastName() string { return u.lastName }
func (u *User) Login() string { return u.login }
func (u *User) Email() string { return u.email }
func (u *User) Phone() string { return u.phone }
func (u *User) Salt() string { return u.salt }
func (u *User) PasswordHash() string { return u.hash }
func (u *User) AccessCode() string { return u.accessCode }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }
func (u *User) Meta() map[string]string { return maps.Clone(u.meta) }

// Info is the summary captured when the User was built. It is not refreshed afterwards.
func (u *User) Info() string { return u.info }

// FullName joins the present name parts with only the first letter of each upper-cased.
func (u *User) FullName() string {
	upper := cases.Upper(language.Und)
	parts := u.nameParts()
	for i, p := range parts {
		_, size := utf8.DecodeRuneInString(p)
		parts[i] = upper.String(p[:size]) + p[size:]
	}
	return strings.Join(parts, " ")
}

// Initials returns the upper-cased first letter of each present name part.
func (u *User) Initials() string {
	parts := u.nameParts()
	for i, p := range parts {
		r, _ := utf8.DecodeRuneInString(p)
		parts[i] = string(unicode.ToUpper(r))
	}
	return strings.Join(parts, " ")
}

// CheckPassword reports whether candidate matches the stored credentials.
func (u *User) CheckPassword(candidate string) bool {
	return u.creds.Verify(u.salt, u.hash, candidate)
}

// CheckPhone reports whether candidate normalizes to the stored phone.
func (u *User) CheckPhone(candidate string) bool {
	return u.phone != "" && NormalizePhone(candidate) == u.phone
}

// ChangePassword replaces the password when oldPassword verifies. On failure the User is left
// unchanged and an AuthenticationError is returned.
func (u *User) ChangePassword(oldPassword, newPassword string) error {
	hash, err := u.creds.Rotate(oldPassword, newPassword, u.salt, u.hash)
	if err != nil {
		return &AuthenticationError{Err: err}
	}
	u.hash = hash
	u.accessCode = ""
	u.updatedAt = time.Now().UTC()
	return nil
}

// ResetPassword replaces the password with a fresh access code and returns the code.
func (u *User) ResetPassword() (string, error) {
	code, hash, err := u.creds.Reset(u.salt)
	if err != nil {
		return "", fmt.Errorf("reset password: %w", err)
	}
	u.hash = hash
	u.accessCode = code
	u.updatedAt = time.Now().UTC()
	return code, nil
}

func (u *User) nameParts() []string {
	parts := []string{u.firstName}
	if u.lastName != "" {
		parts = append(parts, u.lastName)
	}
	return parts
}

func (u *User) renderInfo() string {
	var b strings.Builder
	fmt.Fprintf(&b, "firstName: %s\n", u.firstName)
	fmt.Fprintf(&b, "lastName: %s\n", orNull(u.lastName))
	fmt.Fprintf(&b, "login: %s\n", u.login)
	fmt.Fprintf(&b, "fullName: %s\n", u.FullName())
	fmt.Fprintf(&b, "initials: %s\n", u.Initials())
	fmt.Fprintf(&b, "email: %s\n", orNull(u.email))
	fmt.Fprintf(&b, "phone: %s\n", orNull(u.phone))
	fmt.Fprintf(&b, "meta: %s", formatMeta(u.meta))
	return b.String()
}

func orNull(s string) string {
	if s == "" {
		return "null"
	}
	return s
}

func formatMeta(m map[string]string) string {
	pairs := make([]string, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		pairs = append(pairs, k+"="+m[k])
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}
