package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"user-enrollment/backend/internal/logging"
	"user-enrollment/backend/internal/notify"
	"user-enrollment/backend/internal/user/domain"
)

// Factory turns raw enrollment input into users.
type Factory struct {
	creds    domain.Credentials
	notifier notify.Notifier
	log      logrus.FieldLogger
}

// NewFactory returns a Factory. Access codes for phone enrollments are handed to notifier
// without waiting for delivery; a nil notifier discards them.
func NewFactory(creds domain.Credentials, notifier notify.Notifier, log logrus.FieldLogger) *Factory {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if notifier == nil {
		notifier = notify.Discard
	}
	if _, ok := notifier.(*notify.Async); !ok {
		notifier = notify.NewAsync(notifier, notify.DefaultTimeout, log)
	}
	return &Factory{creds: creds, notifier: notifier, log: log}
}

// MakeUser enrolls by phone when phone is given, or by email and password. Supplying both
// phone and email, or neither, is a ValidationError.
func (f *Factory) MakeUser(fullName, email, password, phone string) (*domain.User, error) {
	first, last, err := domain.SplitFullName(fullName)
	if err != nil {
		return nil, err
	}
	hasPhone := !isBlank(phone)
	hasEmail := !isBlank(email)

	var e domain.Enrollment
	switch {
	case hasPhone && hasEmail:
		return nil, &domain.ValidationError{Reason: "only one of email or phone must be supplied"}
	case hasPhone:
		e = domain.PhoneEnrollment{Phone: phone}
	case hasEmail && !isBlank(password):
		e = domain.PasswordEnrollment{Email: email, Password: password}
	default:
		return nil, &domain.ValidationError{Reason: "email or phone must be supplied"}
	}

	u, err := domain.NewUser(f.creds, first, last, e)
	if err != nil {
		return nil, err
	}
	if u.AccessCode() != "" {
		_ = f.notifier.Notify(context.Background(), u.Phone(), u.AccessCode())
	}
	f.log.WithFields(logrus.Fields{"login": loginField(u), "auth": u.Meta()[domain.MetaAuth]}).Debug("user enrolled")
	return u, nil
}

// MakeImportUser builds a user from an imported record. A blank fullName or access skips the
// record: it returns (nil, nil). access is "salt:hash" with exactly one ':'.
func (f *Factory) MakeImportUser(fullName, email, access, phone string) (*domain.User, error) {
	if isBlank(fullName) || isBlank(access) {
		return nil, nil
	}
	first, last, err := domain.SplitFullName(fullName)
	if err != nil {
		return nil, err
	}
	salt, hash, ok := strings.Cut(access, ":")
	if !ok || strings.Contains(hash, ":") {
		return nil, &domain.ValidationError{Field: "access", Reason: "must be salt:hash with a single ':'"}
	}
	return domain.NewUser(f.creds, first, last, domain.ImportedEnrollment{
		Email: email,
		Phone: phone,
		Salt:  salt,
		Hash:  hash,
	})
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

func loginField(u *domain.User) string {
	if u.Phone() != "" && u.Login() == u.Phone() {
		return logging.MaskPhone(u.Phone())
	}
	return u.Login()
}
