package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"user-enrollment/backend/internal/notify"
	"user-enrollment/backend/internal/telemetry"
	"user-enrollment/backend/internal/user/domain"
	"user-enrollment/backend/internal/user/repository"
)

var (
	ErrLoginTaken         = errors.New("login already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")

	errNoLogin = &domain.ValidationError{Reason: "email or phone must be supplied"}
)

// AccountService registers, authenticates and imports users on top of a Repository.
type AccountService struct {
	factory  *Factory
	repo     repository.Repository
	notifier notify.Notifier
	events   telemetry.EventEmitter
	log      logrus.FieldLogger
}

// NewAccountService returns an AccountService. notifier receives reset codes for users with a
// phone and is wrapped so delivery never blocks; events may be nil.
func NewAccountService(
	factory *Factory,
	repo repository.Repository,
	notifier notify.Notifier,
	events telemetry.EventEmitter,
	log logrus.FieldLogger,
) *AccountService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if notifier == nil {
		notifier = notify.Discard
	}
	if _, ok := notifier.(*notify.Async); !ok {
		notifier = notify.NewAsync(notifier, notify.DefaultTimeout, log)
	}
	if events == nil {
		events = telemetry.Nop{}
	}
	return &AccountService{factory: factory, repo: repo, notifier: notifier, events: events, log: log}
}

// RegisterByPhone enrolls a user by phone. The phone must be '+' followed by 11 digits.
func (s *AccountService) RegisterByPhone(ctx context.Context, fullName, phone string) (*domain.User, error) {
	if !domain.IsValidPhone(phone) {
		return nil, &domain.ValidationError{Field: "phone", Reason: "enter a valid phone number starting with + and containing 11 digits"}
	}
	if err := s.ensureFree(ctx, domain.NormalizePhone(phone)); err != nil {
		return nil, err
	}
	u, err := s.factory.MakeUser(fullName, "", "", phone)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, u, telemetry.EventUserEnrolled, domain.AuthSMS)
}

// RegisterByEmail enrolls a user by email and password.
func (s *AccountService) RegisterByEmail(ctx context.Context, fullName, email, password string) (*domain.User, error) {
	if err := s.ensureFree(ctx, strings.ToLower(email)); err != nil {
		return nil, err
	}
	u, err := s.factory.MakeUser(fullName, email, password, "")
	if err != nil {
		return nil, err
	}
	return s.create(ctx, u, telemetry.EventUserEnrolled, domain.AuthPassword)
}

// Authenticate returns the user for login when password verifies, else ErrInvalidCredentials.
func (s *AccountService) Authenticate(ctx context.Context, login, password string) (*domain.User, error) {
	u, err := s.lookup(ctx, login)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if !u.CheckPassword(password) {
		s.emit(ctx, u, telemetry.EventAuthFailed, "")
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// ChangePassword rotates the password of login. A wrong old password is an AuthenticationError.
func (s *AccountService) ChangePassword(ctx context.Context, login, oldPassword, newPassword string) error {
	u, err := s.mustLookup(ctx, login)
	if err != nil {
		return err
	}
	if err := u.ChangePassword(oldPassword, newPassword); err != nil {
		s.emit(ctx, u, telemetry.EventAuthFailed, "")
		return err
	}
	if err := s.repo.UpdateCredentials(ctx, u); err != nil {
		return fmt.Errorf("update credentials: %w", err)
	}
	s.emit(ctx, u, telemetry.EventPasswordChanged, "")
	return nil
}

// ResetPassword replaces the password of login with a fresh access code and returns it. Users
// with a phone also receive the code through the notifier.
func (s *AccountService) ResetPassword(ctx context.Context, login string) (string, error) {
	u, err := s.mustLookup(ctx, login)
	if err != nil {
		return "", err
	}
	code, err := u.ResetPassword()
	if err != nil {
		return "", err
	}
	if err := s.repo.UpdateCredentials(ctx, u); err != nil {
		return "", fmt.Errorf("update credentials: %w", err)
	}
	if u.Phone() != "" {
		_ = s.notifier.Notify(ctx, u.Phone(), code)
	}
	s.emit(ctx, u, telemetry.EventPasswordReset, "")
	return code, nil
}

// RowError is an import row rejected by validation.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

// ImportReport summarizes an Import run.
type ImportReport struct {
	Imported   int
	Skipped    int
	Duplicates int
	Failed     []RowError
}

const tracerName = "user-enrollment/backend/internal/user/service"

// Import column names, matched case-insensitively against the header row.
const (
	colFullName = "fullname"
	colEmail    = "email"
	colAccess   = "access"
	colPhone    = "phone"
)

// Import reads delimiter-separated records with a header row naming fullName, email, access
// and phone. Rows missing fullName or access are skipped, rows failing validation are reported
// in Failed, and logins already stored are counted as duplicates. A repository failure stops
// the import.
func (s *AccountService) Import(ctx context.Context, r io.Reader, delimiter rune) (report ImportReport, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "AccountService.Import")
	defer func() {
		span.SetAttributes(
			attribute.Int("import.imported", report.Imported),
			attribute.Int("import.skipped", report.Skipped),
			attribute.Int("import.duplicates", report.Duplicates),
			attribute.Int("import.failed", len(report.Failed)),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return report, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{colFullName, colAccess} {
		if _, ok := cols[required]; !ok {
			return report, fmt.Errorf("header is missing column %q", required)
		}
	}
	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				report.Failed = append(report.Failed, RowError{Line: perr.Line, Err: perr.Err})
				continue
			}
			return report, err
		}
		line, _ := cr.FieldPos(0)

		u, err := s.factory.MakeImportUser(
			field(rec, colFullName), field(rec, colEmail), field(rec, colAccess), field(rec, colPhone))
		if err != nil {
			report.Failed = append(report.Failed, RowError{Line: line, Err: err})
			continue
		}
		if u == nil {
			report.Skipped++
			continue
		}
		if u.Login() == "" {
			report.Failed = append(report.Failed, RowError{Line: line, Err: errNoLogin})
			continue
		}
		if err := s.repo.Create(ctx, u); err != nil {
			if errors.Is(err, repository.ErrDuplicateLogin) {
				report.Duplicates++
				continue
			}
			return report, fmt.Errorf("line %d: %w", line, err)
		}
		report.Imported++
		s.emit(ctx, u, telemetry.EventUserImported, domain.SourceCSV)
	}

	s.log.WithFields(logrus.Fields{
		"imported":   report.Imported,
		"skipped":    report.Skipped,
		"duplicates": report.Duplicates,
		"failed":     len(report.Failed),
	}).Info("import finished")
	return report, nil
}

func (s *AccountService) create(ctx context.Context, u *domain.User, event, source string) (*domain.User, error) {
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateLogin) {
			return nil, ErrLoginTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.emit(ctx, u, event, source)
	return u, nil
}

func (s *AccountService) ensureFree(ctx context.Context, login string) error {
	if login == "" {
		return nil
	}
	existing, err := s.repo.GetByLogin(ctx, login)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrLoginTaken
	}
	return nil
}

// lookup matches the stored login exactly, then retries a formatted phone in normalized form.
func (s *AccountService) lookup(ctx context.Context, login string) (*domain.User, error) {
	key := strings.ToLower(strings.TrimSpace(login))
	if key == "" {
		return nil, nil
	}
	u, err := s.repo.GetByLogin(ctx, key)
	if err != nil || u != nil {
		return u, err
	}
	if p := domain.NormalizePhone(key); domain.IsValidPhone(p) && p != key {
		return s.repo.GetByLogin(ctx, p)
	}
	return nil, nil
}

func (s *AccountService) mustLookup(ctx context.Context, login string) (*domain.User, error) {
	u, err := s.lookup(ctx, login)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *AccountService) emit(ctx context.Context, u *domain.User, eventType, source string) {
	telemetry.EmitAsync(s.events, s.log, ctx, &telemetry.Event{
		Type:   eventType,
		UserID: u.ID(),
		Login:  loginField(u),
		Source: source,
	})
}
