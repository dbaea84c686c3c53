package validators

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"matflow/domain/config"
	"matflow/pkg/errors"
)

// UserValidator validates account fields against the configured limits.
// Messages are client-facing.
type UserValidator struct {
	cfg             *config.DomainConfig
	usernamePattern *regexp.Regexp
}

// NewUserValidator creates a validator using cfg, or defaults when nil.
func NewUserValidator(cfg *config.DomainConfig) *UserValidator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &UserValidator{
		cfg:             cfg,
		usernamePattern: regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`),
	}
}

// ValidateRegistration checks all three registration fields and reports
// every failure at once.
func (v *UserValidator) ValidateRegistration(username, email, password string) error {
	errs := errors.NewValidationErrors()
	if msg := v.usernameProblem(username); msg != "" {
		errs.Add("username", msg)
	}
	if msg := emailProblem(email); msg != "" {
		errs.Add("email", msg)
	}
	if msg := v.passwordProblem(password); msg != "" {
		errs.Add("password", msg)
	}
	return errs.Err()
}

// ValidateLogin only checks presence; credentials are checked against the store.
func (v *UserValidator) ValidateLogin(email, password string) error {
	errs := errors.NewValidationErrors()
	if strings.TrimSpace(email) == "" {
		errs.Add("email", "Email is required!")
	}
	if password == "" {
		errs.Add("password", "Password is required!")
	}
	return errs.Err()
}

func (v *UserValidator) ValidateUsername(username string) error {
	return single("username", v.usernameProblem(username))
}

func (v *UserValidator) ValidateEmail(email string) error {
	return single("email", emailProblem(email))
}

func (v *UserValidator) ValidatePassword(password string) error {
	return single("password", v.passwordProblem(password))
}

// ValidateName checks a display name. Empty clears the name.
func (v *UserValidator) ValidateName(name string) error {
	if utf8.RuneCountInString(name) > v.cfg.MaxNameLength {
		return errors.NewValidationError("Name is too long!")
	}
	return nil
}

// ValidateInstitution checks an institution. Empty clears it.
func (v *UserValidator) ValidateInstitution(institution string) error {
	if utf8.RuneCountInString(institution) > v.cfg.MaxNameLength {
		return errors.NewValidationError("Institution is too long!")
	}
	return nil
}

func (v *UserValidator) usernameProblem(username string) string {
	username = strings.TrimSpace(username)
	switch {
	case username == "":
		return "Username is required!"
	case utf8.RuneCountInString(username) > v.cfg.MaxUsernameLength:
		return "Username is too long!"
	case !v.usernamePattern.MatchString(username):
		return "Username may only contain letters, digits, '.', '-' and '_'!"
	}
	return ""
}

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

func (v *UserValidator) passwordProblem(password string) string {
	switch {
	case password == "":
		return "Password is required!"
	case utf8.RuneCountInString(password) < v.cfg.MinPasswordLength:
		return "Password is too short!"
	case len(password) > MaxPasswordBytes:
		return "Password is too long!"
	}
	return ""
}

func emailProblem(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return "Email is required!"
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return "Invalid email!"
	}
	return ""
}

func single(field, msg string) error {
	if msg == "" {
		return nil
	}
	errs := errors.NewValidationErrors()
	errs.Add(field, msg)
	return errs.Err()
}
