package authguard

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var usernameCharset = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

var registrationValidator = func() *validator.Validate {
	v := validator.New()
	// letters, digits, dots, dashes and underscores only
	must(v.RegisterValidation("username_charset", func(fl validator.FieldLevel) bool {
		return usernameCharset.MatchString(fl.Field().String())
	}))
	return v
}()

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Validate checks the registration before it is sent to the backend.
// The backend remains authoritative; this only catches input the server
// would certainly reject. All problems are joined into a single error.
func (r Registration) Validate() error {
	var errs []error

	if err := registrationValidator.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fieldError(fe))
			}
		} else {
			errs = append(errs, err)
		}
	}

	errs = append(errs, passwordErrors(r.Password)...)
	return errors.Join(errs...)
}

func fieldError(fe validator.FieldError) error {
	switch fe.Field() {
	case "Username":
		switch fe.Tag() {
		case "min":
			return errors.New("username must be at least 3 characters")
		case "max":
			return errors.New("username cannot exceed 50 characters")
		case "username_charset":
			return errors.New("username may only contain letters, digits, dots, dashes and underscores")
		}
		return errors.New("username is required")
	case "Email":
		if fe.Tag() == "email" {
			return errors.New("email address is not valid")
		}
		return errors.New("email is required")
	case "Password":
		return errors.New("password is required")
	default:
		return fmt.Errorf("%s is required", strings.ToLower(fe.Field()))
	}
}

// passwordSpecials is the closed set of characters that satisfy the
// special-character rule. Letters outside ASCII (é, ü) do not count.
const passwordSpecials = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`

// passwordErrors enforces the backend's password policy: at least 8
// characters with a lowercase, an uppercase, a digit and a special
// character. An empty password is reported by the struct validator only.
func passwordErrors(password string) []error {
	if password == "" {
		return nil
	}

	var errs []error
	if len(password) < 8 {
		errs = append(errs, errors.New("password must be at least 8 characters"))
	}

	var lower, upper, digit, special bool
	for _, c := range password {
		switch {
		case unicode.IsLower(c):
			lower = true
		case unicode.IsUpper(c):
			upper = true
		case unicode.IsDigit(c):
			digit = true
		case strings.ContainsRune(passwordSpecials, c):
			special = true
		}
	}
	if !lower {
		errs = append(errs, errors.New("password must contain a lowercase letter"))
	}
	if !upper {
		errs = append(errs, errors.New("password must contain an uppercase letter"))
	}
	if !digit {
		errs = append(errs, errors.New("password must contain a digit"))
	}
	if !special {
		errs = append(errs, errors.New("password must contain a special character"))
	}
	return errs
}
