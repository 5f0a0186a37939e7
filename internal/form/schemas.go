package form

import (
	"regexp"
	"unicode/utf8"
)

var (
	// At least 8 chars with a lowercase, an uppercase, a digit and one of @$!%*?&.
	// Go's regexp has no lookahead, so the classes are checked one by one.
	reLower   = regexp.MustCompile(`[a-z]`)
	reUpper   = regexp.MustCompile(`[A-Z]`)
	reDigit   = regexp.MustCompile(`\d`)
	reSpecial = regexp.MustCompile(`[@$!%*?&]`)
	reStrict  = regexp.MustCompile(`^[A-Za-z\d@$!%*?&]+$`)
	reName    = regexp.MustCompile(`^[A-Za-z\s]+$`)
)

func isStrongPassword(v string) bool {
	return utf8.RuneCountInString(v) >= 8 &&
		reLower.MatchString(v) &&
		reUpper.MatchString(v) &&
		reDigit.MatchString(v) &&
		reSpecial.MatchString(v)
}

// StrongPassword is the login screen's password rule.
func StrongPassword(value string, _ Values) string {
	if !isStrongPassword(value) {
		return "Password must be strong"
	}
	return ""
}

// StrictStrongPassword additionally restricts the alphabet to letters, digits
// and @$!%*?&, as the registration screen does.
func StrictStrongPassword(value string, _ Values) string {
	if !isStrongPassword(value) || !reStrict.MatchString(value) {
		return "Password must be 8+ with uppercase, lowercase, number & special."
	}
	return ""
}

func PersonName(value string, _ Values) string {
	if utf8.RuneCountInString(value) < 4 {
		return "Name must be at least 4 characters long"
	}
	if !reName.MatchString(value) {
		return "Name must contain only alphabets"
	}
	return ""
}

// Matches requires the value to equal the value of another field.
func Matches(other string, msg string) Validator {
	return func(value string, all Values) string {
		if value != all[other] {
			return msg
		}
		return ""
	}
}

// Screen bundles the static description of one auth screen.
type Screen struct {
	Title      string
	ButtonText string
	LinkText   string
	LinkTo     string
	Fields     []Field
}

func (s Screen) NewForm() *Form { return New(s.Fields...) }

func Login() Screen {
	return Screen{
		Title:      "Login",
		ButtonText: "Login",
		LinkText:   "Don't have an account?",
		LinkTo:     "/register",
		Fields: []Field{
			{Name: "email", Label: "Email", Kind: Email, Placeholder: "Enter email"},
			{Name: "password", Label: "Password", Kind: Password, Placeholder: "Enter password", Validate: StrongPassword},
		},
	}
}

func Register() Screen {
	return Screen{
		Title:      "Create Account",
		ButtonText: "Register",
		LinkText:   "Already have an account?",
		LinkTo:     "/login",
		Fields: []Field{
			{Name: "name", Label: "Name", Kind: Text, Placeholder: "Enter name", Validate: PersonName},
			{Name: "email", Label: "Email", Kind: Email, Placeholder: "Enter your Email address"},
			{Name: "password", Label: "Password", Kind: Password, Placeholder: "Enter your password", Validate: StrictStrongPassword},
		},
	}
}

func Forgot() Screen {
	return Screen{
		Title:      "Forgot Password",
		ButtonText: "Send Reset Link",
		LinkText:   "Go back to Login?",
		LinkTo:     "/login",
		Fields: []Field{
			{Name: "email", Label: "Email", Kind: Email, Placeholder: "Enter your email"},
		},
	}
}

func Reset() Screen {
	return Screen{
		Title:      "Reset Password",
		ButtonText: "Reset Password",
		Fields: []Field{
			{Name: "newPassword", Label: "New Password", Kind: Password, Placeholder: "Enter new password"},
			{Name: "confirmPassword", Label: "Confirm Password", Kind: Password, Placeholder: "Confirm new password",
				Validate: Matches("newPassword", "Passwords do not match")},
		},
	}
}
