// Package form is a small declarative form engine shared by the login,
// register, forgot-password and reset-password screens.
//
// A Form is built from an ordered list of Fields. It owns the current values,
// the per-field errors and a form-level error, and never talks to the network:
// the submit callback is the caller's business.
package form

import (
	"errors"
	"fmt"
	"strings"
)

// FormErrorMessage is set as the form-level error when submission is blocked.
const FormErrorMessage = "Please fix the errors above."

var (
	ErrBusy    = errors.New("form: submission already in progress")
	ErrInvalid = errors.New("form: invalid")
)

// Values maps field name to value.
type Values map[string]string

func (v Values) clone() Values {
	out := make(Values, len(v))
	for k, s := range v {
		out[k] = s
	}
	return out
}

// Validator returns an error string for value, or "" when value is acceptable.
// all holds the trimmed values of every field of the form.
type Validator func(value string, all Values) string

type Field struct {
	Name        string
	Label       string
	Kind        Kind
	Placeholder string
	Validate    Validator
}

type Form struct {
	fields       []Field
	values       Values
	errors       map[string]string
	formError    string
	showPassword bool
}

// New builds a form. Field names must be unique.
func New(fields ...Field) *Form {
	seen := make(map[string]bool, len(fields))
	values := make(Values, len(fields))
	for _, f := range fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			panic("form: field with empty name")
		}
		if seen[name] {
			panic(fmt.Sprintf("form: duplicate field name %q", name))
		}
		seen[name] = true
		values[name] = ""
	}
	return &Form{
		fields: append([]Field(nil), fields...),
		values: values,
		errors: map[string]string{},
	}
}

func (f *Form) Fields() []Field { return append([]Field(nil), f.fields...) }

func (f *Form) Field(name string) (Field, bool) {
	for _, fd := range f.fields {
		if fd.Name == name {
			return fd, true
		}
	}
	return Field{}, false
}

// Set stores a raw value and clears both the field error and the form error,
// the same way typing into an input does.
func (f *Form) Set(name, value string) {
	if _, ok := f.values[name]; !ok {
		return
	}
	f.values[name] = value
	delete(f.errors, name)
	f.formError = ""
}

func (f *Form) Value(name string) string { return f.values[name] }

func (f *Form) Values() Values { return f.values.clone() }

func (f *Form) Error(name string) string { return f.errors[name] }

func (f *Form) Errors() map[string]string {
	out := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

func (f *Form) FormError() string { return f.formError }

func (f *Form) ShowPassword() bool { return f.showPassword }

func (f *Form) TogglePassword() { f.showPassword = !f.showPassword }

// Reset clears values and errors but keeps the password visibility choice.
func (f *Form) Reset() {
	for k := range f.values {
		f.values[k] = ""
	}
	f.errors = map[string]string{}
	f.formError = ""
}

// Validate re-checks every field and replaces the error set.
//
// Per field the checks run in order: required, the kind's built-in rule, the
// custom validator. The first failing check is the one reported.
func (f *Form) Validate() map[string]string {
	trimmed := make(Values, len(f.values))
	for k, v := range f.values {
		trimmed[k] = strings.TrimSpace(v)
	}

	errs := map[string]string{}
	for _, fd := range f.fields {
		if msg := validateField(fd, trimmed[fd.Name], trimmed); msg != "" {
			errs[fd.Name] = msg
		}
	}
	f.errors = errs
	return f.Errors()
}

func validateField(fd Field, value string, all Values) string {
	if value == "" {
		return fd.Label + " is required"
	}
	if msg := fd.Kind.check(value); msg != "" {
		return msg
	}
	if fd.Validate != nil {
		return fd.Validate(value, all)
	}
	return ""
}

// Submit validates the form and, when every field passes, calls fn exactly
// once with a copy of the values. While busy is true the call is ignored.
func (f *Form) Submit(busy bool, fn func(Values)) error {
	if busy {
		return ErrBusy
	}
	if errs := f.Validate(); len(errs) > 0 {
		f.formError = FormErrorMessage
		return ErrInvalid
	}
	f.formError = ""
	if fn != nil {
		fn(f.values.clone())
	}
	return nil
}
