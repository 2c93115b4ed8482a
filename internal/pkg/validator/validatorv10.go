package validator

import (
	"encoding/json"
	"errors"
	"log/slog"
	"regexp"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/samber/lo"
)

var ErrTranslatorNotFound = errors.New("validator: english translator not found")

// Validator checks a struct against its validate tags.
type Validator interface {
	Validate(data any) error
}

// V10ValidationError maps snake_case field names to English messages.
type V10ValidationError map[string]string

func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}
	b, _ := json.Marshal(map[string]string(vs)) //nolint:errcheck // string map always encodes
	return string(b)
}

func (vs V10ValidationError) Values() map[string]string { return vs }

// pattern is a string-only tag backed by a regular expression.
type pattern struct {
	tag     string
	re      *regexp.Regexp
	message string
}

var patterns = []pattern{
	{"password", regexp.MustCompile(`^.{6,24}$`), "{0} must be 6-24 characters"},
	{"phone", regexp.MustCompile(`^[0-9]{10}$`), "{0} must be a 10 digit phone number"},
	{"otpcode", regexp.MustCompile(`^[0-9]{6}$`), "{0} must be a 6 digit code"},
	{"pan", regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`), "{0} must be a valid PAN (e.g. ABCDE1234F)"},
	{"alphaspace", regexp.MustCompile(`^[A-Za-z ]+$`), "{0} can contain only letters and spaces"},
}

// V10Validator is a Validator on go-playground/validator with English messages.
type V10Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

func NewV10Validator() (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	trans, ok := ut.New(english, english).GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	for _, p := range patterns {
		if err := registerPattern(validate, trans, p); err != nil {
			return nil, err
		}
	}

	return &V10Validator{validate: validate, trans: trans}, nil
}

func registerPattern(validate *validator.Validate, trans ut.Translator, p pattern) error {
	err := validate.RegisterValidation(p.tag, func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		return ok && p.re.MatchString(s)
	})
	if err != nil {
		return err
	}

	return validate.RegisterTranslation(p.tag, trans,
		func(t ut.Translator) error { return t.Add(p.tag, p.message, true) },
		translateField,
	)
}

func translateField(t ut.Translator, fe validator.FieldError) string {
	msg, err := t.T(fe.Tag(), fe.Field())
	if err != nil {
		slog.Warn("validator: missing translation", "tag", fe.Tag(), "error", err)
		return fe.Error()
	}
	return msg
}

// Validate returns a V10ValidationError when any field fails, or the
// underlying error when data cannot be validated at all.
func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(V10ValidationError, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[lo.SnakeCase(fe.Field())] = fe.Translate(v.trans)
	}
	return out
}
