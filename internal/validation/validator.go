// Package validation validates request payloads with go-playground/validator
// and translates failures into per-field English messages keyed by JSON names.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/coursehub/backend/internal/models"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	// custom validation tags & texts
	slugTag   = "slug"
	slugText  = "{0} may contain only lower-case letters, digits and single dashes"
	slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

	passwordPolicyTag  = "pwdpolicy"
	passwordPolicyText = "{0} must be at least 8 characters, contain no spaces and not be only digits"
	minPasswordLength  = 8
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	uni := ut.New(english, english)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(slugTag, slugValidation)
	registerTranslation(slugTag, slugText)
	_ = validate.RegisterValidation(passwordPolicyTag, passwordPolicyValidation)
	registerTranslation(passwordPolicyTag, passwordPolicyText)
}

func registerTranslation(tag, text string) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, false) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Struct validates a request struct. Failures are returned as *models.ValidationError.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := &models.ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields[fieldPath(fe.Namespace())] = fe.Translate(translator)
	}
	return out
}

// fieldPath drops the root struct name: "RegisterRequest.password" -> "password"
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

// IsSlug reports whether s is a valid slug
func IsSlug(s string) bool {
	return slugRegex.MatchString(s)
}

func slugValidation(fl validator.FieldLevel) bool {
	return IsSlug(fl.Field().String())
}

// ValidPassword applies the password policy used on registration and password resets
func ValidPassword(password string) bool {
	if len([]rune(password)) < minPasswordLength {
		return false
	}
	allDigits := true
	for _, r := range password {
		if unicode.IsSpace(r) {
			return false
		}
		if !unicode.IsDigit(r) {
			allDigits = false
		}
	}
	return !allDigits
}

func passwordPolicyValidation(fl validator.FieldLevel) bool {
	return ValidPassword(fl.Field().String())
}
