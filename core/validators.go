package core

import (
	"database/sql/driver"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/volatiletech/null/v8"
)

var (
	// custom validation tags & texts
	slugTag   = "slug"
	slugText  = "only alphanumeric characters, dashes and underscores are allowed"
	slugRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

	relPathTag   = "relpath"
	relPathText  = "must be a relative storage path"
	relPathRegex = regexp.MustCompile(`^[A-Za-z0-9_./ -]*$`)

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// NewTranslator returns the english translator used for validation messages.
func NewTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// validate nullable fields by their underlying value
	validate.RegisterCustomTypeFunc(nullValuer, null.String{}, null.Int{}, null.Bool{})

	// register custom validators
	_ = validate.RegisterValidation(slugTag, slugValidation)
	RegisterCustomTranslation(validate, translator, slugTag, slugText)

	_ = validate.RegisterValidation(relPathTag, relPathValidation)
	RegisterCustomTranslation(validate, translator, relPathTag, relPathText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

func nullValuer(field reflect.Value) interface{} {
	if valuer, ok := field.Interface().(driver.Valuer); ok {
		if val, err := valuer.Value(); err == nil {
			return val
		}
	}
	return nil
}

// Custom Global Validators

// slugValidation only allows alphanumeric characters, dashes and underscores.
func slugValidation(fl validator.FieldLevel) bool {
	return slugRegex.MatchString(fl.Field().String())
}

// relPathValidation rejects absolute URLs and parent directory references.
func relPathValidation(fl validator.FieldLevel) bool {
	p := fl.Field().String()
	return relPathRegex.MatchString(p) && !strings.Contains(p, "..")
}
