package shared

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/currency"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	slugPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{1,61})[a-z0-9]$`)
	hhmmPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// Weekdays lists the accepted delivery day codes in calendar order.
var Weekdays = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// Validator returns the shared validator configured with json field names
// and the domain tags slug, hhmm, weekday, currency and bcryptpw.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
			return hhmmPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
			return IsWeekday(fl.Field().String())
		})
		_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
			_, err := currency.ParseISO(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("bcryptpw", func(fl validator.FieldLevel) bool {
			return len(fl.Field().String()) <= MaxPasswordBytes
		})
		validate = v
	})
	return validate
}

// ValidateStruct runs struct validation and converts failures into a ValidationError.
func ValidateStruct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Add(fieldPath(fe), fieldMessage(fe))
	}
	return out
}

// IsWeekday reports whether code is one of Weekdays.
func IsWeekday(code string) bool {
	for _, d := range Weekdays {
		if d == code {
			return true
		}
	}
	return false
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		if fe.Kind() == reflect.Slice {
			return "must contain at least " + fe.Param() + " entries"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		if fe.Kind() == reflect.Slice {
			return "must contain at most " + fe.Param() + " entries"
		}
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "slug":
		return "must be 3-63 lowercase letters, digits or dashes"
	case "hhmm":
		return "must be a time in HH:MM format"
	case "weekday":
		return "must be one of: " + strings.Join(Weekdays, ", ")
	case "currency":
		return "must be an ISO 4217 currency code"
	case "bcryptpw":
		return "must be at most 72 bytes"
	case "timezone":
		return "must be an IANA time zone"
	case "iso3166_1_alpha2":
		return "must be an ISO 3166 two-letter country code"
	case "datetime":
		return "must be a date in " + fe.Param() + " format"
	case "unique":
		return "must not contain duplicates"
	case "e164":
		return "must be a phone number in E.164 format"
	default:
		return "is invalid"
	}
}
