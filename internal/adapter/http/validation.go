package http

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx API answer.
type ErrorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

var (
	reHex32  = regexp.MustCompile(`^[a-f0-9]{32}$`)
	reBigInt = regexp.MustCompile(`^[0-9]+$`)
)

// echo.Validator backed by go-playground/validator.
type RequestValidator struct{ v *validator.Validate }

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

func decimalAsString(f reflect.Value) any {
	if d, ok := f.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool { return re.MatchString(fl.Field().String()) }
}

func NewValidator() *RequestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	v.RegisterCustomTypeFunc(decimalAsString, decimal.Decimal{})
	// request ids: 32 lowercase hex digits
	_ = v.RegisterValidation("hex32", matches(reHex32))
	// token and DAI amounts in atto units, any size
	_ = v.RegisterValidation("bigint", matches(reBigInt))
	return &RequestValidator{v: v}
}

func (rv *RequestValidator) Validate(i any) error { return rv.v.Struct(i) }

var tagMessages = map[string]func(param string) string{
	"required": func(string) string { return "is required" },
	"hex32":    func(string) string { return "must be 32-char lowercase hex" },
	"eth_addr": func(string) string { return "must be a 0x-prefixed 40 hex digit address" },
	"bigint":   func(string) string { return "must be a non-negative integer" },
	"max":      func(p string) string { return "must be at most " + p + " characters" },
	"gte":      func(p string) string { return "must be greater than or equal to " + p },
	"lte":      func(p string) string { return "must be less than or equal to " + p },
}

// ToFieldErrors turns validator output into per-field messages. Any other
// error becomes a single entry under "_".
func ToFieldErrors(err error) []FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, fe := range ve {
		msg := fe.Tag() + " validation failed"
		if render, ok := tagMessages[fe.Tag()]; ok {
			msg = render(fe.Param())
		}
		out = append(out, FieldError{Field: fe.Field(), Message: msg})
	}
	return out
}
