// Package validation configures gin's validator and turns binding failures
// into the field -> message map returned in 400 responses.
package validation

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Errors maps a request field (its json or form name) to a message.
type Errors map[string]string

// Messages configures the text returned for a failing field. A key of
// "field.tag" takes precedence over a plain "field" key.
type Messages map[string]string

func (m Messages) lookup(field, tag string) string {
	if msg, ok := m[field+"."+tag]; ok {
		return msg
	}
	if msg, ok := m[field]; ok {
		return msg
	}
	return field + " is invalid"
}

var setupOnce sync.Once

// Setup registers field naming and custom tags on gin's validator engine.
func Setup() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)
		// notemail fails for values that parse as an email address.
		_ = v.RegisterValidation("notemail", func(fl validator.FieldLevel) bool {
			return v.Var(fl.Field().String(), "email") != nil
		})
	})
}

func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// Translate converts a binding error into field errors. The second result is
// false when err is not a validation or type error, e.g. malformed JSON.
func Translate(err error, messages Messages) (Errors, bool) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := Errors{}
		for _, fe := range verrs {
			field := fe.Field()
			if _, seen := out[field]; seen {
				continue
			}
			out[field] = messages.lookup(field, fe.Tag())
		}
		return out, true
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		field := typeErr.Field
		if i := strings.LastIndex(field, "."); i >= 0 {
			field = field[i+1:]
		}
		return Errors{field: messages.lookup(field, "type")}, true
	}

	return nil, false
}

// Struct validates obj with gin's engine; used when a request has no body.
func Struct(obj any) error {
	return binding.Validator.ValidateStruct(obj)
}
