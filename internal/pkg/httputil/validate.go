package httputil

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// FieldError describes one failed struct-tag rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// Validate checks dst against its `validate` struct tags.
func Validate(dst any) []FieldError {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "", Rule: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: strings.ToLower(fe.Field()), Rule: fe.Tag()})
	}
	return out
}

// DecodeValid decodes JSON into dst and validates it. On failure it writes
// a 400 (malformed JSON) or 422 (rule violations) and returns false.
func DecodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !Decode(w, r, dst) {
		return false
	}
	if errs := Validate(dst); len(errs) > 0 {
		names := make([]string, len(errs))
		for i, e := range errs {
			names[i] = e.Field
		}
		ErrorWithCode(w, http.StatusUnprocessableEntity, "validation_failed",
			fmt.Sprintf("invalid fields: %s", strings.Join(names, ", ")), errs)
		return false
	}
	return true
}
