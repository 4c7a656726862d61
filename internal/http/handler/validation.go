package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared by every handler; tag-name registration happens once at package load.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var errBodyTooLarge = errors.New("request body too large")

// decodeAndValidate reads one JSON object into dst and runs its validate tags.
// Returned field errors are keyed by JSON field name.
func decodeAndValidate(r *http.Request, dst any) (map[string]string, error) {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, errBodyTooLarge
		}
		if errors.Is(err, io.EOF) {
			return nil, errors.New("request body is empty")
		}
		return nil, fmt.Errorf("malformed json: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return nil, err
		}
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			fields[fe.Field()] = fe.Tag()
		}
		return fields, nil
	}
	return nil, nil
}

// bind decodes and validates the body into dst, writing the error response itself
// when it returns false.
func bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	fields, err := decodeAndValidate(r, dst)
	switch {
	case errors.Is(err, errBodyTooLarge):
		writeError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", err.Error(), nil)
	case err != nil:
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case len(fields) > 0:
		writeError(w, r, http.StatusBadRequest, "VALIDATION_FAILED", "request validation failed", fields)
	default:
		return true
	}
	return false
}
