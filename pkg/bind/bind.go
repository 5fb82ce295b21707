// Package bind decodes and validates an HTTP request body into a struct.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/validate"
)

// JSON decodes r.Body into dest and runs validation.
// Returns (errs, nil) when there are validation failures and (nil, err) when
// the body is empty, malformed or larger than MAX_BODY_BYTES.
func JSON(r *http.Request, dest interface{}) (errs map[string]string, err error) {
	if r.Body == nil {
		return nil, errors.New("request body is empty")
	}
	r.Body = http.MaxBytesReader(nil, r.Body, config.MaxBodyBytes())

	if err = json.NewDecoder(r.Body).Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return nil, fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return nil, errors.New("request body is empty")
		}
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	errs = validate.Struct(dest)
	if validate.HasErrors(errs) {
		return errs, nil
	}

	return nil, nil
}
