package validators

import (
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/usermanagement-backend/pkg/errors"
)

const maxFormBytes = 1 << 16

// IsFormRequest reports whether the body is URL-encoded form data.
func IsFormRequest(r *http.Request) bool {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded")
}

// FormValues parses a URL-encoded body and returns the named fields as sent.
// Blank fields are reported together as a validation error; callers trim
// what they need trimmed.
func FormValues(r *http.Request, fields ...string) (map[string]string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid form body").WithDetails(map[string]string{"body": err.Error()})
	}

	values := make(map[string]string, len(fields))
	missing := map[string]string{}
	for _, field := range fields {
		v := r.PostForm.Get(field)
		if strings.TrimSpace(v) == "" {
			missing[field] = "is required"
			continue
		}
		values[field] = v
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(missing)
	}
	return values, nil
}
