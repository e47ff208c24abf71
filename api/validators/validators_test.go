package validators

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/usermanagement-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email    string  `json:"email" validate:"required,email"`
	Nickname *string `json:"nickname" validate:"omitnil,nickname"`
	Password string  `json:"password" validate:"required,strong_password"`
	Role     *string `json:"role" validate:"omitnil,oneof=ADMIN MANAGER"`
}

func details(t *testing.T, err error) map[string]string {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	d, ok := typed.Details().(map[string]string)
	require.True(t, ok, "details: %#v", typed.Details())
	return d
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"email":"a@example.com","nickname":"jane_doe","password":"Secret123!"}`))
	var dest signup
	require.NoError(t, DecodeJSONBody(r, &dest))
	assert.Equal(t, "jane_doe", *dest.Nickname)
}

func TestDecodeJSONBodyReportsCustomRules(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"email":"nope","nickname":"x!","password":"short","role":"ROOT"}`))
	var dest signup
	d := details(t, DecodeJSONBody(r, &dest))

	assert.Equal(t, "must be a valid email", d["email"])
	assert.Contains(t, d, "nickname")
	assert.Contains(t, d, "password")
	assert.NotEqual(t, "is invalid", d["password"])
	assert.Equal(t, "must be one of: ADMIN, MANAGER", d["role"])
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"email":"a@example.com","is_admin":true}`))
	var dest signup
	d := details(t, DecodeJSONBody(r, &dest))
	assert.Contains(t, d["body"], "is_admin")
}

func TestFormValues(t *testing.T) {
	form := url.Values{"username": {" jane@example.com "}, "password": {" Secret123! "}}
	r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.True(t, IsFormRequest(r))

	values, err := FormValues(r, "username", "password")
	require.NoError(t, err)
	assert.Equal(t, " jane@example.com ", values["username"])
	assert.Equal(t, " Secret123! ", values["password"])

	r = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("username=x&password=+++"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	_, err = FormValues(r, "username", "password")
	assert.Equal(t, map[string]string{"password": "is required"}, details(t, err))
}

func TestParsePagination(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/users", nil)
	params, err := ParsePagination(r)
	require.NoError(t, err)
	assert.Equal(t, 0, params.Skip)
	assert.Equal(t, 10, params.Limit)

	r = httptest.NewRequest(http.MethodGet, "/users?skip=20&limit=5", nil)
	params, err = ParsePagination(r)
	require.NoError(t, err)
	assert.Equal(t, 20, params.Skip)
	assert.Equal(t, 5, params.Limit)

	for _, q := range []string{"limit=0", "limit=101", "skip=-1", "skip=abc"} {
		r = httptest.NewRequest(http.MethodGet, "/users?"+q, nil)
		_, err = ParsePagination(r)
		assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), q)
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "abc", SanitizeString("  abcdef ", 3))
	assert.Equal(t, "abcdef", SanitizeString("abcdef", 0))
}
