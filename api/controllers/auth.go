package controllers

import (
	"net/http"

	"github.com/angelmondragon/usermanagement-backend/api/responses"
	"github.com/angelmondragon/usermanagement-backend/api/validators"
	"github.com/angelmondragon/usermanagement-backend/internal/auth"
	"github.com/angelmondragon/usermanagement-backend/internal/users"
	pkgerrors "github.com/angelmondragon/usermanagement-backend/pkg/errors"
	"github.com/angelmondragon/usermanagement-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// AuthLogin accepts JSON {email, password} or the OAuth2 password form
// {username, password} and answers with a bearer token.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		body, err := decodeLogin(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			if pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
				w.Header().Set("WWW-Authenticate", "Bearer")
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		responses.WriteJSON(w, http.StatusOK, result)
	}
}

func decodeLogin(r *http.Request) (auth.LoginRequest, error) {
	if !validators.IsFormRequest(r) {
		var body auth.LoginRequest
		err := validators.DecodeJSONBody(r, &body)
		return body, err
	}

	values, err := validators.FormValues(r, "username", "password")
	if err != nil {
		return auth.LoginRequest{}, err
	}
	// passwords are compared exactly as typed
	body := auth.LoginRequest{Email: validators.SanitizeString(values["username"], 0), Password: values["password"]}
	if err := validators.ValidateStruct(&body); err != nil {
		return auth.LoginRequest{}, err
	}
	return body, nil
}

// AuthRegister creates an unverified account and triggers the verification email.
func AuthRegister(svc auth.Service, baseURL string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body users.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, users.FromModel(user, baseURL))
	}
}

// AuthVerifyEmail consumes the link sent by email.
func AuthVerifyEmail(svc auth.Service, baseURL string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := uuid.Parse(chi.URLParam(r, "userId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInvalidToken, "invalid or expired verification token"))
			return
		}

		user, err := svc.VerifyEmail(r.Context(), userID, chi.URLParam(r, "token"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, users.FromModel(user, baseURL))
	}
}
