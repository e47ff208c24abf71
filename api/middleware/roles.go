package middleware

import (
	"net/http"

	"github.com/angelmondragon/usermanagement-backend/api/responses"
	"github.com/angelmondragon/usermanagement-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/usermanagement-backend/pkg/errors"
	"github.com/angelmondragon/usermanagement-backend/pkg/logger"
)

// RequireRoles admits callers whose token role is one of roles. Must run after Auth.
func RequireRoles(logg *logger.Logger, roles ...enums.UserRole) func(http.Handler) http.Handler {
	allowed := make(map[enums.UserRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := allowed[RoleFromContext(r.Context())]; !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "operation not permitted"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
