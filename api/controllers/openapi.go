package controllers

import (
	"net/http"
	"strconv"

	"github.com/angelmondragon/usermanagement-backend/api/responses"
)

const (
	tagAuth  = "Login and Registration"
	tagUsers = "User Management Requires (Admin or Manager Roles)"
	tagOps   = "Operations"
)

// OpenAPI serves a static description of the HTTP surface.
func OpenAPI(version string) http.HandlerFunc {
	doc := openAPIDocument(version)
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteJSON(w, http.StatusOK, doc)
	}
}

type obj = map[string]any

func openAPIDocument(version string) obj {
	if version == "" {
		version = "dev"
	}
	bearer := []obj{{"HTTPBearer": []string{}}}
	userID := obj{"name": "userId", "in": "path", "required": true, "schema": obj{"type": "string", "format": "uuid"}}

	return obj{
		"openapi": "3.0.3",
		"info": obj{
			"title":       "User Management",
			"description": "Account registration, login and staff user management.",
			"version":     version,
		},
		"tags": []obj{
			{"name": tagAuth},
			{"name": tagUsers},
			{"name": tagOps},
		},
		"components": obj{
			"securitySchemes": obj{
				"HTTPBearer": obj{"type": "http", "scheme": "bearer", "bearerFormat": "JWT"},
			},
		},
		"paths": obj{
			"/register": obj{
				"post": operation(tagAuth, "Register a new account", nil, "201", "409", "422", "429"),
			},
			"/login": obj{
				"post": operation(tagAuth, "Exchange credentials for a bearer token", nil, "200", "401", "403", "422", "429"),
			},
			"/verify-email/{userId}/{token}": obj{
				"get": withParams(operation(tagAuth, "Verify an email address", nil, "200", "400"),
					userID,
					obj{"name": "token", "in": "path", "required": true, "schema": obj{"type": "string"}},
				),
			},
			"/me": obj{
				"get": operation(tagAuth, "Current user profile", bearer, "200", "401", "403"),
			},
			"/users": obj{
				"get": withParams(operation(tagUsers, "List users", bearer, "200", "401", "403", "422"),
					obj{"name": "skip", "in": "query", "schema": obj{"type": "integer", "minimum": 0, "default": 0}},
					obj{"name": "limit", "in": "query", "schema": obj{"type": "integer", "minimum": 1, "maximum": 100, "default": 10}},
				),
				"post": operation(tagUsers, "Create a user", bearer, "201", "401", "403", "409", "422"),
			},
			"/users/{userId}": obj{
				"get": withParams(operation(tagUsers, "Get a user", bearer, "200", "401", "403", "404"), userID),
				"put": withParams(operation(tagUsers, "Update a user", bearer, "200", "401", "403", "404", "409", "422"), userID),
			},
			"/users/{userId}/unlock": obj{
				"post": withParams(operation(tagUsers, "Unlock a user", bearer, "200", "401", "403", "404"), userID),
			},
			"/health/live": obj{
				"get": operation(tagOps, "Liveness probe", nil, "200"),
			},
			"/health/ready": obj{
				"get": operation(tagOps, "Readiness probe", nil, "200", "503"),
			},
		},
	}
}

func operation(tag, summary string, security []obj, statuses ...string) obj {
	resp := obj{}
	for _, status := range statuses {
		code, _ := strconv.Atoi(status)
		resp[status] = obj{"description": http.StatusText(code)}
	}
	op := obj{"tags": []string{tag}, "summary": summary, "responses": resp}
	if security != nil {
		op["security"] = security
	}
	return op
}

func withParams(op obj, params ...obj) obj {
	op["parameters"] = params
	return op
}
