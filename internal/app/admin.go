package app

import (
	"crypto/subtle"
	"net/http"
)

// AdminSecretHeader carries the shared admin secret.
const AdminSecretHeader = "X-Admin-Secret"

func (app *Application) RequestHasValidAdminSecret(r *http.Request) bool {
	return app.IsValidAdminSecret(r.Header.Get(AdminSecretHeader))
}

// IsValidAdminSecret rejects everything when no secret is configured.
func (app *Application) IsValidAdminSecret(secret string) bool {
	expected := app.Config.AdminSecret
	if expected == "" || secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(expected)) == 1
}
