package restapi

import (
	"fmt"
	"net/http"
)

type panicError struct {
	value interface{}
}

func (e panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

func (api *RestAPI) rootHandler(w http.ResponseWriter, r *http.Request) {
	api.sendResponse(w, r, map[string]string{"message": "UB Tourism Backend is running!"})
}

func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	if err := api.Places.Ping(r.Context()); err != nil {
		api.sendStatus(w, r, http.StatusInternalServerError, map[string]string{
			"status": "error",
			"detail": err.Error(),
		})
		return
	}
	api.sendResponse(w, r, map[string]string{"status": "ok"})
}

func (api *RestAPI) adminCheckHandler(w http.ResponseWriter, r *http.Request) {
	if api.RequestHasValidAdminSecret(r) {
		api.sendResponse(w, r, map[string]bool{"ok": true})
		return
	}
	api.sendStatus(w, r, http.StatusUnauthorized, map[string]bool{"ok": false})
}
