package restapi

import (
	"encoding/json"
	"net/http"
)

func (api *RestAPI) sendResponse(w http.ResponseWriter, r *http.Request, response any) {
	api.sendStatus(w, r, http.StatusOK, response)
}

func (api *RestAPI) sendStatus(w http.ResponseWriter, r *http.Request, status int, response any) {
	b, err := json.Marshal(response)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	setJSONResponseType(&w)
	w.WriteHeader(status)
	if _, err := w.Write(append(b, '\n')); err != nil {
		api.Logger.Debug("failed to write response", "error", err)
	}
}

func setJSONResponseType(w *http.ResponseWriter) {
	(*w).Header().Set("Content-Type", "application/json")
}
