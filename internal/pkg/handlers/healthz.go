package handlers

import (
	"net/http"
)

type healthzResult struct {
	Status string `json:"status"`
}

// Healthz is the liveness probe endpoint.
func Healthz(w http.ResponseWriter, r *http.Request) {
	sendJSONResponse(w, r, healthzResult{Status: "ok"})
}
