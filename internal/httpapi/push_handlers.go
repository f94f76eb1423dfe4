package httpapi

import (
	"encoding/json"
	"net/http"
)

// handlePushRegister registers a device push token for the authenticated user
func (r *Router) handlePushRegister(w http.ResponseWriter, req *http.Request) {
	authUser := getAuthUser(req.Context())
	if authUser == nil {
		http.Error(w, `{"error": "not authenticated"}`, http.StatusUnauthorized)
		return
	}

	var body struct {
		Token    string `json:"token"`
		Platform string `json:"platform"` // "ios" or "android"
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	if body.Token == "" {
		http.Error(w, `{"error": "token is required"}`, http.StatusBadRequest)
		return
	}
	if body.Platform != "ios" && body.Platform != "android" {
		http.Error(w, `{"error": "platform must be ios or android"}`, http.StatusBadRequest)
		return
	}

	if err := r.store.RegisterDevice(req.Context(), authUser.ID, body.Token, body.Platform); err != nil {
		r.logger.Printf("push: failed to register device for user %s: %v", authUser.ID, err)
		http.Error(w, `{"error": "failed to register device"}`, http.StatusInternalServerError)
		return
	}

	r.logger.Printf("push: registered %s device for user %s", body.Platform, authUser.ID)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handlePushUnregister removes a device push token
func (r *Router) handlePushUnregister(w http.ResponseWriter, req *http.Request) {
	authUser := getAuthUser(req.Context())
	if authUser == nil {
		http.Error(w, `{"error": "not authenticated"}`, http.StatusUnauthorized)
		return
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}
	if body.Token == "" {
		http.Error(w, `{"error": "token is required"}`, http.StatusBadRequest)
		return
	}

	if err := r.store.UnregisterDevice(req.Context(), body.Token); err != nil {
		r.logger.Printf("push: failed to unregister device: %v", err)
		http.Error(w, `{"error": "failed to unregister device"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
