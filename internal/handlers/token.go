// internal/handlers/token.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/crazyeights/internal/auth"
	"github.com/jason-s-yu/crazyeights/internal/models"
	"github.com/jason-s-yu/crazyeights/internal/registry"
)

const maxNameLength = 32

type tokenRequest struct {
	Name string `json:"name"`
}

type tokenResponse struct {
	Token  string                `json:"token"`
	Player models.PlayerSnapshot `json:"player"`
}

// TokenHandler mints a guest identity: a fresh player ID plus a signed token, also set as the
// auth_token cookie.
func TokenHandler(issuer *auth.Issuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req tokenRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		name := strings.TrimSpace(req.Name)
		if name == "" || len(name) > maxNameLength {
			http.Error(w, "name must be 1-32 characters", http.StatusBadRequest)
			return
		}

		player := models.PlayerSnapshot{ID: uuid.New(), Name: name}
		token, err := issuer.Issue(player)
		if err != nil {
			http.Error(w, "failed to issue token", http.StatusInternalServerError)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     "auth_token",
			Value:    token,
			HttpOnly: true,
			Path:     "/",
		})
		writeJSON(w, http.StatusOK, tokenResponse{Token: token, Player: player})
	}
}

type moduleInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	MinPlayers int    `json:"minPlayers"`
	MaxPlayers int    `json:"maxPlayers"`
}

// ModulesHandler lists the registered game modules.
func ModulesHandler(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mods := reg.Modules()
		out := make([]moduleInfo, 0, len(mods))
		for _, m := range mods {
			out = append(out, moduleInfo{ID: m.ID, Name: m.Name, MinPlayers: m.MinPlayers, MaxPlayers: m.MaxPlayers})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// extractCookieToken extracts a named cookie value from "Cookie" header, or returns empty if not found.
func extractCookieToken(cookieHeader, cookieName string) string {
	for _, part := range strings.Split(cookieHeader, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && name == cookieName {
			return value
		}
	}
	return ""
}
