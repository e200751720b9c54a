package www

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/mkadlec/homewatt-go/config"
)

const sessionName = "homewatt"

type auth struct {
	logger   *slog.Logger
	store    *sessions.CookieStore
	password string
}

func newAuth(logger *slog.Logger, cnfg config.AppConfigApi) *auth {
	secret := []byte(cnfg.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		rand.Read(secret)
		logger.Warn("no session secret configured, sessions won't survive a restart")
	}

	return &auth{
		logger:   logger,
		store:    sessions.NewCookieStore(secret),
		password: cnfg.Password,
	}
}

func (a *auth) enabled() bool {
	return a.password != ""
}

func (a *auth) isLoggedIn(r *http.Request) bool {
	session, err := a.store.Get(r, sessionName)
	if err != nil {
		return false
	}
	loggedIn, ok := session.Values["loggedIn"].(bool)
	return ok && loggedIn
}

// LoginHandler accepts {"password": "..."} and sets the session cookie.
func (a *auth) loginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJsonError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if !a.enabled() {
			writeJson(w, http.StatusOK, map[string]bool{"loggedIn": true})
			return
		}

		var body struct {
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if subtle.ConstantTimeCompare([]byte(body.Password), []byte(a.password)) != 1 {
			a.logger.Warn("failed login attempt", slog.String("remoteAddr", r.RemoteAddr))
			writeJsonError(w, http.StatusUnauthorized, "wrong password")
			return
		}

		session, _ := a.store.Get(r, sessionName)
		session.Values["loggedIn"] = true
		if err := session.Save(r, w); err != nil {
			writeJsonError(w, http.StatusInternalServerError, "failed to save session")
			return
		}

		writeJson(w, http.StatusOK, map[string]bool{"loggedIn": true})
	}
}

func (a *auth) logoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := a.store.Get(r, sessionName)
		session.Values["loggedIn"] = false
		session.Options.MaxAge = -1
		session.Save(r, w)
		writeJson(w, http.StatusOK, map[string]bool{"loggedIn": false})
	}
}

// requireAuth protects mutating endpoints. Reads stay open, the
// dashboard is meant for the local network.
func (a *auth) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.enabled() && !a.isLoggedIn(r) {
			writeJsonError(w, http.StatusUnauthorized, "login required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
