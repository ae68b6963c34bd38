package middleware

import (
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/greenbox-lable/share-plate/internal/models"
)

const SessionName = "session"

// Identity reads the signed-in user and role out of the session.
// ok is false when there is no session or the stored role is not
// resolvable; callers treat both cases as "no role", never as an
// error.
func Identity(store *sessions.CookieStore, r *http.Request) (userID string, role models.Role, ok bool) {
	session, _ := store.Get(r, SessionName)
	id, idOK := session.Values["user_id"].(string)
	roleStr, roleOK := session.Values["role"].(string)
	if !idOK || !roleOK || id == "" {
		return "", "", false
	}
	role, parseOK := models.ParseRole(roleStr)
	if !parseOK {
		return "", "", false
	}
	return id, role, true
}

// RequireAuth gates routes behind any signed-in identity. Missing
// sessions redirect to the sign-in page.
func RequireAuth(store *sessions.CookieStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, _, ok := Identity(store, r); !ok {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole gates routes behind one specific role. A session with
// the wrong role (or no resolvable role) is silently redirected to
// the landing page, never shown an error or any protected data.
func RequireRole(store *sessions.CookieStore, role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, sessionRole, ok := Identity(store, r)
			if !ok {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if sessionRole != role {
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
