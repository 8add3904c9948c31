package secretshare

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
)

type principalCtxKey string

const principalKey principalCtxKey = "loggedInUser"

// SessionUserKey is the session variable holding the principal's id.
const SessionUserKey = "loggedInUserId"

// AuthContext owns session resolution and login/logout for the app.
// It is constructed explicitly and passed into the handler layer;
// there is no package-level session or auth state.
//
// On login the user id is written to the server-side session and a
// signed auth token cookie is set beside it. On each request the
// session is consulted first and the token cookie is the fallback, so
// a principal survives a lost session as long as the cookie is valid.
type AuthContext struct {
	Session   *scs.SessionManager
	UserStore UserStore

	// JWT related fields for the auth token cookie
	JwtIssuer    string
	JWTSecretKey string

	// Name of the auth token cookie. Defaults to "ssAuthToken".
	AuthTokenCookieName string

	// How long a login is valid for. Defaults to 1 day.
	SessionTimeout time.Duration

	// Where anonymous visitors of gated routes are sent. Defaults to "/login".
	LoginURL string

	// Where authenticated visitors of anti-auth routes are sent.
	// Defaults to "/profile".
	ProfileURL string
}

// EnsureDefaults fills in zero-valued config fields.
func (a *AuthContext) EnsureDefaults() *AuthContext {
	if a.AuthTokenCookieName == "" {
		a.AuthTokenCookieName = "ssAuthToken"
	}
	if a.SessionTimeout <= 0 {
		a.SessionTimeout = 24 * time.Hour
	}
	if a.LoginURL == "" {
		a.LoginURL = "/login"
	}
	if a.ProfileURL == "" {
		a.ProfileURL = "/profile"
	}
	if a.JwtIssuer == "" {
		a.JwtIssuer = "secretshare"
	}
	return a
}

// Login starts an authenticated session for the user. The session
// token is renewed so a pre-login session id cannot be replayed into
// an authenticated one.
func (a *AuthContext) Login(w http.ResponseWriter, r *http.Request, user *User) error {
	a.EnsureDefaults()
	if err := a.Session.RenewToken(r.Context()); err != nil {
		return err
	}
	a.Session.Put(r.Context(), SessionUserKey, user.ID)

	tokenString, err := signAuthToken(a.JWTSecretKey, a.JwtIssuer, user.ID, a.SessionTimeout)
	if err != nil {
		slog.Warn("error signing auth token", "err", err)
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     a.AuthTokenCookieName,
		Value:    tokenString,
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Now().Add(a.SessionTimeout),
		MaxAge:   int(a.SessionTimeout.Seconds()),
	})
	return nil
}

// Logout clears the session association and the auth token cookie.
func (a *AuthContext) Logout(w http.ResponseWriter, r *http.Request) {
	a.EnsureDefaults()
	if err := a.Session.Destroy(r.Context()); err != nil {
		slog.Warn("error destroying session", "err", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:    a.AuthTokenCookieName,
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Now(),
	})
}

// CurrentUser resolves the request's principal, or nil for anonymous.
// A session pointing at a user deleted out of band degrades to
// anonymous rather than erroring.
func (a *AuthContext) CurrentUser(r *http.Request) *User {
	if v := r.Context().Value(principalKey); v != nil {
		if user, ok := v.(*User); ok {
			return user
		}
	}

	userID := a.loggedInUserId(r)
	if userID == "" {
		return nil
	}
	user, err := a.UserStore.GetUserById(userID)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			slog.Warn("error loading session user", "userId", userID, "err", err)
		}
		return nil
	}
	return user
}

// loggedInUserId checks the session first and falls back to the signed
// auth token cookie.
func (a *AuthContext) loggedInUserId(r *http.Request) string {
	a.EnsureDefaults()
	if userID := a.Session.GetString(r.Context(), SessionUserKey); userID != "" {
		return userID
	}

	for _, cookie := range r.CookiesNamed(a.AuthTokenCookieName) {
		if cookie.Value == "" {
			continue
		}
		userID, err := verifyAuthToken(a.JWTSecretKey, a.JwtIssuer, cookie.Value)
		if err != nil {
			slog.Warn("error verifying auth token", "err", err)
			continue
		}
		return userID
	}
	return ""
}

// ExtractUser resolves the principal once and attaches it to the
// request context for downstream handlers. It never redirects.
func (a *AuthContext) ExtractUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := a.CurrentUser(r); user != nil {
			r = r.WithContext(context.WithValue(r.Context(), principalKey, user))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser gates a handler on an active session, redirecting
// anonymous requests to redirectTo (the login page for every gated
// route except /profile, which historically redirects to "/Login").
func (a *AuthContext) RequireUser(redirectTo string, next http.HandlerFunc) http.HandlerFunc {
	a.EnsureDefaults()
	if redirectTo == "" {
		redirectTo = a.LoginURL
	}
	return func(w http.ResponseWriter, r *http.Request) {
		user := a.CurrentUser(r)
		if user == nil {
			http.Redirect(w, r, redirectTo, http.StatusFound)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), principalKey, user)))
	}
}

// RedirectIfAuthed gates a handler the other way round: routes meant
// for anonymous visitors (login and registration forms) send an
// already-authenticated visitor to their profile instead, which keeps
// them out of the form-submission loop entirely.
func (a *AuthContext) RedirectIfAuthed(next http.HandlerFunc) http.HandlerFunc {
	a.EnsureDefaults()
	return func(w http.ResponseWriter, r *http.Request) {
		if user := a.CurrentUser(r); user != nil {
			http.Redirect(w, r, a.ProfileURL, http.StatusFound)
			return
		}
		next(w, r)
	}
}
