package secretshare

import (
	"errors"
	"fmt"
	"log"
	"net/http"
)

// HandleUserFunc is called after a successful authentication with the
// provider that produced it. The callback owns the session start and
// the post-auth redirect.
type HandleUserFunc func(provider Provider, user *User, w http.ResponseWriter, r *http.Request)

// LocalAuth handles username/password login and registration.
type LocalAuth struct {
	// Validates credentials during login
	ValidateCredentials CredentialsValidator

	// Creates a new user (for registration)
	CreateUser CreateUserFunc

	// Form field names
	UsernameField string
	PasswordField string

	// Handler called after successful authentication
	HandleUser HandleUserFunc

	// OnLoginError is called when login fails. If nil, redirects to LoginURL.
	OnLoginError AuthErrorHandler

	// OnSignupError is called when signup fails. If nil, redirects to
	// SignupFailureURL.
	OnSignupError AuthErrorHandler

	// LoginURL is the redirect target for failed logins
	LoginURL string

	// SignupFailureURL is the redirect target for failed registrations.
	// Defaults to "/Register", which the lowercase route table does not
	// match; the catch-all renders not-found for it.
	SignupFailureURL string
}

// ServeHTTP handles login requests
func (a *LocalAuth) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if a.ValidateCredentials == nil {
		http.Error(w, "Login not configured", http.StatusInternalServerError)
		return
	}

	username, password, err := a.parseForm(r)
	if err != nil {
		a.handleLoginError(NewAuthError(ErrCodeMissingField, err.Error(), "username"), w, r)
		return
	}

	user, err := a.ValidateCredentials(username, password)
	if err != nil || user == nil {
		if err != nil && !errors.Is(err, ErrInvalidCredentials) {
			log.Println("error validating user: ", err)
		}
		a.handleLoginError(NewAuthError(ErrCodeInvalidCreds, "Invalid credentials", "password"), w, r)
		return
	}

	a.HandleUser(ProviderLocal, user, w, r)
}

// HandleSignup processes user registration. A taken username fails the
// registration and starts no session; success logs the user straight in.
func (a *LocalAuth) HandleSignup(w http.ResponseWriter, r *http.Request) {
	if a.CreateUser == nil {
		http.Error(w, "Signup not configured", http.StatusInternalServerError)
		return
	}

	username, password, err := a.parseForm(r)
	if err != nil {
		a.handleSignupError(NewAuthError(ErrCodeMissingField, err.Error(), "username"), w, r)
		return
	}

	user, err := a.CreateUser(&Credentials{Username: username, Password: password})
	if err != nil {
		log.Println("error creating user: ", err)
		if errors.Is(err, ErrUsernameTaken) {
			a.handleSignupError(NewAuthError(ErrCodeUsernameTaken, "Username is already taken", "username"), w, r)
		} else {
			a.handleSignupError(NewAuthError("create_failed", "Failed to create user", ""), w, r)
		}
		return
	}

	a.HandleUser(ProviderLocal, user, w, r)
}

func (a *LocalAuth) parseForm(r *http.Request) (username, password string, err error) {
	if err = r.ParseForm(); err != nil {
		return "", "", fmt.Errorf("error parsing form")
	}
	username = r.FormValue(a.getUsernameField())
	password = r.FormValue(a.getPasswordField())
	if username == "" || password == "" {
		return "", "", fmt.Errorf("username and password required")
	}
	return username, password, nil
}

func (a *LocalAuth) getUsernameField() string {
	if a.UsernameField != "" {
		return a.UsernameField
	}
	return "username"
}

func (a *LocalAuth) getPasswordField() string {
	if a.PasswordField != "" {
		return a.PasswordField
	}
	return "password"
}

func (a *LocalAuth) getLoginURL() string {
	if a.LoginURL != "" {
		return a.LoginURL
	}
	return "/login"
}

func (a *LocalAuth) getSignupFailureURL() string {
	if a.SignupFailureURL != "" {
		return a.SignupFailureURL
	}
	return "/Register"
}

func (a *LocalAuth) handleLoginError(err *AuthError, w http.ResponseWriter, r *http.Request) {
	if a.OnLoginError != nil && a.OnLoginError(err, w, r) {
		return
	}
	// No user-facing detail on auth failures - back to the login form.
	http.Redirect(w, r, a.getLoginURL(), http.StatusFound)
}

func (a *LocalAuth) handleSignupError(err *AuthError, w http.ResponseWriter, r *http.Request) {
	if a.OnSignupError != nil && a.OnSignupError(err, w, r) {
		return
	}
	http.Redirect(w, r, a.getSignupFailureURL(), http.StatusFound)
}
