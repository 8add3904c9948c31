package secretshare

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	xoauth2 "golang.org/x/oauth2"

	"github.com/jamalk/secretshare/oauth2"
)

//go:embed views/*.html
var viewsFS embed.FS

var templates = template.Must(template.ParseFS(viewsFS, "views/*.html"))

// App wires the session layer, the auth strategies and the user store
// into a single router. Every path yields a response: unknown single
// segment routes render the not-found view, and so does anything the
// router cannot match at all.
type App struct {
	Auth      *AuthContext
	UserStore UserStore

	Local    *LocalAuth
	Google   *oauth2.GoogleOAuth2
	Facebook *oauth2.FacebookOAuth2

	// StaticDir, when set, is served under /static/.
	StaticDir string

	router *mux.Router
}

// NewApp builds the app around an auth context and a store. OAuth
// client credentials fall back to their environment variables; tests
// override the providers' endpoints and userinfo URLs directly.
func NewApp(auth *AuthContext, userStore UserStore) *App {
	app := &App{Auth: auth, UserStore: userStore}

	app.Local = &LocalAuth{
		ValidateCredentials: NewCredentialsValidator(userStore),
		CreateUser:          NewCreateUserFunc(userStore),
		HandleUser:          app.handleAuthedUser,
		LoginURL:            "/login",
		SignupFailureURL:    "/Register",
	}
	app.Google = oauth2.NewGoogleOAuth2("", "", "", app.handleOAuthUser)
	app.Facebook = oauth2.NewFacebookOAuth2("", "", "", app.handleOAuthUser)

	return app
}

// Handler returns the complete handler chain: session load/save wraps
// principal extraction wraps the router, so the store is consulted at
// most once per request no matter how many handlers ask for the user.
func (app *App) Handler() http.Handler {
	return app.Auth.Session.LoadAndSave(app.Auth.ExtractUser(app.setupRoutes().router))
}

func (app *App) setupRoutes() *App {
	if app.router != nil {
		return app
	}
	auth := app.Auth.EnsureDefaults()

	r := mux.NewRouter()
	r.HandleFunc("/", app.handleHome).Methods("GET")

	r.HandleFunc("/auth/google", app.Google.HandleRedirect).Methods("GET")
	r.HandleFunc("/auth/google/secrets", app.Google.HandleCallback).Methods("GET")
	r.HandleFunc("/auth/facebook", app.Facebook.HandleRedirect).Methods("GET")
	r.HandleFunc("/auth/facebook/secrets", app.Facebook.HandleCallback).Methods("GET")

	r.HandleFunc("/login", auth.RedirectIfAuthed(app.renderView("login.html"))).Methods("GET")
	r.HandleFunc("/register", auth.RedirectIfAuthed(app.renderView("register.html"))).Methods("GET")
	r.HandleFunc("/submit", auth.RequireUser("/login", app.renderView("submit.html"))).Methods("GET")
	r.HandleFunc("/secrets", app.handleSecrets).Methods("GET")
	r.HandleFunc("/logout", app.handleLogout).Methods("GET")
	// The unauthenticated redirect target is "/Login", which the
	// lowercase route table does not match; the catch-all renders
	// not-found for it.
	r.HandleFunc("/profile", auth.RequireUser("/Login", app.handleProfile)).Methods("GET")
	r.HandleFunc("/jamal", app.renderView("jamal.html")).Methods("GET")
	r.HandleFunc("/about", app.renderView("about.html")).Methods("GET")

	r.HandleFunc("/login", app.Local.ServeHTTP).Methods("POST")
	r.HandleFunc("/register", app.Local.HandleSignup).Methods("POST")
	r.HandleFunc("/submit", auth.RequireUser("/login", app.handleSubmitSecret)).Methods("POST")
	r.HandleFunc("/profile", auth.RequireUser("/Login", app.handleDeleteSecret)).Methods("POST")

	if app.StaticDir != "" {
		r.PathPrefix("/static/").Handler(
			http.StripPrefix("/static/", http.FileServer(http.Dir(app.StaticDir))))
	}

	// Any other single path segment renders the not-found view without
	// touching the store, for any method. Deeper paths and method
	// mismatches fall to the router's handlers below, so the policy
	// stays total: every path and method yields the not-found view.
	r.HandleFunc("/{route}", app.handleNotFound)
	r.NotFoundHandler = http.HandlerFunc(app.handleNotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(app.handleNotFound)

	app.router = r
	return app
}

// handleAuthedUser starts the session after any successful
// authentication and sends the user to their profile.
func (app *App) handleAuthedUser(provider Provider, user *User, w http.ResponseWriter, r *http.Request) {
	if err := app.Auth.Login(w, r, user); err != nil {
		app.serverError(w, "starting session", err)
		return
	}
	http.Redirect(w, r, "/profile", http.StatusFound)
}

// handleOAuthUser adapts a provider callback's userinfo payload into
// the find-or-create linker and then the common login path.
func (app *App) handleOAuthUser(provider string, token *xoauth2.Token, userInfo map[string]any, w http.ResponseWriter, r *http.Request) {
	profile := &OAuthProfile{}
	profile.ProviderID, _ = userInfo["id"].(string)
	profile.DisplayName, _ = userInfo["name"].(string)
	profile.Picture, _ = userInfo["picture"].(string)

	user, err := EnsureOAuthUser(app.UserStore, Provider(provider), profile)
	if err != nil {
		app.serverError(w, "linking oauth user", err)
		return
	}
	app.handleAuthedUser(Provider(provider), user, w, r)
}

func (app *App) handleHome(w http.ResponseWriter, r *http.Request) {
	app.render(w, "home.html", nil)
}

type secretsViewData struct {
	Secrets     []SharedSecret
	IsAuth      bool
	DisplayName string
	Picture     string
}

func (app *App) handleSecrets(w http.ResponseWriter, r *http.Request) {
	shared, err := ListSharedSecrets(app.UserStore)
	if err != nil {
		app.serverError(w, "listing secrets", err)
		return
	}

	data := secretsViewData{Secrets: shared}
	if user := app.Auth.CurrentUser(r); user != nil {
		data.IsAuth = true
		data.DisplayName = user.DisplayLabel()
		data.Picture = user.Avatar()
	}
	app.render(w, "secrets.html", data)
}

type profileViewData struct {
	DisplayName string
	Picture     string
	Secrets     []string
}

func (app *App) handleProfile(w http.ResponseWriter, r *http.Request) {
	user := app.Auth.CurrentUser(r)
	app.render(w, "profile.html", profileViewData{
		DisplayName: user.DisplayLabel(),
		Picture:     user.Avatar(),
		Secrets:     user.Secrets,
	})
}

func (app *App) handleSubmitSecret(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/submit", http.StatusFound)
		return
	}
	user := app.Auth.CurrentUser(r)
	if err := AppendSecret(app.UserStore, user.ID, r.FormValue("secret")); err != nil {
		app.serverError(w, "appending secret", err)
		return
	}
	http.Redirect(w, r, "/profile", http.StatusFound)
}

func (app *App) handleDeleteSecret(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/profile", http.StatusFound)
		return
	}
	user := app.Auth.CurrentUser(r)

	// A non-numeric or out-of-range index is a no-op, never a crash.
	index, err := strconv.Atoi(r.FormValue("deleteBtn"))
	if err != nil {
		http.Redirect(w, r, "/profile", http.StatusFound)
		return
	}
	if err := DeleteSecretAt(app.UserStore, user.ID, index); err != nil {
		app.serverError(w, "deleting secret", err)
		return
	}
	http.Redirect(w, r, "/profile", http.StatusFound)
}

func (app *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	app.Auth.Logout(w, r)
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleNotFound renders the not-found view. The status stays 200,
// matching the navigation-page behavior rather than an API 404.
func (app *App) handleNotFound(w http.ResponseWriter, r *http.Request) {
	app.render(w, "notfound.html", nil)
}

// renderView returns a handler that renders a static view.
func (app *App) renderView(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app.render(w, name, nil)
	}
}

func (app *App) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("error rendering view", "view", name, "err", err)
	}
}

// serverError is the single sink for store-layer failures: log the
// cause, answer with a generic 5xx and never leak internal error text.
func (app *App) serverError(w http.ResponseWriter, op string, err error) {
	slog.Error("internal error", "op", op, "err", err)
	http.Error(w, "Something went wrong", http.StatusInternalServerError)
}
