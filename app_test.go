package secretshare_test

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"

	ss "github.com/jamalk/secretshare"
	"github.com/jamalk/secretshare/stores/fs"
)

// spyStore counts store calls so tests can assert a route never
// touched the store.
type spyStore struct {
	ss.UserStore
	reads  int
	writes int
}

func (s *spyStore) GetUserById(id string) (*ss.User, error) {
	s.reads++
	return s.UserStore.GetUserById(id)
}

func (s *spyStore) GetUserByUsername(username string) (*ss.User, error) {
	s.reads++
	return s.UserStore.GetUserByUsername(username)
}

func (s *spyStore) GetUserByProviderId(p ss.Provider, id string) (*ss.User, error) {
	s.reads++
	return s.UserStore.GetUserByProviderId(p, id)
}

func (s *spyStore) ListUsersWithSecrets() ([]*ss.User, error) {
	s.reads++
	return s.UserStore.ListUsersWithSecrets()
}

func (s *spyStore) CreateUser(u *ss.User) error {
	s.writes++
	return s.UserStore.CreateUser(u)
}

func (s *spyStore) SaveUser(u *ss.User) error {
	s.writes++
	return s.UserStore.SaveUser(u)
}

type testApp struct {
	Server *httptest.Server
	Store  *spyStore
}

func setupApp(t *testing.T) *testApp {
	tmpDir, err := os.MkdirTemp("", "secretshare-app-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	store := &spyStore{UserStore: fs.NewFSUserStore(tmpDir)}

	session := scs.New()
	session.Lifetime = time.Hour
	auth := &ss.AuthContext{
		Session:      session,
		UserStore:    store,
		JWTSecretKey: "test-secret-key",
	}

	app := ss.NewApp(auth, store)
	srv := httptest.NewServer(app.Handler())
	t.Cleanup(srv.Close)

	return &testApp{Server: srv, Store: store}
}

// noFollowClient keeps redirect responses visible to the test.
func noFollowClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("Failed to create cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func postForm(t *testing.T, client *http.Client, target string, form url.Values) *http.Response {
	t.Helper()
	resp, err := client.Post(target, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("POST %s failed: %v", target, err)
	}
	return resp
}

func bodyOf(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	return string(data)
}

func register(t *testing.T, client *http.Client, baseURL, username, password string) *http.Response {
	t.Helper()
	return postForm(t, client, baseURL+"/register", url.Values{
		"username": {username},
		"password": {password},
	})
}

func assertRedirect(t *testing.T, resp *http.Response, wantLocation string) {
	t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != wantLocation {
		t.Fatalf("expected redirect to %q, got %q", wantLocation, loc)
	}
}

func TestRegisterStartsSession(t *testing.T) {
	app := setupApp(t)
	client := noFollowClient(t)

	resp := register(t, client, app.Server.URL, "alice", "pw1")
	assertRedirect(t, resp, "/profile")

	resp, err := client.Get(app.Server.URL + "/profile")
	if err != nil {
		t.Fatalf("GET /profile failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on /profile after register, got %d", resp.StatusCode)
	}
	if body := bodyOf(t, resp); !strings.Contains(body, "alice") {
		t.Error("profile should show the registered username")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	app := setupApp(t)

	first := noFollowClient(t)
	resp := register(t, first, app.Server.URL, "bob", "pw1")
	assertRedirect(t, resp, "/profile")

	second := noFollowClient(t)
	resp = register(t, second, app.Server.URL, "bob", "pw2")
	assertRedirect(t, resp, "/Register")

	// No session for the failed registration.
	resp, err := second.Get(app.Server.URL + "/profile")
	if err != nil {
		t.Fatalf("GET /profile failed: %v", err)
	}
	assertRedirect(t, resp, "/Login")
}

func TestLoginFlow(t *testing.T) {
	app := setupApp(t)

	setup := noFollowClient(t)
	register(t, setup, app.Server.URL, "alice", "pw1").Body.Close()

	tests := []struct {
		name         string
		username     string
		password     string
		wantLocation string
	}{
		{"valid credentials", "alice", "pw1", "/profile"},
		{"wrong password", "alice", "nope", "/login"},
		{"unknown username", "ghost", "pw1", "/login"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := noFollowClient(t)
			resp := postForm(t, client, app.Server.URL+"/login", url.Values{
				"username": {tt.username},
				"password": {tt.password},
			})
			assertRedirect(t, resp, tt.wantLocation)
		})
	}
}

func TestAuthGatedRoutesRedirectAnonymous(t *testing.T) {
	app := setupApp(t)

	tests := []struct {
		method       string
		path         string
		wantLocation string
	}{
		{"GET", "/submit", "/login"},
		{"POST", "/submit", "/login"},
		{"GET", "/profile", "/Login"},
		{"POST", "/profile", "/Login"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			client := noFollowClient(t)
			var resp *http.Response
			var err error
			if tt.method == "GET" {
				resp, err = client.Get(app.Server.URL + tt.path)
			} else {
				resp = postForm(t, client, app.Server.URL+tt.path, url.Values{})
			}
			if err != nil {
				t.Fatalf("%s %s failed: %v", tt.method, tt.path, err)
			}
			assertRedirect(t, resp, tt.wantLocation)
		})
	}
}

func TestAntiAuthGatedRoutesRedirectAuthenticated(t *testing.T) {
	app := setupApp(t)
	client := noFollowClient(t)
	register(t, client, app.Server.URL, "alice", "pw1").Body.Close()

	for _, path := range []string{"/login", "/register"} {
		resp, err := client.Get(app.Server.URL + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		assertRedirect(t, resp, "/profile")
	}
}

func TestPublicPagesRender(t *testing.T) {
	app := setupApp(t)
	client := noFollowClient(t)

	for _, path := range []string{"/", "/jamal", "/about", "/login", "/register"} {
		resp, err := client.Get(app.Server.URL + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestCatchAllRendersNotFoundWithoutStoreQuery(t *testing.T) {
	app := setupApp(t)
	client := noFollowClient(t)

	for _, path := range []string{"/fhsdjkf", "/Login", "/Register", "/deep/unknown/path"} {
		resp, err := client.Get(app.Server.URL + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", path, resp.StatusCode)
		}
		if body := bodyOf(t, resp); !strings.Contains(body, "Nothing here") {
			t.Errorf("GET %s: expected the not-found view", path)
		}
	}

	if app.Store.reads != 0 || app.Store.writes != 0 {
		t.Errorf("catch-all should never touch the store, saw %d reads %d writes",
			app.Store.reads, app.Store.writes)
	}
}

func TestNotFoundPolicyCoversAllMethods(t *testing.T) {
	app := setupApp(t)
	client := noFollowClient(t)

	tests := []struct {
		method string
		path   string
	}{
		{"POST", "/fhsdjkf"},
		{"POST", "/about"},
		{"PUT", "/deep/unknown/path"},
		{"DELETE", "/auth/google"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, app.Server.URL+tt.path, nil)
			if err != nil {
				t.Fatalf("Failed to build request: %v", err)
			}
			resp, err := client.Do(req)
			if err != nil {
				t.Fatalf("%s %s failed: %v", tt.method, tt.path, err)
			}
			if resp.StatusCode != http.StatusOK {
				t.Errorf("expected 200, got %d", resp.StatusCode)
			}
			if body := bodyOf(t, resp); !strings.Contains(body, "Nothing here") {
				t.Errorf("expected the not-found view, got %q", body)
			}
		})
	}
}

func TestLogoutEndsSession(t *testing.T) {
	app := setupApp(t)
	client := noFollowClient(t)
	register(t, client, app.Server.URL, "alice", "pw1").Body.Close()

	resp, err := client.Get(app.Server.URL + "/logout")
	if err != nil {
		t.Fatalf("GET /logout failed: %v", err)
	}
	assertRedirect(t, resp, "/")

	resp, err = client.Get(app.Server.URL + "/profile")
	if err != nil {
		t.Fatalf("GET /profile failed: %v", err)
	}
	assertRedirect(t, resp, "/Login")
}

func TestSecretsListing(t *testing.T) {
	app := setupApp(t)

	alice := noFollowClient(t)
	register(t, alice, app.Server.URL, "alice", "pw1").Body.Close()
	postForm(t, alice, app.Server.URL+"/submit", url.Values{"secret": {"alice's secret"}}).Body.Close()

	// Anonymous view has the secret but not the viewer block.
	anon := noFollowClient(t)
	resp, err := anon.Get(app.Server.URL + "/secrets")
	if err != nil {
		t.Fatalf("GET /secrets failed: %v", err)
	}
	body := bodyOf(t, resp)
	if !strings.Contains(body, "alice&#39;s secret") {
		t.Error("anonymous listing should include shared secrets")
	}
	if strings.Contains(body, "Logout") {
		t.Error("anonymous listing should not show the viewer block")
	}

	// Authenticated view is augmented with the viewer's identity.
	resp, err = alice.Get(app.Server.URL + "/secrets")
	if err != nil {
		t.Fatalf("GET /secrets failed: %v", err)
	}
	body = bodyOf(t, resp)
	if !strings.Contains(body, "alice") || !strings.Contains(body, "Logout") {
		t.Error("authenticated listing should show the viewer identity")
	}
}

func TestDeleteSecretOutOfRangeIsNoop(t *testing.T) {
	app := setupApp(t)
	client := noFollowClient(t)
	register(t, client, app.Server.URL, "alice", "pw1").Body.Close()
	postForm(t, client, app.Server.URL+"/submit", url.Values{"secret": {"keep me"}}).Body.Close()

	for _, index := range []string{"5", "-1", "garbage"} {
		resp := postForm(t, client, app.Server.URL+"/profile", url.Values{"deleteBtn": {index}})
		assertRedirect(t, resp, "/profile")
	}

	resp, err := client.Get(app.Server.URL + "/profile")
	if err != nil {
		t.Fatalf("GET /profile failed: %v", err)
	}
	if body := bodyOf(t, resp); !strings.Contains(body, "keep me") {
		t.Error("out-of-range deletes must not change the list")
	}
}

// TestSecretLifecycleJourney covers the full flow: register, share a
// secret, see it on the profile, delete it by index, see it gone.
func TestSecretLifecycleJourney(t *testing.T) {
	app := setupApp(t)
	client := noFollowClient(t)

	resp := register(t, client, app.Server.URL, "alice", "pw1")
	assertRedirect(t, resp, "/profile")

	resp = postForm(t, client, app.Server.URL+"/submit", url.Values{"secret": {"my first secret"}})
	assertRedirect(t, resp, "/profile")

	resp, err := client.Get(app.Server.URL + "/profile")
	if err != nil {
		t.Fatalf("GET /profile failed: %v", err)
	}
	if body := bodyOf(t, resp); !strings.Contains(body, "my first secret") {
		t.Fatal("profile should list the submitted secret")
	}

	resp = postForm(t, client, app.Server.URL+"/profile", url.Values{"deleteBtn": {"0"}})
	assertRedirect(t, resp, "/profile")

	resp, err = client.Get(app.Server.URL + "/profile")
	if err != nil {
		t.Fatalf("GET /profile failed: %v", err)
	}
	if body := bodyOf(t, resp); strings.Contains(body, "my first secret") {
		t.Error("deleted secret should no longer be listed")
	}
}
