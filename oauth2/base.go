package oauth2

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

// HandleUserFunc is called by a provider callback after a successful
// code exchange, with the provider name, the token and the decoded
// userinfo payload.
type HandleUserFunc func(provider string, token *oauth2.Token, userInfo map[string]any, w http.ResponseWriter, r *http.Request)

// BaseOAuth2 carries the pieces shared by the provider integrations:
// the oauth2.Config, the post-auth user handler and the failure
// redirect target.
type BaseOAuth2 struct {
	ClientId     string
	ClientSecret string
	CallbackURL  string
	HandleUser   HandleUserFunc

	// AuthFailureUrl is where the callback redirects when the exchange
	// or the userinfo fetch fails. Defaults to "/login".
	AuthFailureUrl string

	// HTTPClient is used for userinfo fetches. Can be overridden for
	// testing. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	oauthConfig oauth2.Config
}

func NewBaseOAuth2(clientId string, clientSecret string, callbackUrl string, handleUser HandleUserFunc) *BaseOAuth2 {
	out := &BaseOAuth2{
		ClientId:       clientId,
		ClientSecret:   clientSecret,
		CallbackURL:    callbackUrl,
		HandleUser:     handleUser,
		AuthFailureUrl: "/login",
		oauthConfig: oauth2.Config{
			ClientID:     clientId,
			ClientSecret: clientSecret,
			RedirectURL:  callbackUrl,
		},
	}
	return out
}

// Config exposes the underlying oauth2.Config, mainly so tests can
// point the endpoint at a fake provider.
func (b *BaseOAuth2) Config() *oauth2.Config {
	return &b.oauthConfig
}

// HandleRedirect begins the OAuth flow: sets the state cookie and
// sends the client to the provider's consent page.
func (b *BaseOAuth2) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	OauthRedirector(&b.oauthConfig)(w, r)
}

func (b *BaseOAuth2) getHTTPClient() *http.Client {
	if b.HTTPClient != nil {
		return b.HTTPClient
	}
	return http.DefaultClient
}

func (b *BaseOAuth2) exchangeContext() context.Context {
	if b.HTTPClient != nil {
		return context.WithValue(context.Background(), oauth2.HTTPClient, b.HTTPClient)
	}
	return context.Background()
}
