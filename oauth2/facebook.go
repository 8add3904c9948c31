package oauth2

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
)

type FacebookOAuth2 struct {
	*BaseOAuth2

	// UserInfoURL is the URL to fetch user info from. Defaults to the
	// Graph API. Can be overridden for testing.
	UserInfoURL string
}

func NewFacebookOAuth2(clientId string, clientSecret string, callbackUrl string, handleUser HandleUserFunc) *FacebookOAuth2 {
	if clientId == "" {
		clientId = strings.TrimSpace(os.Getenv("OAUTH2_FACEBOOK_CLIENT_ID"))
	}
	if clientSecret == "" {
		clientSecret = strings.TrimSpace(os.Getenv("OAUTH2_FACEBOOK_CLIENT_SECRET"))
	}
	if callbackUrl == "" {
		callbackUrl = strings.TrimSpace(os.Getenv("OAUTH2_FACEBOOK_CALLBACK_URL"))
	}

	out := FacebookOAuth2{
		BaseOAuth2:  NewBaseOAuth2(clientId, clientSecret, callbackUrl, handleUser),
		UserInfoURL: "https://graph.facebook.com/me",
	}
	out.BaseOAuth2.oauthConfig.Endpoint = facebook.Endpoint

	return &out
}

// HandleCallback completes the Facebook flow. On success the userInfo
// map carries a "picture" URL templated from the profile id and the
// current access token; that URL goes stale once the token expires.
func (f *FacebookOAuth2) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if err := validateStateCookie(w, r); err != nil {
		slog.Info("rejecting facebook callback", "err", err)
		http.Redirect(w, r, f.AuthFailureUrl, http.StatusTemporaryRedirect)
		return
	}

	var userInfo map[string]any
	code := r.FormValue("code")
	token, err := f.oauthConfig.Exchange(f.exchangeContext(), code)
	if err != nil {
		slog.Info("invalid code exchange", "err", err)
	} else {
		userInfo, err = f.getUserData(token)
		if err == nil {
			if id, ok := userInfo["id"].(string); ok {
				userInfo["picture"] = FacebookPictureURL(id, token.AccessToken)
			}
			f.HandleUser("facebook", token, userInfo, w, r)
		}
	}
	if err != nil {
		slog.Info("redirecting due to error", "err", err)
		http.Redirect(w, r, f.AuthFailureUrl, http.StatusTemporaryRedirect)
	}
}

// FacebookPictureURL builds the Graph API image-fetch URL for a
// profile id with the given access token baked in.
func FacebookPictureURL(profileID, accessToken string) string {
	return fmt.Sprintf("https://graph.facebook.com/%s/picture?width=200&height=200&access_token=%s", profileID, accessToken)
}

func (f *FacebookOAuth2) getUserData(token *oauth2.Token) (map[string]any, error) {
	req, err := http.NewRequest("GET", f.UserInfoURL+"?fields=id,name", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %s", err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")

	response, err := f.getHTTPClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info from facebook: %s", err.Error())
	}
	defer response.Body.Close()

	contents, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed read response: %s", err.Error())
	}

	var userInfo map[string]any
	if err := json.Unmarshal(contents, &userInfo); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %s", err.Error())
	}
	return userInfo, nil
}
