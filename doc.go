// Package secretshare implements a small multi-user secrets sharing
// web application: username/password and OAuth (Google, Facebook)
// authentication, cookie sessions, and a per-user list of text secrets
// that can be appended to or deleted from by index.
//
// The pieces compose explicitly rather than through package state:
// a UserStore (gorm or fs backend), an AuthContext owning session
// resolution and login/logout, a LocalAuth handler for password
// flows, the oauth2 subpackage for provider flows, and an App tying
// them to a single router where every path yields a response.
package secretshare
