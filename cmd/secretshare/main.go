// Command secretshare runs the secrets sharing web app.
//
// Configuration is environment-sourced:
//
//	PORT                         listening port, defaults to 3000
//	SECRETSHARE_SESSION_SECRET   key for signing auth token cookies
//	DB_HOST/DB_PORT/DB_USER/DB_PASSWORD/DB_NAME
//	                             postgres connection; when DB_HOST is
//	                             unset a filesystem store under
//	                             SECRETSHARE_DATA_DIR (default ./data)
//	                             is used instead
//	OAUTH2_GOOGLE_CLIENT_ID / OAUTH2_GOOGLE_CLIENT_SECRET / OAUTH2_GOOGLE_CALLBACK_URL
//	OAUTH2_FACEBOOK_CLIENT_ID / OAUTH2_FACEBOOK_CLIENT_SECRET / OAUTH2_FACEBOOK_CALLBACK_URL
package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/alexedwards/scs/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	ss "github.com/jamalk/secretshare"
	fsstore "github.com/jamalk/secretshare/stores/fs"
	gormstore "github.com/jamalk/secretshare/stores/gorm"
)

func main() {
	userStore, err := openUserStore()
	if err != nil {
		log.Fatal("error opening user store: ", err)
	}

	session := scs.New()
	session.Lifetime = 24 * time.Hour

	auth := &ss.AuthContext{
		Session:      session,
		UserStore:    userStore,
		JWTSecretKey: sessionSecret(),
	}

	app := ss.NewApp(auth, userStore)
	app.StaticDir = os.Getenv("SECRETSHARE_STATIC_DIR")

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	slog.Info("listening", "port", port)
	if err := http.ListenAndServe(":"+port, app.Handler()); err != nil {
		log.Fatal(err)
	}
}

func openUserStore() (ss.UserStore, error) {
	host := os.Getenv("DB_HOST")
	if host == "" {
		dataDir := os.Getenv("SECRETSHARE_DATA_DIR")
		if dataDir == "" {
			dataDir = "./data"
		}
		slog.Info("using filesystem store", "dir", dataDir)
		return fsstore.NewFSUserStore(dataDir), nil
	}

	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s",
		host, dbPort, os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"))

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := gormstore.AutoMigrate(db); err != nil {
		return nil, err
	}
	return gormstore.NewUserStore(db), nil
}

func sessionSecret() string {
	secret := os.Getenv("SECRETSHARE_SESSION_SECRET")
	if secret == "" {
		slog.Warn("SECRETSHARE_SESSION_SECRET not set, using an insecure default")
		secret = "MyTestSessionSecretKey123456"
	}
	return secret
}
