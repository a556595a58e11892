package app

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"lablend/db"
	"lablend/session"
	"lablend/storage"

	"github.com/gin-gonic/gin"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Aliases to keep handler signatures short.
type Ctx = gin.Context
type H = gin.H

// App aggregates every dependency the controllers need.
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client
	WA     *webauthn.WebAuthn
	Store  *storage.Client
	Config Config

	appSess *session.AppSessionStore
}

// Config is read from environment variables.
type Config struct {
	RedisAddr      string
	RedisPwd       string
	WebOrigin      string
	RPID           string
	RPOrigins      []string
	SessionTTL     time.Duration
	BootstrapEmail string
	AppName        string
}

func (a *App) AppSessions() *session.AppSessionStore { return a.appSess }

func MustNew() *App {
	cfg := loadConfig()

	dbConn := db.ConnectDB()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis: %v", err)
	}

	wa, err := webauthn.New(&webauthn.Config{
		RPDisplayName: cfg.AppName,
		RPID:          cfg.RPID,
		RPOrigins:     cfg.RPOrigins,
	})
	if err != nil {
		log.Fatalf("webauthn: %v", err)
	}

	// Image storage is optional in dev; uploads fail loudly without it.
	var store *storage.Client
	if ep := os.Getenv("MINIO_ENDPOINT"); ep != "" {
		store, err = storage.NewClient(storage.Config{
			Endpoint:   ep,
			AccessKey:  os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey:  os.Getenv("MINIO_SECRET_KEY"),
			Bucket:     os.Getenv("MINIO_BUCKET"),
			UseSSL:     os.Getenv("MINIO_USE_SSL") == "true",
			PublicBase: os.Getenv("MINIO_PUBLIC_BASE"),
		})
		if err != nil {
			log.Fatalf("storage: %v", err)
		}
		if err := store.EnsureBucket(ctx); err != nil {
			log.Fatalf("storage: %v", err)
		}
	} else {
		log.Println("MINIO_ENDPOINT not set, image uploads disabled")
	}

	r := gin.Default()
	useCORS(r, cfg.WebOrigin)
	return &App{
		Router: r, DB: dbConn, RDB: rdb, WA: wa, Store: store, Config: cfg,
		appSess: session.NewAppSessionStore(rdb, 24*time.Hour),
	}
}

func (a *App) Close() { _ = a.RDB.Close() }

func loadConfig() Config {
	get := func(k, def string) string {
		v := os.Getenv(k)
		if v == "" {
			return def
		}
		return v
	}
	ttlSec := get("SESSION_TTL_SECONDS", "600")
	ttl := 10 * time.Minute
	if d, err := time.ParseDuration(ttlSec + "s"); err == nil {
		ttl = d
	}
	webOrigin := get("WEB_ORIGIN", "http://localhost:5173")
	originsCSV := get("RP_ORIGINS", webOrigin)
	var origins []string
	for _, o := range strings.Split(originsCSV, ",") {
		if s := strings.TrimSpace(o); s != "" {
			origins = append(origins, s)
		}
	}
	return Config{
		RedisAddr:      get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:       os.Getenv("REDIS_PASSWORD"),
		WebOrigin:      webOrigin,
		RPID:           get("RP_ID", "localhost"),
		RPOrigins:      origins,
		SessionTTL:     ttl,
		BootstrapEmail: strings.ToLower(strings.TrimSpace(os.Getenv("BOOTSTRAP_ADMIN_EMAIL"))),
		AppName:        get("APP_NAME", "Lab Lending"),
	}
}
