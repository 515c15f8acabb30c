package main

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"
	"github.com/goliatone/go-router"
	mflash "github.com/goliatone/go-router/middleware/flash"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	mediagrab "github.com/mediagrab/go-mediagrab"
	"github.com/mediagrab/go-mediagrab/middleware/sessionware"
	"github.com/mediagrab/go-mediagrab/tokenstore"
	"github.com/mediagrab/go-mediagrab/transport"
)

//go:embed views
var viewsFS embed.FS

// appConfig satisfies mediagrab.Config from environment variables.
type appConfig struct {
	addr           string
	baseURL        string
	dsn            string
	jwksURL        string
	requestTimeout time.Duration
	debug          bool
}

func (c appConfig) GetBaseURL() string               { return c.baseURL }
func (c appConfig) GetRequestTimeout() time.Duration { return c.requestTimeout }
func (c appConfig) GetLoginRoute() string            { return "/login" }
func (c appConfig) GetHomeRoute() string             { return "/" }

func loadConfig() appConfig {
	cfg := appConfig{
		addr:           envOr("MEDIAGRAB_ADDR", ":8572"),
		baseURL:        envOr("MEDIAGRAB_API_URL", "http://localhost:8000/api/v1"),
		dsn:            envOr("MEDIAGRAB_DSN", "file:mediagrab.db?cache=shared"),
		jwksURL:        os.Getenv("MEDIAGRAB_JWKS_URL"),
		requestTimeout: 15 * time.Second,
	}

	if raw := os.Getenv("MEDIAGRAB_REQUEST_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			cfg.requestTimeout = d
		}
	}

	if raw := os.Getenv("MEDIAGRAB_DEBUG"); raw != "" {
		cfg.debug, _ = strconv.ParseBool(raw)
	}

	return cfg
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	ctx := context.Background()
	cfg := loadConfig()

	var config mediagrab.Config = cfg

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.dsn)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer sqldb.Close()

	db := bun.NewDB(sqldb, sqlitedialect.New())

	tokens := tokenstore.NewBunStore(db, tokenstore.WithEnvironmentKey(config.GetBaseURL()))
	if err := tokens.EnsureSchema(ctx); err != nil {
		log.Fatalf("credentials schema: %v", err)
	}

	session := mediagrab.NewSessionStore()

	httpClient := transport.NewClient(nil,
		transport.BearerToken(tokens),
		transport.UnauthorizedHook(mediagrab.UnauthorizedHandler(tokens, session, nil)),
	)
	httpClient.Timeout = config.GetRequestTimeout()

	api := mediagrab.NewAPIClient(config.GetBaseURL(), mediagrab.WithHTTPClient(httpClient))

	auther := mediagrab.NewAuther(api, tokens, session)
	if cfg.jwksURL != "" {
		validator, err := mediagrab.NewJWKSValidator(cfg.jwksURL)
		if err != nil {
			log.Fatalf("jwks validator: %v", err)
		}
		defer validator.Close()
		auther.WithTokenValidator(validator)
	}

	// resolve the stored session in the background; pages render the
	// loading view until this lands
	go func() {
		if err := auther.Bootstrap(context.Background()); err != nil {
			log.Printf("bootstrap: %v", err)
		}
	}()

	templates, err := fs.Sub(viewsFS, "views")
	if err != nil {
		log.Fatalf("scope embedded views: %v", err)
	}
	engine := django.NewFileSystem(http.FS(templates), ".html")

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			StrictRouting:     false,
			PassLocalsToViews: true,
			Views:             engine,
		}))
	})

	srv.Router().Use(mflash.New(mflash.ConfigDefault))

	controller := mediagrab.RegisterAuthRoutes(srv.Router().Group("/"),
		mediagrab.WithControllerAuther(auther),
		mediagrab.WithControllerAPI(api),
		mediagrab.WithControllerDebug(cfg.debug),
	)

	adminGuard := sessionware.New(sessionware.Config{
		Session:      session,
		RequiredRole: mediagrab.RoleAdmin,
		RedirectTo:   config.GetHomeRoute(),
		LoadingView:  "loading",
	})
	srv.Router().Get(controller.Routes.Admin, controller.AdminShow, adminGuard)

	srv.Serve(cfg.addr)

	WaitExitSignal()
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
