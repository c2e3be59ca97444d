package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	auth "github.com/zentro-eats/zentro-auth"
)

func main() {
	ctx := context.Background()

	dsn := envOr("DATABASE_DSN", "file:zentro.db?cache=shared")
	addr := ":" + envOr("PORT", "8080")

	db, err := openDatabase(ctx, dsn)
	if err != nil {
		log.Fatalf("database: %s", err)
	}
	defer db.Close()

	cfg, err := buildConfig()
	if err != nil {
		log.Fatalf("config: %s", err)
	}

	repo := auth.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		log.Fatalf("repositories: %s", err)
	}

	sink := auth.ActivitySinkFunc(func(_ context.Context, event auth.ActivityEvent) error {
		log.Printf("activity %s email=%s", event.EventType, event.Email)
		return nil
	})

	userProvider := auth.NewUserProvider(repo.Users())

	federated := auth.NewFederatedProvider(repo, repo.Users(), repo.Carts()).
		WithActivitySink(sink)

	authenticator := auth.NewAuthenticator(userProvider, cfg).
		WithFederatedVerifier(federated).
		WithActivitySink(sink)

	httpAuth, err := auth.NewHTTPAuthenticator(authenticator, cfg)
	if err != nil {
		log.Fatalf("http auth: %s", err)
	}

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
		}))
	})

	controllerOpts := []auth.AuthControllerOption{
		auth.WithControllerRepo(repo),
		auth.WithControllerAuther(httpAuth),
	}

	if clientID := os.Getenv("GOOGLE_CLIENT_ID"); clientID != "" {
		google, err := auth.NewGoogleVerifier(clientID)
		if err != nil {
			log.Fatalf("google verifier: %s", err)
		}
		controllerOpts = append(controllerOpts, auth.WithControllerAssertions(google))
	}

	auth.RegisterAuthRoutes(srv.Router().Group("/"), controllerOpts...)

	protected := httpAuth.ProtectedRoute(httpAuth.MakeClientRouteAuthErrorHandler(false))
	adminOnly := httpAuth.ProtectedRoute(
		httpAuth.MakeClientRouteAuthErrorHandler(false),
		auth.AdminSurfaceRoles()...,
	)

	srv.Router().Get("/me", whoAmI, protected)
	srv.Router().Get("/admin/ping", adminPing, adminOnly)

	srv.Serve(addr)

	waitExitSignal()
}

func whoAmI(c router.Context) error {
	principal, err := auth.RequirePrincipal(c.Context())
	if err != nil {
		return c.Status(router.StatusUnauthorized).SendString("authentication required")
	}

	return c.JSON(router.StatusOK, map[string]any{
		"email": principal.Email,
		"role":  principal.PrimaryRole(),
	})
}

func adminPing(c router.Context) error {
	return c.JSON(router.StatusOK, map[string]any{"status": "ok"})
}

func buildConfig() (*auth.EnvConfig, error) {
	opts := []auth.EnvConfigOption{}

	if os.Getenv("COOKIE_CROSS_ORIGIN") == "true" {
		opts = append(opts, auth.WithCrossOriginCookies())
	}

	return auth.NewEnvConfig(opts...)
}

func openDatabase(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	models := []any{
		(*auth.User)(nil),
		(*auth.Cart)(nil),
		(*auth.PasswordResetToken)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return nil, err
		}
	}

	return db, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func waitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
