package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"innovatefund/internal/common"
	"innovatefund/internal/config"
	"innovatefund/internal/di"
	"innovatefund/internal/realtime"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	cfg := config.LoadConfig()
	common.SetJWTSecret(cfg.JWTSecret)

	app, err := di.InitializeApplication(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := ensureIndexes(app); err != nil {
		log.Fatalf("failed to create indexes: %v", err)
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      buildRouter(app),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	app.Close(ctx)
	log.Println("shutdown complete")
}

func buildRouter(app *di.Application) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		common.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		realtime.ServeWS(app.Gateway, w, req)
	})

	api := r.PathPrefix("/api").Subrouter()
	app.UserHandler.RegisterPublic(api)

	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(common.AuthMiddleware)
	app.UserHandler.RegisterProtected(protected)
	app.NotifHandler.Register(protected)
	app.ChatHandler.Register(protected)
	if app.AIHandler != nil {
		app.AIHandler.Register(protected)
	}

	return r
}

// ensureIndexes creates the Mongo indexes the hot paths rely on.
func ensureIndexes(app *di.Application) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.Users.EnsureIndexes(ctx); err != nil {
		return err
	}
	return app.Notifications.EnsureIndexes(ctx)
}
