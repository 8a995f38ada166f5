package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/inamate/modeler/internal/asset"
	"github.com/inamate/modeler/internal/auth"
	"github.com/inamate/modeler/internal/collab"
	"github.com/inamate/modeler/internal/config"
	"github.com/inamate/modeler/internal/engine"
	"github.com/inamate/modeler/internal/export"
	mw "github.com/inamate/modeler/internal/middleware"
	"github.com/inamate/modeler/internal/scene"
	"github.com/inamate/modeler/internal/store"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))
	engine.SetLogger(slog.Default().With("component", "engine"))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	engineOpts, err := cfg.EngineOptions()
	if err != nil {
		slog.Error("engine options", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.EnsureSchema(ctx); err != nil {
		slog.Error("ensure schema", "error", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(cfg.EditorPassword, cfg.JWTSecret)
	if err != nil {
		slog.Error("auth setup", "error", err)
		os.Exit(1)
	}
	authHandler := auth.NewHandler(authService)

	assetHandler := asset.NewHandler(cfg.AssetDir)
	sceneService := scene.NewService(db, engineOpts, assetHandler.Open)

	hub := collab.NewHub(sceneService, engineOpts)
	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()

	sceneHandler := scene.NewHandler(sceneService, hub)
	exportHandler := export.NewHandler(sceneService, engineOpts)

	r := mux.NewRouter()

	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(mw.SplitOrigins(cfg.AllowedOrigins)))

	// Preflight requests only need the CORS middleware.
	r.Methods(http.MethodOptions).HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/scenes", sceneHandler.List).Methods("GET")
	api.HandleFunc("/scenes", sceneHandler.Create).Methods("POST")
	api.HandleFunc("/scenes/{sceneId}", sceneHandler.Get).Methods("GET")
	api.HandleFunc("/scenes/{sceneId}", sceneHandler.Delete).Methods("DELETE")
	api.HandleFunc("/scenes/{sceneId}/document", sceneHandler.Document).Methods("GET")
	api.HandleFunc("/scenes/{sceneId}/import", sceneHandler.Import).Methods("POST")
	api.HandleFunc("/scenes/{sceneId}/export", exportHandler.Export).Methods("GET")
	api.HandleFunc("/scenes/{sceneId}/preview.png", exportHandler.Preview).Methods("GET")

	api.HandleFunc("/assets/upload", assetHandler.Upload).Methods("POST")
	api.HandleFunc("/assets/{name}", assetHandler.Delete).Methods("DELETE")
	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods("GET")

	r.HandleFunc("/ws/scene/{sceneId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, sceneService, cfg.Origins())
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	// The hub saves every open room before it stops.
	<-hubDone
	slog.Info("server stopped")
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, authSvc *auth.Service, scenes *scene.Service, origins []string) {
	sceneID := mux.Vars(r)["sceneId"]

	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	editor, err := authSvc.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	if _, err := scenes.Get(r.Context(), sceneID); err != nil {
		if errors.Is(err, scene.ErrNotFound) {
			http.Error(w, "scene not found", http.StatusNotFound)
			return
		}
		slog.Error("websocket scene lookup", "scene", sceneID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: origins,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	client := collab.NewClient(hub, conn, editor.ID, editor.DisplayName, sceneID, uuid.New().String())
	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
