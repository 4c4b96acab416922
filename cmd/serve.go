package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/partscope/partscope/internal/config"
	"github.com/partscope/partscope/internal/model"
	"github.com/partscope/partscope/internal/pipeline"
)

var servePort int

// discoveryAPI is the slice of the pipeline the HTTP handlers need.
type discoveryAPI interface {
	DiscoverComponents(ctx context.Context, imageID string, info model.ProductInfo, force bool) (model.ComponentSet, error)
	Identify(ctx context.Context, imageID string) (model.Identification, error)
	SupplyChain(ctx context.Context, info model.ProductInfo, parts []model.KnownPart, useDemo, force bool) (model.SupplyChainReport, error)
	CurrentStatus(ctx context.Context) pipeline.Status
	ClearCache(ctx context.Context) (int, error)
}

// imageAPI is the slice of the image store the HTTP handlers need.
type imageAPI interface {
	Save(data []byte) (id string, width, height int, err error)
	Path(id string) (string, error)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the component discovery HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: buildRouter(env.Pipeline, env.Images, cfg),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(context.Background())
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func buildRouter(api discoveryAPI, imgs imageAPI, c *config.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: c.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/upload", func(w http.ResponseWriter, req *http.Request) {
		req.Body = http.MaxBytesReader(w, req.Body, c.Upload.MaxBytes)
		file, _, err := req.FormFile("image")
		if err != nil {
			writeError(w, http.StatusBadRequest, "no image file provided")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, "read upload")
			return
		}

		id, width, height, err := imgs.Save(data)
		if err != nil {
			zap.L().Warn("upload rejected", zap.Error(err))
			writeError(w, http.StatusBadRequest, "image unreadable or too large")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"image_id":    id,
			"width":       width,
			"height":      height,
			"preview_url": fmt.Sprintf("/uploads/%s.jpg", id),
			"status":      "uploaded",
		})
	})

	r.Post("/api/generate-3d", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			ImageID         string            `json:"image_id"`
			ProductInfo     model.ProductInfo `json:"product_info"`
			ForceRegenerate bool              `json:"force_regenerate"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.ImageID == "" {
			writeError(w, http.StatusBadRequest, "image_id is required")
			return
		}

		set, err := api.DiscoverComponents(req.Context(), body.ImageID, body.ProductInfo, body.ForceRegenerate)
		if err != nil {
			if errors.Is(err, model.ErrImageUnreadable) {
				writeError(w, http.StatusNotFound, "image not found")
				return
			}
			zap.L().Error("discovery failed", zap.String("image_id", body.ImageID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "discovery failed")
			return
		}

		writeJSON(w, http.StatusOK, set)
	})

	r.Get("/api/generate-3d/status", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, api.CurrentStatus(req.Context()))
	})

	r.Post("/api/identify", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			ImageID string `json:"image_id"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.ImageID == "" {
			writeError(w, http.StatusBadRequest, "image_id is required")
			return
		}

		ident, err := api.Identify(req.Context(), body.ImageID)
		if err != nil {
			if errors.Is(err, model.ErrImageUnreadable) {
				writeError(w, http.StatusNotFound, "image not found")
				return
			}
			zap.L().Error("identify failed", zap.String("image_id", body.ImageID), zap.Error(err))
			writeError(w, http.StatusBadGateway, "identification failed")
			return
		}

		writeJSON(w, http.StatusOK, ident)
	})

	r.Post("/api/supply-chain", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			ProductInfo  model.ProductInfo `json:"product_info"`
			Components   []model.KnownPart `json:"components"`
			UseDemo      bool              `json:"use_demo"`
			ForceRefresh bool              `json:"force_refresh"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		report, err := api.SupplyChain(req.Context(), body.ProductInfo, body.Components, body.UseDemo, body.ForceRefresh)
		if err != nil {
			zap.L().Error("supply chain research failed",
				zap.String("brand", body.ProductInfo.Brand),
				zap.Error(err))
			writeError(w, http.StatusBadGateway, "supply chain research failed")
			return
		}

		writeJSON(w, http.StatusOK, report)
	})

	r.Get("/api/supply-chain/demo", func(w http.ResponseWriter, req *http.Request) {
		report, err := api.SupplyChain(req.Context(), model.ProductInfo{}, nil, true, false)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "demo data unavailable")
			return
		}
		writeJSON(w, http.StatusOK, report)
	})

	r.Post("/api/clear-cache", func(w http.ResponseWriter, req *http.Request) {
		n, err := api.ClearCache(req.Context())
		if err != nil {
			zap.L().Error("clear cache failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "clear cache failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":       true,
			"deleted_count": n,
		})
	})

	r.Get("/uploads/{id}.jpg", func(w http.ResponseWriter, req *http.Request) {
		path, err := imgs.Path(chi.URLParam(req, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "image not found")
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		http.ServeFile(w, req, path)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
