package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fliplens/appraise-cli/internal/analyzer"
	"github.com/fliplens/appraise-cli/internal/model"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the appraisal HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		env, err := initAnalyzer(ctx, false)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(env.Analyzer, cfg.Vision.MaxImageBytes),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// appraiser is the slice of the analyzer the HTTP layer needs.
type appraiser interface {
	AnalyzeCard(ctx context.Context, req analyzer.Request) (*model.CardAnalysis, error)
	AnalyzeWatch(ctx context.Context, req analyzer.Request) (*model.WatchAnalysis, error)
}

func newRouter(app appraiser, maxImageBytes int64) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1/appraise", func(r chi.Router) {
		r.Post("/card", handleAppraise(maxImageBytes, func(ctx context.Context, req analyzer.Request) (any, error) {
			return app.AnalyzeCard(ctx, req)
		}))
		r.Post("/watch", handleAppraise(maxImageBytes, func(ctx context.Context, req analyzer.Request) (any, error) {
			return app.AnalyzeWatch(ctx, req)
		}))
	})

	return r
}

// appraiseRequest is the wire shape; image bytes arrive base64 encoded, the
// standard json []byte convention.
type appraiseRequest struct {
	FrontImage []byte `json:"front_image,omitempty"`
	BackImage  []byte `json:"back_image,omitempty"`
	MediaType  string `json:"media_type,omitempty"`

	Manual    analyzer.ManualFields `json:"manual,omitempty"`
	Condition string                `json:"condition,omitempty"`

	BuyPrice            float64  `json:"buy_price"`
	ShippingIn          float64  `json:"shipping_in,omitempty"`
	FeeRateOverride     *float64 `json:"fee_rate_override,omitempty"`
	ShippingOutOverride *float64 `json:"shipping_out_override,omitempty"`
}

func (r appraiseRequest) toRequest() analyzer.Request {
	return analyzer.Request{
		FrontImage:          r.FrontImage,
		BackImage:           r.BackImage,
		MediaType:           r.MediaType,
		Manual:              r.Manual,
		Condition:           model.ConditionBucket(r.Condition),
		BuyPrice:            r.BuyPrice,
		ShippingIn:          r.ShippingIn,
		FeeRateOverride:     r.FeeRateOverride,
		ShippingOutOverride: r.ShippingOutOverride,
	}
}

func handleAppraise(maxImageBytes int64, run func(ctx context.Context, req analyzer.Request) (any, error)) http.HandlerFunc {
	// Two images plus base64 overhead.
	maxBody := maxImageBytes*3 + 64*1024

	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)

		var req appraiseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		res, err := run(r.Context(), req.toRequest())
		if err != nil {
			zap.L().Warn("appraisal request rejected", zap.Error(err))
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
