package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/local/docfinder/internal/classify"
	"github.com/local/docfinder/internal/metrics"
	"github.com/local/docfinder/internal/ocr"
	"github.com/local/docfinder/internal/ocrcache"
	"github.com/local/docfinder/internal/render"
	"github.com/local/docfinder/internal/scan"
	"github.com/local/docfinder/internal/statuscheck"
	web "github.com/local/docfinder/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the upload form and result page",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				a.cfg.Web.Port = port
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "HTTP port (overrides PORT)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	if cfg.Metrics.Enabled {
		metrics.Init()
	}

	langs := ocr.ParseLanguages(cfg.OCR.Languages)
	engine := ocr.New(ocr.Options{
		Languages:      langs,
		PageSegMode:    cfg.OCR.PageSegMode,
		TessdataPrefix: cfg.OCR.TessdataPrefix,
	})
	recognizer, closeCache := a.cachedRecognizer(ctx, engine)
	defer closeCache()

	raster := render.New(render.Options{DPI: cfg.Render.DPI, MaxPages: cfg.Render.MaxPagesPerFile})
	checker := statuscheck.New(statuscheck.Options{Languages: engine.Languages(), TessdataPrefix: cfg.OCR.TessdataPrefix})

	if s := checker.Summary(); !s.OK() {
		log.Warn().
			Str("tesseract", s.Tesseract.Message).
			Str("models", s.Models.Message).
			Msg("OCR engine not fully available")
	}

	defaults := classify.NewTypeSet()
	for _, v := range cfg.Web.DefaultTypes {
		if t, ok := classify.ParseType(v); ok {
			defaults[t] = struct{}{}
		} else {
			log.Warn().Str("type", v).Msg("unknown default document type ignored")
		}
	}

	ui := web.New(web.Options{
		Scanner:        scan.New(raster, recognizer),
		Status:         checker,
		Username:       cfg.Web.Username,
		Password:       cfg.Web.Password,
		MaxUploadMB:    cfg.Web.MaxUploadMB,
		RequestTimeout: cfg.Web.RequestTimeout,
		DefaultTypes:   defaults,
		Metrics:        cfg.Metrics.Enabled,
		MaxConcurrent:  cfg.Web.MaxConcurrent,
	})

	srv := &http.Server{Addr: ":" + cfg.Web.Port, Handler: ui.Handler()}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Web.Port).
			Strs("languages", engine.Languages()).
			Int("dpi", raster.DPI()).
			Bool("auth", cfg.Web.Username != "").
			Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			log.Error().Err(err).Msg("http server error")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("shutdown complete")
	return nil
}

// cachedRecognizer puts the engine behind Redis when REDIS_URL is set, an
// in-process cache otherwise. An unreachable Redis falls back to memory.
func (a *app) cachedRecognizer(ctx context.Context, engine *ocr.Tesseract) (scan.Recognizer, func()) {
	cfg := a.cfg.Cache
	salt := fmt.Sprintf("%s/%d", strings.Join(engine.Languages(), "+"), a.cfg.OCR.PageSegMode)

	if cfg.RedisURL != "" {
		store, err := ocrcache.NewRedisStore(ctx, cfg.RedisURL, cfg.TTL)
		if err == nil {
			log.Info().Dur("ttl", cfg.TTL).Msg("OCR cache backed by redis")
			return ocrcache.Wrap(engine, store, salt), func() { _ = store.Close() }
		}
		log.Warn().Err(err).Msg("redis unavailable, using in-process OCR cache")
	}
	if cfg.MemoryEntries <= 0 {
		return engine, func() {}
	}
	return ocrcache.Wrap(engine, ocrcache.NewMemoryStore(cfg.MemoryEntries), salt), func() {}
}
