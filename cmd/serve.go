package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/chtrack/internal/model"
	"github.com/sells-group/chtrack/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the leaderboard and score-ingest server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer s.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(s, cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("serve: listening", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "serve: listen")
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			zap.L().Info("serve: shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return eris.Wrap(srv.Shutdown(shutdownCtx), "serve: shutdown")
		})
		return g.Wait()
	},
}

func newRouter(s store.Store, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/players", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
			return
		}

		token := uuid.New().String()
		player, err := s.RegisterPlayer(r.Context(), req.Name, token)
		if err != nil {
			zap.L().Error("serve: register player", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "registration failed"})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{
			"player_id": player.ID,
			"token":     token,
		})
	})

	r.Post("/api/scores", func(w http.ResponseWriter, r *http.Request) {
		var sub model.ScoreSubmission
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		player, err := s.GetPlayerByToken(r.Context(), sub.Token)
		if err != nil {
			zap.L().Error("serve: lookup token", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "lookup failed"})
			return
		}
		if player == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unknown token"})
			return
		}

		chartID, err := model.ParseChartID(sub.ChartID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid chart_id"})
			return
		}

		if sub.Title != "" {
			meta := model.SongMetadata{ChartID: chartID, Title: &sub.Title, Source: model.TitleSourceFilepath}
			if sub.Artist != "" {
				meta.Artist = &sub.Artist
			}
			if err := s.UpsertChart(r.Context(), meta); err != nil {
				zap.L().Warn("serve: upsert chart", zap.Error(err))
			}
		}

		raised, err := s.UpsertScore(r.Context(), model.Submission{
			PlayerID:   player.ID,
			ChartID:    chartID,
			Instrument: model.Instrument(sub.Instrument),
			Difficulty: model.Difficulty(sub.Difficulty),
			Score:      sub.Score,
			Stars:      sub.Stars,
			PlayCount:  sub.PlayCount,
		})
		if err != nil {
			zap.L().Error("serve: upsert score", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store failed"})
			return
		}

		zap.L().Info("serve: score accepted",
			zap.String("player", player.Name),
			zap.String("chart", sub.ChartID),
			zap.Int("score", sub.Score),
			zap.Bool("raised", raised),
		)
		writeJSON(w, http.StatusCreated, map[string]any{"status": "accepted", "raised": raised})
	})

	r.Get("/api/leaderboard/{chartID}", func(w http.ResponseWriter, r *http.Request) {
		chartID, err := model.ParseChartID(chi.URLParam(r, "chartID"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid chart id"})
			return
		}

		filter := store.LeaderboardFilter{Limit: queryInt(r, "limit")}
		if v := r.URL.Query().Get("instrument"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				inst := model.Instrument(n)
				filter.Instrument = &inst
			}
		}
		if v := r.URL.Query().Get("difficulty"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				diff := model.Difficulty(n)
				filter.Difficulty = &diff
			}
		}

		entries, err := s.Leaderboard(r.Context(), chartID, filter)
		if err != nil {
			zap.L().Error("serve: leaderboard", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
	})

	r.Get("/api/recent", func(w http.ResponseWriter, r *http.Request) {
		subs, err := s.Recent(r.Context(), queryInt(r, "limit"))
		if err != nil {
			zap.L().Error("serve: recent", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"submissions": subs})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func queryInt(r *http.Request, key string) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
