// Package admin is the operator control surface of the worker: start and
// stop the publishing loop, delete everything it published, inspect its
// state and change which channel receives each category.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"klist/internal/domain/entity"
	"klist/internal/handler/http/respond"
	"klist/internal/observability/logging"
	"klist/internal/repository"
)

// Loop is the scheduling loop.
type Loop interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Running() bool
}

// Purger deletes every published message and ledger.
type Purger interface {
	Purge(ctx context.Context) error
}

// Handler serves the admin routes.
type Handler struct {
	Loop     Loop
	Purger   Purger
	Channels repository.ChannelRepository
	Ledgers  repository.LedgerRepository
	RunState repository.RunStateRepository
	Logger   *slog.Logger
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Running      bool                `json:"running"`
	Deleted      bool                `json:"deleted"`
	Destinations []DestinationStatus `json:"destinations"`
}

// DestinationStatus describes one guild: its channels and how many pages
// each ledger tracks.
type DestinationStatus struct {
	GuildID  string                     `json:"guild_id"`
	Channels map[entity.Category]string `json:"channels"`
	Pages    map[entity.Category]int    `json:"pages"`
}

type setChannelRequest struct {
	ChannelID string `json:"channel_id"`
}

// Routes registers every admin endpoint on a new ServeMux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", h.status)
	mux.HandleFunc("POST /start", h.start)
	mux.HandleFunc("POST /stop", h.stop)
	mux.HandleFunc("POST /delete", h.purge)
	mux.HandleFunc("PUT /guilds/{guild}/channels/{category}", h.setChannel)
	mux.HandleFunc("DELETE /guilds/{guild}/channels/{category}", h.clearChannel)
	return mux
}

func (h *Handler) logger(r *http.Request) *slog.Logger {
	return logging.WithRequestID(r.Context(), h.Logger)
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	state, err := h.RunState.Get(ctx)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, fmt.Errorf("load run state: %w", err))
		return
	}
	dests, err := h.Channels.List(ctx)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, fmt.Errorf("list destinations: %w", err))
		return
	}

	resp := StatusResponse{
		Running:      h.Loop.Running(),
		Deleted:      state.Deleted,
		Destinations: make([]DestinationStatus, 0, len(dests)),
	}
	for _, dest := range dests {
		ds := DestinationStatus{
			GuildID:  dest.GuildID,
			Channels: map[entity.Category]string{},
			Pages:    map[entity.Category]int{},
		}
		for _, cat := range dest.Enabled() {
			ds.Channels[cat] = dest.Channels[cat]
			ledger, err := h.Ledgers.Get(ctx, entity.LedgerKey{GuildID: dest.GuildID, Category: cat})
			if err != nil {
				respond.SafeError(w, http.StatusInternalServerError, fmt.Errorf("load ledger: %w", err))
				return
			}
			ds.Pages[cat] = len(ledger)
		}
		resp.Destinations = append(resp.Destinations, ds)
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	if err := h.Loop.Start(r.Context()); err != nil {
		if errors.Is(err, entity.ErrAlreadyRunning) {
			respond.Error(w, http.StatusConflict, err)
			return
		}
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	h.logger(r).Info("publishing started by operator")
	respond.JSON(w, http.StatusOK, map[string]bool{"running": true})
}

func (h *Handler) stop(w http.ResponseWriter, r *http.Request) {
	if err := h.Loop.Stop(r.Context()); err != nil {
		if errors.Is(err, entity.ErrNotRunning) {
			respond.Error(w, http.StatusConflict, err)
			return
		}
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	h.logger(r).Info("publishing stopped by operator")
	respond.JSON(w, http.StatusOK, map[string]bool{"running": false})
}

func (h *Handler) purge(w http.ResponseWriter, r *http.Request) {
	// A dropped client connection must not stop a purge halfway.
	if err := h.Purger.Purge(context.WithoutCancel(r.Context())); err != nil {
		respond.SafeError(w, http.StatusInternalServerError,
			respond.NewAppError(http.StatusBadGateway, "some messages could not be deleted; retry to finish", err))
		return
	}
	h.logger(r).Info("published messages deleted by operator")
	respond.JSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// pathKey validates the {guild} and {category} path values.
func pathKey(r *http.Request) (entity.LedgerKey, error) {
	guild := r.PathValue("guild")
	if err := entity.ValidateSnowflake("guild", guild); err != nil {
		return entity.LedgerKey{}, err
	}
	cat, err := entity.ParseCategory(r.PathValue("category"))
	if err != nil {
		return entity.LedgerKey{}, err
	}
	return entity.LedgerKey{GuildID: guild, Category: cat}, nil
}

func (h *Handler) setChannel(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	var req setChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, errors.New("invalid JSON body"))
		return
	}
	if err := entity.ValidateSnowflake("channel_id", req.ChannelID); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.Channels.Set(r.Context(), key.GuildID, key.Category, req.ChannelID); err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	h.logger(r).Info("channel set",
		slog.String("guild_id", key.GuildID),
		slog.String("category", key.Category.String()),
		slog.String("channel_id", req.ChannelID))
	respond.JSON(w, http.StatusOK, map[string]string{
		"guild_id":   key.GuildID,
		"category":   key.Category.String(),
		"channel_id": req.ChannelID,
	})
}

func (h *Handler) clearChannel(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.Channels.Clear(r.Context(), key.GuildID, key.Category); err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	h.logger(r).Info("channel cleared",
		slog.String("guild_id", key.GuildID),
		slog.String("category", key.Category.String()))
	w.WriteHeader(http.StatusNoContent)
}
