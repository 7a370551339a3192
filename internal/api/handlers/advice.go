package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/wonny/pitviper/backend/internal/contracts"
	"github.com/wonny/pitviper/backend/internal/storage"
	"github.com/wonny/pitviper/backend/pkg/logger"
	"github.com/wonny/pitviper/backend/pkg/redis"
)

// AdviceRunner runs the pipeline and remembers its last packet.
type AdviceRunner interface {
	Run(ctx context.Context) (*contracts.AdvicePacket, error)
	Latest() *contracts.AdvicePacket
}

// PacketStore is durable storage of past packets.
type PacketStore interface {
	LatestPacket(ctx context.Context) (*contracts.AdvicePacket, error)
}

// AdviceHandler serves the advice endpoints
type AdviceHandler struct {
	runner AdviceRunner
	cache  *redis.Cache
	store  PacketStore
	logger *logger.Logger
}

// NewAdviceHandler creates a new advice handler. cache and store may be nil.
func NewAdviceHandler(runner AdviceRunner, cache *redis.Cache, store PacketStore, log *logger.Logger) *AdviceHandler {
	return &AdviceHandler{
		runner: runner,
		cache:  cache,
		store:  store,
		logger: log,
	}
}

// GetLatest returns the most recent advice packet
// GET /api/advice/latest
func (h *AdviceHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	packet, err := h.latest(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get latest packet")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve advice")
		return
	}
	if packet == nil {
		respondError(w, http.StatusNotFound, "No advice has been generated yet")
		return
	}

	respondJSON(w, http.StatusOK, packet)
}

// latest looks in memory, then Redis, then Postgres. (nil, nil) means none.
func (h *AdviceHandler) latest(ctx context.Context) (*contracts.AdvicePacket, error) {
	if packet := h.runner.Latest(); packet != nil {
		return packet, nil
	}

	if h.cache != nil {
		var packet contracts.AdvicePacket
		found, err := h.cache.Get(ctx, redis.LatestPacketKey(), &packet)
		if err != nil {
			h.logger.WithError(err).Warn("Latest packet cache lookup failed")
		} else if found {
			return &packet, nil
		}
	}

	if h.store != nil {
		packet, err := h.store.LatestPacket(ctx)
		if errors.Is(err, storage.ErrNoPacket) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return packet, nil
	}

	return nil, nil
}

// RunNow triggers a pipeline run and returns its packet
// POST /api/advice/run
func (h *AdviceHandler) RunNow(w http.ResponseWriter, r *http.Request) {
	packet, err := h.runner.Run(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Advice run failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, packet)
}
