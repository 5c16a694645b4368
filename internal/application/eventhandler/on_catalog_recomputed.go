// Package eventhandler contains the domain event handlers. They are the
// reactive part of the system: recomputes invalidate caches, risk
// transitions fan out into notifications.
package eventhandler

import (
	"context"
	"log/slog"

	"github.com/edualert/edualert/internal/domain/catalog"
	"github.com/edualert/edualert/internal/domain/ranking"
	"github.com/edualert/edualert/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON CATALOG RECOMPUTED HANDLER
// A recompute changes averages, so any cached placement board touching
// the student's class or school is stale. Invalidate, never rebuild
// here: the next read or the nightly placement run rebuilds.
// ═══════════════════════════════════════════════════════════════════════════

// OnCatalogRecomputedHandler invalidates placement caches after a
// catalog recompute.
type OnCatalogRecomputedHandler struct {
	catalogs       catalog.SubjectCatalogRepository
	placementCache ranking.PlacementCache
	logger         *slog.Logger
}

// NewOnCatalogRecomputedHandler creates the handler.
func NewOnCatalogRecomputedHandler(
	catalogs catalog.SubjectCatalogRepository,
	placementCache ranking.PlacementCache,
	logger *slog.Logger,
) *OnCatalogRecomputedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnCatalogRecomputedHandler{
		catalogs:       catalogs,
		placementCache: placementCache,
		logger:         logger.With("handler", "on_catalog_recomputed"),
	}
}

// Handle processes a CatalogRecomputedEvent. Implements shared.EventHandler.
func (h *OnCatalogRecomputedHandler) Handle(event shared.Event) error {
	recompute, ok := event.(shared.CatalogRecomputedEvent)
	if !ok {
		h.logger.Warn("received non-CatalogRecomputedEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	ctx := context.Background()

	if h.placementCache == nil {
		return nil
	}

	if recompute.StudyClassID != "" {
		if err := h.placementCache.InvalidateScope(ctx, recompute.StudyClassID); err != nil {
			h.logger.Warn("failed to invalidate class placement cache",
				"study_class_id", recompute.StudyClassID,
				"error", err,
			)
		}
	}

	cat, err := h.catalogs.GetByID(ctx, recompute.AggregateID())
	if err != nil {
		if shared.IsNotFound(err) {
			return nil
		}
		h.logger.Error("failed to load catalog for cache invalidation",
			"catalog_id", recompute.AggregateID(),
			"error", err,
		)
		return err
	}
	if cat.SchoolUnitID != "" {
		if err := h.placementCache.InvalidateScope(ctx, cat.SchoolUnitID); err != nil {
			h.logger.Warn("failed to invalidate school placement cache",
				"school_unit_id", cat.SchoolUnitID,
				"error", err,
			)
		}
	}

	h.logger.Debug("placement caches invalidated",
		"catalog_id", recompute.AggregateID(),
		"student_id", recompute.StudentID,
	)
	return nil
}

// EventType returns the event type this handler subscribes to.
func (h *OnCatalogRecomputedHandler) EventType() shared.EventType {
	return shared.EventCatalogRecomputed
}
