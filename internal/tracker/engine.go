package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fetcharr/internal/config"
	"fetcharr/internal/logging"
	"fetcharr/internal/media"
	"fetcharr/internal/notify"
	"fetcharr/internal/requests"
)

const (
	// maxCandidates caps the stored candidate list to what selection
	// menus downstream can render.
	maxCandidates = 20
	// freeSpaceFloorTB is the admission floor for new requests.
	freeSpaceFloorTB = 1.0
	// freeSpaceWarnTB triggers a low-storage warning while still
	// admitting the request.
	freeSpaceWarnTB = 2.0
)

// CatalogClient is the surface the tracker needs from a media service.
// The radarr and sonarr packages implement it.
type CatalogClient interface {
	Search(ctx context.Context, query string, exact bool) ([]media.CatalogItem, error)
	GetByID(ctx context.Context, id int64) (media.CatalogItem, error)
	Add(ctx context.Context, item media.CatalogItem, downloadNow bool) (media.CatalogItem, error)
	FreeSpace(ctx context.Context) (float64, error)
}

// CreateParams carries one incoming request from the front end.
type CreateParams struct {
	ID          int64
	RequestorID int64
	MediaType   media.Type
	Query       string
}

// Engine creates requests, validates preconditions, and drives the
// user-facing state transitions.
type Engine struct {
	cfg      *config.Config
	store    *requests.Store
	movies   CatalogClient
	shows    CatalogClient
	notifier notify.Service
	logger   *slog.Logger
}

// NewEngine constructs a lifecycle engine.
func NewEngine(cfg *config.Config, store *requests.Store, movies, shows CatalogClient, notifier notify.Service, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		store:    store,
		movies:   movies,
		shows:    shows,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "tracker"),
	}
}

func (e *Engine) clientFor(mediaType media.Type) CatalogClient {
	if mediaType == media.TypeShow {
		return e.shows
	}
	return e.movies
}

// Create validates a new request, searches the catalog, persists a
// PENDING_USER record, and returns the candidate list for the
// disambiguation prompt.
//
// Precondition order matters: duplicate id, then quota, then storage,
// and only then the catalog search, so rejected requests never cost a
// search round trip.
func (e *Engine) Create(ctx context.Context, params CreateParams) ([]media.CatalogItem, error) {
	if _, err := e.store.GetByID(ctx, params.ID); err == nil {
		return nil, fmt.Errorf("%w: id %d", requests.ErrConflict, params.ID)
	} else if !errors.Is(err, requests.ErrNotFound) {
		return nil, err
	}

	count, err := e.store.CountActiveByRequestor(ctx, params.RequestorID)
	if err != nil {
		return nil, err
	}
	if count >= e.cfg.Requests.MaxRequests {
		return nil, fmt.Errorf("%w: requestor %d already has %d in flight", ErrQuotaExceeded, params.RequestorID, count)
	}

	client := e.clientFor(params.MediaType)
	free, err := client.FreeSpace(ctx)
	if err != nil {
		return nil, err
	}
	if free < freeSpaceFloorTB {
		return nil, fmt.Errorf("%w: %.2f TB remaining", ErrInsufficientStorage, free)
	}
	if free < freeSpaceWarnTB {
		e.logger.Warn("library storage low",
			logging.Float64("free_tb", free),
			logging.String(logging.FieldEventType, "storage_low"),
		)
	}

	results, err := client.Search(ctx, params.Query, false)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: query %q", ErrNoResults, params.Query)
	}
	if len(results) > maxCandidates {
		results = results[:maxCandidates]
	}

	record := &requests.Request{
		ID:          params.ID,
		RequestorID: params.RequestorID,
		Name:        params.Query,
		MediaType:   params.MediaType,
		State:       requests.StatePendingUser,
		CreatedAt:   time.Now().UTC(),
	}
	if err := record.SetSearchResults(results); err != nil {
		return nil, err
	}
	if err := e.store.Insert(ctx, record); err != nil {
		return nil, err
	}

	e.logger.Info("request created",
		logging.Int64(logging.FieldRequestID, params.ID),
		logging.Int64(logging.FieldRequestor, params.RequestorID),
		logging.String(logging.FieldMediaType, string(params.MediaType)),
		logging.String("query", params.Query),
		logging.Int("candidates", len(results)),
	)
	return results, nil
}

// Select finalizes a pending request with the candidate matching the
// given natural key (TMDB id for movies, TVDB id for shows).
//
// A missing or already-finalized record reports ErrStaleSelection so a
// repeated callback is a polite no-op rather than a duplicate add. A
// downstream failure during add leaves the record in PENDING_USER so
// the user can retry.
func (e *Engine) Select(ctx context.Context, requestID, selectedKey int64) error {
	record, err := e.store.GetByID(ctx, requestID)
	if errors.Is(err, requests.ErrNotFound) {
		return fmt.Errorf("%w: request %d", ErrStaleSelection, requestID)
	}
	if err != nil {
		return err
	}
	if record.State != requests.StatePendingUser {
		return fmt.Errorf("%w: request %d already %s", ErrStaleSelection, requestID, record.State)
	}

	candidates, err := record.SearchResults()
	if err != nil {
		return err
	}
	var chosen *media.CatalogItem
	for i := range candidates {
		if candidates[i].Key(record.MediaType) == selectedKey {
			chosen = &candidates[i]
			break
		}
	}
	if chosen == nil {
		return fmt.Errorf("%w: key %d not among candidates for request %d", ErrStaleSelection, selectedKey, requestID)
	}

	logger := e.logger.With(
		logging.Int64(logging.FieldRequestID, requestID),
		logging.Int64(logging.FieldRequestor, record.RequestorID),
		logging.String(logging.FieldMediaType, string(record.MediaType)),
	)

	if chosen.Registered(record.MediaType) {
		return e.finalizeRegistered(ctx, logger, record, *chosen)
	}
	return e.finalizeAdded(ctx, logger, record, *chosen)
}

// finalizeRegistered handles candidates the catalog already tracks: no
// add call is made. Available items collapse straight to completion.
func (e *Engine) finalizeRegistered(ctx context.Context, logger *slog.Logger, record *requests.Request, chosen media.CatalogItem) error {
	if chosen.AvailableNow(record.MediaType) {
		if _, err := e.store.Remove(ctx, record.ID); err != nil {
			return err
		}
		logger.Info("request already available; completed immediately")
		e.send(ctx, logger, record.RequestorID, alreadyAvailableMessage(record.MediaType))
		return nil
	}

	snapshot := &requests.Request{}
	if err := snapshot.SetMediaInfo(chosen); err != nil {
		return err
	}
	if err := e.store.Finalize(ctx, record.ID, chosen.Title, snapshot.MediaInfoJSON, requests.StateDownloading); err != nil {
		return err
	}
	logger.Info("request tracking already-monitored item",
		logging.String(logging.FieldState, string(requests.StateDownloading)),
	)
	e.send(ctx, logger, record.RequestorID, monitoredNotAvailableMessage(record.MediaType))
	return nil
}

// finalizeAdded registers a new candidate with the catalog and records
// the canonical response, which carries the assigned internal id the
// poller needs.
func (e *Engine) finalizeAdded(ctx context.Context, logger *slog.Logger, record *requests.Request, chosen media.CatalogItem) error {
	client := e.clientFor(record.MediaType)
	added, err := client.Add(ctx, chosen, e.cfg.DownloadNow())
	if err != nil {
		// Record stays PENDING_USER; the user keeps their retry window.
		return fmt.Errorf("add %s to catalog: %w", chosen.Label(), err)
	}

	snapshot := &requests.Request{}
	if err := snapshot.SetMediaInfo(added); err != nil {
		return err
	}
	if err := e.store.Finalize(ctx, record.ID, added.Title, snapshot.MediaInfoJSON, requests.StateDownloading); err != nil {
		return err
	}

	logger.Info("request submitted for acquisition",
		logging.Int64("service_id", added.ServiceID),
		logging.String(logging.FieldState, string(requests.StateDownloading)),
	)
	if chosen.AvailableNow(record.MediaType) {
		e.send(ctx, logger, record.RequestorID, addedAvailableMessage(record.MediaType))
	} else {
		e.send(ctx, logger, record.RequestorID, addedPendingMessage(record.MediaType))
	}
	return nil
}

// send delivers a notification, logging failures as soft errors.
func (e *Engine) send(ctx context.Context, logger *slog.Logger, userID int64, text string) {
	if err := e.notifier.Notify(ctx, userID, text); err != nil {
		logger.Warn("notification delivery failed",
			logging.Int64(logging.FieldRequestor, userID),
			logging.Error(err),
		)
	}
}
