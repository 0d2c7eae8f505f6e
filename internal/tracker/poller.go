package tracker

import (
	"context"
	"log/slog"
	"time"

	"fetcharr/internal/config"
	"fetcharr/internal/logging"
	"fetcharr/internal/media"
	"fetcharr/internal/notify"
	"fetcharr/internal/requests"
	"fetcharr/internal/services"
)

// Poller periodically reconciles tracked requests against the catalog
// services: expiring stale prompts, detecting finished downloads, and
// cleaning up records the catalog no longer knows about.
type Poller struct {
	cfg      *config.Config
	store    *requests.Store
	movies   CatalogClient
	shows    CatalogClient
	notifier notify.Service
	logger   *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewPoller constructs the background reconciler.
func NewPoller(cfg *config.Config, store *requests.Store, movies, shows CatalogClient, notifier notify.Service, logger *slog.Logger) *Poller {
	return &Poller{
		cfg:      cfg,
		store:    store,
		movies:   movies,
		shows:    shows,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "poller"),
		now:      time.Now,
	}
}

// Run sweeps immediately, then on the configured interval until the
// context is canceled.
func (p *Poller) Run(ctx context.Context) error {
	interval := p.cfg.PollInterval()
	p.logger.Info("poller started", logging.Any("interval", interval))

	if err := p.Sweep(ctx); err != nil {
		p.logger.Error("sweep failed", logging.Error(err))
	}
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return ctx.Err()
		case <-time.After(interval):
			if err := p.Sweep(ctx); err != nil {
				p.logger.Error("sweep failed", logging.Error(err))
			}
		}
	}
}

// Sweep examines every tracked request once. Failures on one record are
// logged and never block the rest of the sweep.
func (p *Poller) Sweep(ctx context.Context) error {
	records, err := p.store.List(ctx)
	if err != nil {
		return err
	}
	for _, record := range records {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := p.checkRequest(ctx, record); err != nil {
			p.logger.Error("request check failed",
				logging.Int64(logging.FieldRequestID, record.ID),
				logging.String(logging.FieldState, string(record.State)),
				logging.Error(err),
			)
		}
	}
	return nil
}

func (p *Poller) checkRequest(ctx context.Context, record *requests.Request) error {
	switch record.State {
	case requests.StatePendingUser:
		return p.checkPending(ctx, record)
	case requests.StateDownloading:
		return p.checkDownloading(ctx, record)
	case requests.StateComplete:
		// A persisted COMPLETE row means a deletion was interrupted.
		_, err := p.store.Remove(ctx, record.ID)
		return err
	default:
		p.logger.Warn("skipping record with unknown state",
			logging.Int64(logging.FieldRequestID, record.ID),
			logging.String(logging.FieldState, string(record.State)),
		)
		return nil
	}
}

// checkPending expires prompts the user never answered.
func (p *Poller) checkPending(ctx context.Context, record *requests.Request) error {
	if record.Age(p.now()) <= p.cfg.MaxTimePending() {
		return nil
	}
	removed, err := p.store.Remove(ctx, record.ID)
	if err != nil {
		return err
	}
	if !removed {
		// Someone else deleted it between List and Remove; nothing to
		// announce.
		return nil
	}
	p.logger.Info("pending request expired",
		logging.Int64(logging.FieldRequestID, record.ID),
		logging.Int64(logging.FieldRequestor, record.RequestorID),
		logging.String(logging.FieldEventType, "pending_timeout"),
	)
	p.send(ctx, record.RequestorID, timeoutMessage(record.Name))
	return nil
}

// checkDownloading asks the catalog whether the item has finished.
func (p *Poller) checkDownloading(ctx context.Context, record *requests.Request) error {
	info, err := record.MediaInfo()
	if err != nil {
		return err
	}
	client := p.clientFor(record)

	current, err := client.GetByID(ctx, info.ServiceID)
	if services.IsNotFound(err) {
		return p.dropLost(ctx, record)
	}
	if err != nil {
		// Transient service trouble; the next sweep retries.
		return err
	}

	if err := record.SetMediaInfo(current); err != nil {
		return err
	}
	if err := p.store.Update(ctx, record); err != nil {
		return err
	}
	if !current.Finished(record.MediaType) {
		return nil
	}

	if _, err := p.store.Remove(ctx, record.ID); err != nil {
		return err
	}
	p.logger.Info("request fulfilled",
		logging.Int64(logging.FieldRequestID, record.ID),
		logging.Int64(logging.FieldRequestor, record.RequestorID),
		logging.String(logging.FieldMediaType, string(record.MediaType)),
		logging.String(logging.FieldEventType, "request_complete"),
	)
	p.send(ctx, record.RequestorID, finishedMessage(record.MediaType, record.Name))
	return nil
}

// dropLost removes a record whose catalog entry disappeared, usually
// because an operator deleted the item from the service directly.
func (p *Poller) dropLost(ctx context.Context, record *requests.Request) error {
	removed, err := p.store.Remove(ctx, record.ID)
	if err != nil {
		return err
	}
	if removed {
		p.logger.Warn("catalog entry vanished; dropping request",
			logging.Int64(logging.FieldRequestID, record.ID),
			logging.String(logging.FieldMediaType, string(record.MediaType)),
			logging.String(logging.FieldEventType, "request_lost"),
		)
		p.send(ctx, record.RequestorID, lostTrackMessage(record.Name))
	}
	return nil
}

func (p *Poller) clientFor(record *requests.Request) CatalogClient {
	if record.MediaType == media.TypeShow {
		return p.shows
	}
	return p.movies
}

func (p *Poller) send(ctx context.Context, userID int64, text string) {
	if err := p.notifier.Notify(ctx, userID, text); err != nil {
		p.logger.Warn("notification delivery failed",
			logging.Int64(logging.FieldRequestor, userID),
			logging.Error(err),
		)
	}
}
