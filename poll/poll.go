// Package poll runs the periodic ingestion cycle: fetch each watched user's
// activity page, extract fresh entries, and push notifications.
package poll

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kmhagan/playfeed/config"
	"github.com/kmhagan/playfeed/db"
	"github.com/kmhagan/playfeed/discord"
	"github.com/kmhagan/playfeed/feed"
	"github.com/kmhagan/playfeed/igdb"
	"github.com/kmhagan/playfeed/telemetry"
)

// Poller wires the collaborators a cycle needs. IGDB is nil when cover
// lookup is not configured.
type Poller struct {
	Cfg       *config.Config
	DB        *sql.DB
	Feed      *feed.Client
	Extractor *feed.Extractor
	Notifier  *discord.Notifier
	IGDB      *igdb.Client

	// Now is overridable in tests; defaults to time.Now.
	Now func() time.Time
}

func (p *Poller) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// StartPollJob runs poll cycles at the configured interval until ctx is done.
func StartPollJob(ctx context.Context, p *Poller) {
	interval := p.Cfg.PollInterval
	slog.Info("poll job starting", slog.Duration("interval", interval), slog.Int("users", len(p.Cfg.Usernames)))
	telemetry.WatchedUsersGauge.Set(float64(len(p.Cfg.Usernames)))
	// Kick an immediate run so we don't wait a full interval after boot.
	if err := p.RunCycle(ctx); err != nil {
		slog.Warn("poll cycle", slog.Any("err", err))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("poll job stopped")
			return
		case <-ticker.C:
			if err := p.RunCycle(ctx); err != nil {
				slog.Warn("poll cycle", slog.Any("err", err))
			}
		}
	}
}

// RunCycle fetches every watched user once, in watchlist order, and notifies
// for entries that survive extraction, status policy, freshness, and dedup.
// Per-user fetch failures are logged and skipped; the cycle itself only
// returns an error when nothing could be fetched at all.
func (p *Poller) RunCycle(ctx context.Context) error {
	ctx = telemetry.WithCorrelation(ctx, uuid.New().String())
	logger := telemetry.LoggerWithCorr(ctx)
	ctx, span := telemetry.StartSpan(ctx, "poll", "poll.cycle")
	defer span.End()

	start := time.Now()
	telemetry.PollCycles.Inc()
	if p.DB != nil {
		_, _ = p.DB.ExecContext(ctx, `INSERT INTO kv (key,value,updated_at) VALUES ('job_poll_last', to_char(NOW() AT TIME ZONE 'UTC','YYYY-MM-DD"T"HH24:MI:SS.MS"Z"'), NOW())
			ON CONFLICT(key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()`)
	}

	// Fetch users concurrently but merge results in watchlist order, so
	// delivery order stays stable regardless of response timing.
	type userResult struct {
		entries []feed.RawEntry
		err     error
	}
	results := make([]userResult, len(p.Cfg.Usernames))
	var wg sync.WaitGroup
	for i, username := range p.Cfg.Usernames {
		wg.Add(1)
		go func(i int, username string) {
			defer wg.Done()
			results[i].entries, results[i].err = p.collectUser(ctx, username)
		}(i, username)
	}
	wg.Wait()

	var entries []feed.RawEntry
	fetched := 0
	for i, username := range p.Cfg.Usernames {
		if err := results[i].err; err != nil {
			telemetry.FetchErrors.Inc()
			logger.Warn("fetch activity", slog.String("username", username), slog.Any("err", err))
			continue
		}
		fetched++
		entries = append(entries, results[i].entries...)
	}
	if fetched == 0 && len(p.Cfg.Usernames) > 0 {
		telemetry.RecordError(span, errAllFetchesFailed)
		return errAllFetchesFailed
	}

	entries = p.applyPolicy(ctx, entries)

	before := len(entries)
	entries = feed.Dedup(entries)
	if n := before - len(entries); n > 0 {
		telemetry.EntriesDuplicate.Add(float64(n))
	}

	sent := 0
	for _, e := range entries {
		if err := p.notify(ctx, e); err != nil {
			telemetry.NotificationsFailed.Inc()
			logger.Warn("send notification", slog.String("username", e.Username), slog.String("game", e.GameName), slog.Any("err", err))
			continue
		}
		sent++
		telemetry.NotificationsSent.Inc()
	}

	dur := time.Since(start)
	telemetry.CycleDuration.Observe(dur.Seconds())
	logger.Info("poll cycle done",
		slog.Int("users", fetched),
		slog.Int("entries", len(entries)),
		slog.Int("sent", sent),
		slog.Duration("took", dur))
	telemetry.SetSpanSuccess(span)
	return nil
}

// collectUser fetches and extracts one user's activity page.
func (p *Poller) collectUser(ctx context.Context, username string) ([]feed.RawEntry, error) {
	ctx, span := telemetry.StartSpan(ctx, "poll", "poll.user", telemetry.UserAttr(username))
	defer span.End()

	var page string
	var err error
	telemetry.TimeFunc(telemetry.FetchDuration, func() {
		page, err = p.Feed.FetchActivity(ctx, username)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	logger := telemetry.LoggerWithCorr(ctx)
	var out []feed.RawEntry
	for _, row := range feed.ParseRows(page) {
		entry, err := p.Extractor.Extract(row)
		if err != nil {
			telemetry.EntriesSkipped.Inc()
			logger.Debug("skip activity row", slog.String("username", username), slog.Any("err", err))
			continue
		}
		telemetry.EntriesExtracted.Inc()
		out = append(out, entry)
	}
	telemetry.SetSpanSuccess(span)
	return out, nil
}

// applyPolicy drops unclassified, excluded, and stale entries.
func (p *Poller) applyPolicy(ctx context.Context, entries []feed.RawEntry) []feed.RawEntry {
	logger := telemetry.LoggerWithCorr(ctx)
	now := p.now().Unix()
	out := entries[:0]
	for _, e := range entries {
		if e.Status == feed.StatusNone || p.Cfg.StatusExclude[e.Status.String()] {
			telemetry.EntriesFiltered.Inc()
			continue
		}
		if !feed.Fresh(e.Timestamp, now, p.Cfg.FreshnessWindow) {
			telemetry.EntriesStale.Inc()
			logger.Debug("stale entry", slog.String("username", e.Username), slog.String("game", e.GameName), slog.Int64("ts", e.Timestamp))
			continue
		}
		out = append(out, e)
	}
	return out
}

// notify enriches one entry and delivers it, then records history.
func (p *Poller) notify(ctx context.Context, e feed.RawEntry) error {
	lg := feed.Log{RawEntry: e}
	lg.AvatarURL = p.Feed.AvatarURL(ctx, e.Username)

	coverURL := ""
	if p.IGDB != nil {
		if slug := igdb.SlugFromGameURL(e.GameURL); slug != "" {
			imageID, err := p.IGDB.CoverImageID(ctx, slug)
			if err != nil {
				telemetry.CoverLookupErrors.Inc()
				telemetry.LoggerWithCorr(ctx).Debug("cover lookup", slog.String("slug", slug), slog.Any("err", err))
			} else if imageID != "" {
				lg.CoverImageID = imageID
				coverURL = igdb.CoverURL(imageID)
			}
		}
	}

	embed := discord.NewLogEmbed(lg, p.Feed.ResolveURL, coverURL)
	if err := p.Notifier.Send(ctx, embed); err != nil {
		return err
	}

	if p.DB != nil {
		play := db.Play{
			Username:   e.Username,
			GameName:   e.GameName,
			GameURL:    e.GameURL,
			Status:     e.Status.String(),
			Rating:     e.Rating,
			PlayedAt:   time.Unix(e.Timestamp, 0).UTC(),
			NotifiedAt: p.now().UTC(),
		}
		if err := db.RecordPlay(ctx, p.DB, play); err != nil {
			telemetry.LoggerWithCorr(ctx).Warn("record play", slog.Any("err", err))
		}
	}
	return nil
}

var errAllFetchesFailed = errors.New("all activity fetches failed")
