// Package monitoring assembles the unified cross-module feeds. Every module
// keeps its own session and answer tables; the queries here read each table
// through the MonitoringManager, over-fetch one window per table, and merge
// the windows into a single page ordered newest first. A module whose table
// cannot be read degrades the feed instead of failing it.
package monitoring

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/railcheck/railcheck/internal/common/apperrors"
	"github.com/railcheck/railcheck/internal/inspectsrv/config"
	"github.com/railcheck/railcheck/internal/inspectsrv/db"
	"github.com/railcheck/railcheck/internal/inspectsrv/db/models"
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
)

// window returns how many rows to fetch from each source table so the
// merged page is exact through offset+limit.
func window(page Page) int {
	return page.Offset + page.Limit + config.Config().Monitoring.FetchMargin
}

// feedModules resolves the module set a request reads: one module when the
// filter names it, otherwise all of them.
func feedModules(req *FeedRequest, all []inscommon.ModuleKind) []inscommon.ModuleKind {
	if req.Module != "" {
		for _, module := range all {
			if module == req.Module {
				return []inscommon.ModuleKind{module}
			}
		}
		return nil
	}
	return all
}

// ListSessions returns one page of the unified session feed.
func ListSessions(ctx context.Context, req *FeedRequest) (*SessionFeedPage, apperrors.Error) {
	page := &SessionFeedPage{
		Offset: req.Page.Offset,
		Limit:  req.Page.Limit,
	}

	var windows [][]models.SessionFeedRow
	for _, module := range feedModules(req, inscommon.AllModules()) {
		rows, err := db.DB(ctx).ListSessionFeed(ctx, module, req.Filter, window(req.Page))
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("module", string(module)).Msg("session feed source degraded")
			page.Degraded = append(page.Degraded, module)
			continue
		}
		windows = append(windows, rows)
	}

	page.Sessions = mergeByTime(windows, func(r models.SessionFeedRow) time.Time {
		return r.CreatedAt
	}, req.Page.Offset, req.Page.Limit)
	if page.Sessions == nil {
		page.Sessions = []models.SessionFeedRow{}
	}

	return page, nil
}

// ListDefects returns one page of the unified defect feed.
func ListDefects(ctx context.Context, req *FeedRequest) (*DefectFeedPage, apperrors.Error) {
	page := &DefectFeedPage{
		Offset: req.Page.Offset,
		Limit:  req.Page.Limit,
	}

	var windows [][]models.DefectFeedRow
	for _, module := range feedModules(req, inscommon.AnswerModules()) {
		rows, err := db.DB(ctx).ListDefectFeed(ctx, module, req.Filter, window(req.Page))
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("module", string(module)).Msg("defect feed source degraded")
			page.Degraded = append(page.Degraded, module)
			continue
		}
		windows = append(windows, rows)
	}

	page.Defects = mergeByTime(windows, func(r models.DefectFeedRow) time.Time {
		return r.CreatedAt
	}, req.Page.Offset, req.Page.Limit)
	if page.Defects == nil {
		page.Defects = []models.DefectFeedRow{}
	}

	return page, nil
}

// GetSummary returns the cross-module rollup: per-module session counts,
// active and today-created totals, depot-wide defect counts and the
// submission trend over the last days.
func GetSummary(ctx context.Context, filter models.FeedFilter, days int) (*Summary, apperrors.Error) {
	summary := &Summary{}

	todayFilter := filter
	todayFilter.From = time.Now().UTC().Truncate(24 * time.Hour)
	todayFilter.To = time.Time{}

	for _, module := range inscommon.AllModules() {
		counts, err := db.DB(ctx).CountSessions(ctx, module, filter)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("module", string(module)).Msg("session counts degraded")
			summary.Degraded = append(summary.Degraded, module)
			continue
		}
		summary.Sessions = append(summary.Sessions, counts)
		summary.Active += counts.Draft + counts.Active

		today, err := db.DB(ctx).CountSessions(ctx, module, todayFilter)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("module", string(module)).Msg("today counts degraded")
			summary.Degraded = appendDegraded(summary.Degraded, module)
			continue
		}
		summary.Today += today.Total
	}

	for _, module := range inscommon.AnswerModules() {
		counts, err := db.DB(ctx).CountDefects(ctx, module, filter)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("module", string(module)).Msg("defect counts degraded")
			summary.Degraded = appendDegraded(summary.Degraded, module)
			continue
		}
		summary.Defects.Total += counts.Total
		summary.Defects.Resolved += counts.Resolved
		summary.Defects.Pending += counts.Pending
	}

	trend, degraded := submissionTrend(ctx, days)
	summary.Trend = trend
	for _, module := range degraded {
		summary.Degraded = appendDegraded(summary.Degraded, module)
	}

	return summary, nil
}

// submissionTrend merges the per-module daily submission counts into one
// series covering the last days, zero-filled so charts get every day.
func submissionTrend(ctx context.Context, days int) ([]models.DayCount, []inscommon.ModuleKind) {
	byDay := make(map[time.Time]int)
	var degraded []inscommon.ModuleKind

	for _, module := range inscommon.AllModules() {
		counts, err := db.DB(ctx).SubmissionTrend(ctx, module, days)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("module", string(module)).Msg("submission trend degraded")
			degraded = append(degraded, module)
			continue
		}
		for _, dc := range counts {
			byDay[dc.Day.UTC().Truncate(24*time.Hour)] += dc.Count
		}
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	trend := make([]models.DayCount, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		trend = append(trend, models.DayCount{Day: day, Count: byDay[day]})
	}

	return trend, degraded
}

func appendDegraded(list []inscommon.ModuleKind, module inscommon.ModuleKind) []inscommon.ModuleKind {
	for _, m := range list {
		if m == module {
			return list
		}
	}
	return append(list, module)
}
