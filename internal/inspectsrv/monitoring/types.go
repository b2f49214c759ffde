package monitoring

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/railcheck/railcheck/internal/common/apperrors"
	"github.com/railcheck/railcheck/internal/inspectsrv/config"
	"github.com/railcheck/railcheck/internal/inspectsrv/db/models"
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
)

// Page is a validated offset/limit pair. The limit is clamped to the
// configured maximum and defaulted when the caller omits it.
type Page struct {
	Offset int
	Limit  int
}

// FeedRequest narrows and pages the unified feeds. An empty Module reads
// every module.
type FeedRequest struct {
	Module inscommon.ModuleKind
	Filter models.FeedFilter
	Page   Page
}

// SessionFeedPage is one page of the unified session feed. Degraded lists
// the modules whose tables could not be read; their rows are simply absent.
type SessionFeedPage struct {
	Sessions []models.SessionFeedRow `json:"sessions"`
	Offset   int                     `json:"offset"`
	Limit    int                     `json:"limit"`
	Degraded []inscommon.ModuleKind  `json:"degraded,omitempty"`
}

// DefectFeedPage is one page of the unified defect feed.
type DefectFeedPage struct {
	Defects  []models.DefectFeedRow `json:"defects"`
	Offset   int                    `json:"offset"`
	Limit    int                    `json:"limit"`
	Degraded []inscommon.ModuleKind `json:"degraded,omitempty"`
}

// Summary is the cross-module monitoring rollup. Active counts the
// non-terminal sessions; Today counts the sessions created since UTC
// midnight.
type Summary struct {
	Sessions []models.ModuleSessionCounts `json:"sessions"`
	Active   int                          `json:"active"`
	Today    int                          `json:"today"`
	Defects  models.DefectCounts          `json:"defects"`
	Trend    []models.DayCount            `json:"trend"`
	Degraded []inscommon.ModuleKind       `json:"degraded,omitempty"`
}

// parseFeedRequest reads the paging and filter query parameters. Malformed
// values are rejected rather than ignored.
func parseFeedRequest(values url.Values) (*FeedRequest, apperrors.Error) {
	req := &FeedRequest{}

	page, apperr := parsePage(values)
	if apperr != nil {
		return nil, apperr
	}
	req.Page = page

	if v := values.Get("module"); v != "" {
		module, ok := inscommon.ParseModuleKind(v)
		if !ok {
			return nil, ErrInvalidRequest.Msg("unknown module")
		}
		req.Module = module
	}

	req.Filter.CoachNumber = values.Get("coach")
	req.Filter.InspectorID = inscommon.InspectorId(values.Get("inspector"))

	if v := values.Get("status"); v != "" {
		status := inscommon.SessionStatus(strings.ToUpper(v))
		if !inscommon.IsValidSessionStatus(status) {
			return nil, ErrInvalidRequest.Msg("unknown status")
		}
		req.Filter.Status = status
	}
	if v := values.Get("resolved"); v != "" {
		resolved, err := strconv.ParseBool(v)
		if err != nil {
			return nil, ErrInvalidRequest.Msg("invalid resolved flag")
		}
		req.Filter.Resolved = &resolved
	}

	if v := values.Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, ErrInvalidRequest.Msg("invalid from date")
		}
		req.Filter.From = t
	}
	if v := values.Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, ErrInvalidRequest.Msg("invalid to date")
		}
		// make the upper bound inclusive of the named day
		req.Filter.To = t.AddDate(0, 0, 1)
	}

	return req, nil
}

func parsePage(values url.Values) (Page, apperrors.Error) {
	mc := config.Config().Monitoring
	page := Page{Limit: mc.DefaultPageSize}

	if v := values.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return page, ErrInvalidRequest.Msg("invalid offset")
		}
		page.Offset = n
	}
	if v := values.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return page, ErrInvalidRequest.Msg("invalid limit")
		}
		page.Limit = n
	}
	if page.Limit > mc.MaxPageSize {
		page.Limit = mc.MaxPageSize
	}

	return page, nil
}

func parseTrendDays(values url.Values) (int, apperrors.Error) {
	days := 7
	if v := values.Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 366 {
			return 0, ErrInvalidRequest.Msg("invalid days")
		}
		days = n
	}
	return days, nil
}
