// Package analytics records widget events and rolls them up per day.
package analytics

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"widgetic/apperr"
	"widgetic/metrics"
	"widgetic/models"
)

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now, which decides the UTC day an event is counted on.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(db *gorm.DB, opts ...Option) *Service {
	s := &Service{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Track counts one event on the widget's lifetime counter and on today's daily row.
// Both writes share a transaction. The event type is checked before anything is written.
func (s *Service) Track(ctx context.Context, widgetID, eventType string) error {
	event, err := models.ParseEventType(eventType)
	if err != nil {
		return err
	}
	day := models.DayOf(s.now())

	err = s.track(ctx, widgetID, event, day)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Another request created today's row between our statements; the retry takes the update path.
		log.Debug().Str("widget_id", widgetID).Str("day", day).Msg("daily row race, retrying once")
		err = s.track(ctx, widgetID, event, day)
	}
	if err != nil {
		return err
	}

	metrics.WidgetEvents.WithLabelValues(string(event)).Inc()
	return nil
}

func (s *Service) track(ctx context.Context, widgetID string, event models.EventType, day string) error {
	col := event.Column()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Widget{}).
			Where("id = ?", widgetID).
			UpdateColumn(col, gorm.Expr(col+" + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.Wrap(apperr.ErrNotFound, "widget")
		}

		row := models.DailyAnalytics{WidgetID: widgetID, Day: day}
		switch event {
		case models.EventView:
			row.Views = 1
		case models.EventClick:
			row.Clicks = 1
		case models.EventDismiss:
			row.Dismissals = 1
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "widget_id"}, {Name: "day"}},
			DoUpdates: clause.Assignments(map[string]interface{}{col: gorm.Expr(col+" + ?", 1)}),
		}).Create(&row).Error
	})
}

// Row is one (day, widget) cell of the rollup table.
type Row struct {
	Day        string `json:"day"`
	WidgetID   string `json:"widget_id"`
	WidgetName string `json:"widget_name"`
	Views      int64  `json:"views"`
	Clicks     int64  `json:"clicks"`
	Dismissals int64  `json:"dismissals"`
}

type DayGroup struct {
	Day  string `json:"day"`
	Rows []Row  `json:"rows"`
}

// Table sums daily rows per (day, widget) for every widget of the website.
// Days come newest first, widgets within a day by id. Days without activity are absent.
func (s *Service) Table(ctx context.Context, websiteID string) ([]DayGroup, error) {
	var rows []Row
	err := s.db.WithContext(ctx).Table("daily_analytics").
		Select("daily_analytics.day AS day, daily_analytics.widget_id AS widget_id, widgets.name AS widget_name, " +
			"SUM(daily_analytics.views) AS views, SUM(daily_analytics.clicks) AS clicks, SUM(daily_analytics.dismissals) AS dismissals").
		Joins("JOIN widgets ON widgets.id = daily_analytics.widget_id").
		Where("widgets.website_id = ?", websiteID).
		Group("daily_analytics.day, daily_analytics.widget_id, widgets.name").
		Order("daily_analytics.day DESC, daily_analytics.widget_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	groups := []DayGroup{}
	for _, r := range rows {
		if n := len(groups); n == 0 || groups[n-1].Day != r.Day {
			groups = append(groups, DayGroup{Day: r.Day})
		}
		groups[len(groups)-1].Rows = append(groups[len(groups)-1].Rows, r)
	}
	return groups, nil
}

// Summary is the lifetime picture of a website across its widgets.
type Summary struct {
	Widgets         int64   `json:"widgets"`
	TotalViews      int64   `json:"total_views"`
	TotalClicks     int64   `json:"total_clicks"`
	TotalDismissals int64   `json:"total_dismissals"`
	CTR             float64 `json:"ctr"`
}

func (s *Service) Summary(ctx context.Context, websiteID string) (Summary, error) {
	var sum Summary
	err := s.db.WithContext(ctx).Model(&models.Widget{}).
		Select("COUNT(*) AS widgets, COALESCE(SUM(views), 0) AS total_views, "+
			"COALESCE(SUM(clicks), 0) AS total_clicks, COALESCE(SUM(dismissals), 0) AS total_dismissals").
		Where("website_id = ?", websiteID).
		Scan(&sum).Error
	if err != nil {
		return Summary{}, err
	}
	if sum.TotalViews > 0 {
		sum.CTR = float64(sum.TotalClicks) / float64(sum.TotalViews) * 100
	}
	return sum, nil
}

// DailyRows returns the raw daily rows of one widget, oldest first.
func (s *Service) DailyRows(ctx context.Context, widgetID string) ([]models.DailyAnalytics, error) {
	var rows []models.DailyAnalytics
	err := s.db.WithContext(ctx).Where("widget_id = ?", widgetID).Order("day ASC").Find(&rows).Error
	return rows, err
}
