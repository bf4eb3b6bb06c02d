// Package widgets is the per-tenant widget store.
package widgets

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"widgetic/apperr"
	"widgetic/metrics"
	"widgetic/models"
)

const DefaultOpenBehavior = "AUTO"

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Input carries the form fields of a create or edit. Empty Type and Status mean
// "use the default" on create and "keep the current value" on edit.
type Input struct {
	Name    string
	Type    string
	Status  string
	Content models.WidgetContent
	Style   *models.WidgetStyle
}

type Filter struct {
	Search string
	Type   string
	Status string
}

// CanModify is the widget-level rule for edit, delete and toggle: the creator or a superadmin.
// It deliberately ignores website membership.
func CanModify(user *models.User, widget *models.Widget) bool {
	if user == nil || widget == nil {
		return false
	}
	return user.ID == widget.CreatedByID || user.IsSuperadmin()
}

// validated is an Input after every field has been checked.
type validated struct {
	name    string
	typ     models.WidgetType
	status  models.WidgetStatus
	content models.WidgetContent
	style   *models.WidgetStyle
}

func validate(in Input, current *models.Widget) (validated, error) {
	var v validated

	v.name = strings.TrimSpace(in.Name)
	if v.name == "" {
		return v, errors.Wrap(apperr.ErrValidation, "name is required")
	}

	switch {
	case in.Type != "":
		t, err := models.ParseWidgetType(in.Type)
		if err != nil {
			return v, err
		}
		v.typ = t
	case current != nil:
		v.typ = current.Type
	default:
		v.typ = models.TypeNotification
	}

	switch {
	case in.Status != "":
		st, err := models.ParseWidgetStatus(in.Status)
		if err != nil {
			return v, err
		}
		v.status = st
	case current != nil:
		v.status = current.Status
	default:
		v.status = models.StatusActive
	}

	v.content = in.Content
	if v.content.LoopCount < 0 {
		return v, errors.Wrap(apperr.ErrValidation, "loop count must not be negative")
	}
	if v.content.OpenBehavior == "" {
		if current != nil && current.Content.Data().OpenBehavior != "" {
			v.content.OpenBehavior = current.Content.Data().OpenBehavior
		} else {
			v.content.OpenBehavior = DefaultOpenBehavior
		}
	}
	v.style = in.Style
	return v, nil
}

// Create adds a widget to the website unless the website already holds its quota.
// Counting and inserting happen in one transaction.
func (s *Service) Create(ctx context.Context, actor *models.User, website *models.Website, in Input) (*models.Widget, error) {
	v, err := validate(in, nil)
	if err != nil {
		return nil, err
	}

	widget := &models.Widget{
		WebsiteID:   website.ID,
		Name:        v.name,
		Type:        v.typ,
		Status:      v.status,
		Position:    models.PositionBottomRight, // on-page position comes from website settings
		Content:     datatypes.NewJSONType(v.content),
		CreatedByID: actor.ID,
	}
	if v.style != nil {
		widget.Style = datatypes.NewJSONType(*v.style)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Website
		if err := tx.Select("id", "max_widgets").First(&current, "id = ?", website.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.Wrap(apperr.ErrNotFound, "website")
			}
			return err
		}

		var count int64
		if err := tx.Model(&models.Widget{}).Where("website_id = ?", website.ID).Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(current.Quota()) {
			return errors.Wrapf(apperr.ErrQuotaExceeded, "limit reached (%d)", current.Quota())
		}
		return tx.Create(widget).Error
	})
	if err != nil {
		if errors.Is(err, apperr.ErrQuotaExceeded) {
			metrics.QuotaRejections.Inc()
		}
		return nil, err
	}

	metrics.WidgetsCreated.Inc()
	return widget, nil
}

// Update validates every field before writing any of them, then applies the edit in a
// single statement.
func (s *Service) Update(ctx context.Context, actor *models.User, widgetID string, in Input) (*models.Widget, error) {
	widget, err := s.Get(ctx, widgetID)
	if err != nil {
		return nil, err
	}
	if !CanModify(actor, widget) {
		return nil, errors.Wrap(apperr.ErrUnauthorized, "widget")
	}

	v, err := validate(in, widget)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":    v.name,
		"type":    v.typ,
		"status":  v.status,
		"content": datatypes.NewJSONType(v.content),
	}
	if v.style != nil {
		updates["style"] = datatypes.NewJSONType(*v.style)
	}

	if err := s.db.WithContext(ctx).Model(widget).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, widgetID)
}

// Delete removes the widget together with its daily analytics rows.
func (s *Service) Delete(ctx context.Context, actor *models.User, widgetID string) (*models.Widget, error) {
	widget, err := s.Get(ctx, widgetID)
	if err != nil {
		return nil, err
	}
	if !CanModify(actor, widget) {
		return nil, errors.Wrap(apperr.ErrUnauthorized, "widget")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("widget_id = ?", widget.ID).Delete(&models.DailyAnalytics{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Widget{}, "id = ?", widget.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return widget, nil
}

// ToggleStatus pauses an active widget and activates anything else.
func (s *Service) ToggleStatus(ctx context.Context, actor *models.User, widgetID string) (*models.Widget, error) {
	widget, err := s.Get(ctx, widgetID)
	if err != nil {
		return nil, err
	}
	if !CanModify(actor, widget) {
		return nil, errors.Wrap(apperr.ErrUnauthorized, "widget")
	}

	next := models.StatusActive
	if widget.Status == models.StatusActive {
		next = models.StatusPaused
	}
	if err := s.db.WithContext(ctx).Model(widget).Update("status", next).Error; err != nil {
		return nil, err
	}
	widget.Status = next
	return widget, nil
}

func (s *Service) Get(ctx context.Context, widgetID string) (*models.Widget, error) {
	var widget models.Widget
	if err := s.db.WithContext(ctx).First(&widget, "id = ?", widgetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(apperr.ErrNotFound, "widget")
		}
		return nil, err
	}
	return &widget, nil
}

// List returns the website's widgets, newest first, narrowed by the filter.
func (s *Service) List(ctx context.Context, websiteID string, f Filter) ([]models.Widget, error) {
	q := s.db.WithContext(ctx).Where("website_id = ?", websiteID)

	if f.Search != "" {
		q = q.Where("name LIKE ?", "%"+f.Search+"%")
	}
	if f.Type != "" {
		t, err := models.ParseWidgetType(f.Type)
		if err != nil {
			return nil, err
		}
		q = q.Where("type = ?", t)
	}
	if f.Status != "" {
		st, err := models.ParseWidgetStatus(f.Status)
		if err != nil {
			return nil, err
		}
		q = q.Where("status = ?", st)
	}

	var widgets []models.Widget
	err := q.Order("created_at DESC").Find(&widgets).Error
	return widgets, err
}

// ListActive returns the widgets a public embed may show.
func (s *Service) ListActive(ctx context.Context, websiteID string) ([]models.Widget, error) {
	var widgets []models.Widget
	err := s.db.WithContext(ctx).
		Where("website_id = ? AND status = ?", websiteID, models.StatusActive).
		Order("created_at ASC").
		Find(&widgets).Error
	return widgets, err
}

func (s *Service) Count(ctx context.Context, websiteID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Widget{}).Where("website_id = ?", websiteID).Count(&count).Error
	return count, err
}
