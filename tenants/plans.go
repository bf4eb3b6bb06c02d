package tenants

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"widgetic/apperr"
	"widgetic/models"
)

// Plan is a one-off purchase that raises a website's widget quota.
type Plan struct {
	Token     string `json:"token"`
	Price     string `json:"price"`
	Increment int    `json:"increment"`
}

var plans = []Plan{
	{Token: "cheap", Price: "399", Increment: 1},
	{Token: "medium", Price: "699", Increment: 2},
	{Token: "premium", Price: "999", Increment: 3},
}

func Plans() []Plan {
	out := make([]Plan, len(plans))
	copy(out, plans)
	return out
}

// ParsePlan accepts a plan token or the price the pricing form posts for it.
func ParsePlan(s string) (Plan, error) {
	for _, p := range plans {
		if s == p.Token || s == p.Price {
			return p, nil
		}
	}
	return Plan{}, errors.Wrapf(apperr.ErrInvalidPlan, "%q", s)
}

// Upgrade adds the plan's increment to the website quota. An unset quota counts as the default.
func (s *Service) Upgrade(ctx context.Context, websiteID, planToken string) (*models.Website, Plan, error) {
	plan, err := ParsePlan(planToken)
	if err != nil {
		return nil, Plan{}, err
	}

	res := s.db.WithContext(ctx).Model(&models.Website{}).
		Where("id = ?", websiteID).
		Update("max_widgets", gorm.Expr("COALESCE(max_widgets, ?) + ?", models.DefaultMaxWidgets, plan.Increment))
	if res.Error != nil {
		return nil, Plan{}, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, Plan{}, errors.Wrap(apperr.ErrNotFound, "website")
	}

	website, err := s.Get(ctx, websiteID)
	if err != nil {
		return nil, Plan{}, err
	}
	return website, plan, nil
}
