// Package tenants stores websites and memberships and decides who may act on a website.
package tenants

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"widgetic/apperr"
	"widgetic/models"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CanAccess reports whether user may read or write the website's resources:
// superadmins always, everyone else only with a membership row.
func (s *Service) CanAccess(ctx context.Context, user *models.User, websiteID string) (bool, error) {
	if user == nil {
		return false, nil
	}
	if user.IsSuperadmin() {
		return true, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("user_id = ? AND website_id = ?", user.ID, websiteID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Authorize loads the website only after the gate passes, so a refused caller never
// receives tenant data.
func (s *Service) Authorize(ctx context.Context, user *models.User, websiteID string) (*models.Website, error) {
	ok, err := s.CanAccess(ctx, user, websiteID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrap(apperr.ErrUnauthorized, "website")
	}
	return s.Get(ctx, websiteID)
}

func (s *Service) Get(ctx context.Context, websiteID string) (*models.Website, error) {
	var website models.Website
	if err := s.db.WithContext(ctx).First(&website, "id = ?", websiteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(apperr.ErrNotFound, "website")
		}
		return nil, err
	}
	return &website, nil
}

func (s *Service) GetByPublicKey(ctx context.Context, publicKey string) (*models.Website, error) {
	var website models.Website
	if err := s.db.WithContext(ctx).Where("public_key = ?", publicKey).First(&website).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(apperr.ErrNotFound, "website")
		}
		return nil, err
	}
	return &website, nil
}

// CreateWebsite is reserved to superadmins. The creator becomes an ADMIN member.
func (s *Service) CreateWebsite(ctx context.Context, actor *models.User, name, domain string) (*models.Website, error) {
	if !actor.IsSuperadmin() {
		return nil, errors.Wrap(apperr.ErrUnauthorized, "only superadmins can create websites")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Wrap(apperr.ErrValidation, "name is required")
	}

	website := &models.Website{Name: name, Domain: strings.TrimSpace(domain)}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(website).Error; err != nil {
			return err
		}
		return tx.Create(&models.Membership{
			UserID:    actor.ID,
			WebsiteID: website.ID,
			Role:      models.MemberAdmin,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return website, nil
}

// ListForUser returns every website for a superadmin and the member websites otherwise.
func (s *Service) ListForUser(ctx context.Context, user *models.User) ([]models.Website, error) {
	var websites []models.Website
	q := s.db.WithContext(ctx).Order("websites.created_at ASC")
	if !user.IsSuperadmin() {
		q = q.Joins("JOIN website_members ON website_members.website_id = websites.id").
			Where("website_members.user_id = ?", user.ID)
	}
	err := q.Find(&websites).Error
	return websites, err
}

func (s *Service) AddMember(ctx context.Context, websiteID, userID string, role models.MemberRole) (*models.Membership, error) {
	if _, err := s.Get(ctx, websiteID); err != nil {
		return nil, err
	}
	member := &models.Membership{UserID: userID, WebsiteID: websiteID, Role: role}
	if err := s.db.WithContext(ctx).Create(member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.Wrap(apperr.ErrValidation, "user is already a member")
		}
		return nil, err
	}
	return member, nil
}

func (s *Service) Members(ctx context.Context, websiteID string) ([]models.Membership, error) {
	var members []models.Membership
	err := s.db.WithContext(ctx).Where("website_id = ?", websiteID).Order("created_at ASC").Find(&members).Error
	return members, err
}

// UpdateSettings replaces the website display settings after validating them.
func (s *Service) UpdateSettings(ctx context.Context, websiteID string, settings models.WebsiteSettings) (*models.Website, error) {
	if settings.Position != "" {
		if _, err := models.ParseWidgetPosition(string(settings.Position)); err != nil {
			return nil, err
		}
	}
	if t := settings.Timing; t != nil {
		if (t.ShowTime != nil && *t.ShowTime < 0) || (t.HideTime != nil && *t.HideTime < 0) {
			return nil, errors.Wrap(apperr.ErrValidation, "timings must not be negative")
		}
	}

	res := s.db.WithContext(ctx).Model(&models.Website{}).
		Where("id = ?", websiteID).
		Update("settings", datatypes.NewJSONType(settings))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errors.Wrap(apperr.ErrNotFound, "website")
	}
	return s.Get(ctx, websiteID)
}
