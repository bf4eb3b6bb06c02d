// Package accounts is the identity and credential store: registration, login and
// password hashing.
package accounts

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"widgetic/apperr"
	"widgetic/models"
)

const minPasswordLength = 6

var validate = validator.New()

// NormalizeEmail is the form an email is stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type Service struct {
	db   *gorm.DB
	cost int
}

func NewService(db *gorm.DB, bcryptCost int) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{db: db, cost: bcryptCost}
}

type Registration struct {
	User       *models.User
	Website    *models.Website
	Membership *models.Membership
}

// Register creates the user together with their first website and an ADMIN membership.
// All three rows are written in one transaction.
func (s *Service) Register(ctx context.Context, email, password, name string) (*Registration, error) {
	email = NormalizeEmail(email)
	name = strings.TrimSpace(name)

	// a bare mailbox only: display-name forms would bypass the unique index
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, errors.Wrap(apperr.ErrValidation, "invalid email")
	}
	if len(password) < minPasswordLength {
		return nil, errors.Wrapf(apperr.ErrValidation, "password must have at least %d characters", minPasswordLength)
	}
	if name == "" {
		return nil, errors.Wrap(apperr.ErrValidation, "name is required")
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	reg := &Registration{
		User: &models.User{
			Email:        email,
			Name:         name,
			PasswordHash: hash,
			GlobalRole:   models.RoleUser,
			Status:       models.UserActive,
		},
		Website: &models.Website{Name: name + "'s Website"},
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errors.Wrap(apperr.ErrValidation, "email already registered")
		}
		if err := tx.Create(reg.User).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errors.Wrap(apperr.ErrValidation, "email already registered")
			}
			return err
		}
		if err := tx.Create(reg.Website).Error; err != nil {
			return err
		}
		reg.Membership = &models.Membership{
			UserID:    reg.User.ID,
			WebsiteID: reg.Website.ID,
			Role:      models.MemberAdmin,
		}
		return tx.Create(reg.Membership).Error
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// Authenticate returns the user owning the credentials. Unknown email, wrong password
// and inactive accounts all produce the same ErrUnauthorized.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(apperr.ErrUnauthorized, "invalid email or password")
		}
		return nil, err
	}
	if !CheckPassword(password, user.PasswordHash) || user.Status != models.UserActive {
		return nil, errors.Wrap(apperr.ErrUnauthorized, "invalid email or password")
	}
	return &user, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(apperr.ErrNotFound, "user")
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(apperr.ErrNotFound, "user")
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error
	return users, err
}

// LandingWebsite returns the id of the first website the user is a member of,
// or "" when there is none.
func (s *Service) LandingWebsite(ctx context.Context, user *models.User) (string, error) {
	var member models.Membership
	err := s.db.WithContext(ctx).Where("user_id = ?", user.ID).Order("created_at ASC").First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return member.WebsiteID, nil
}

func (s *Service) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	return string(bytes), err
}

func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
