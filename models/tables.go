package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultMaxWidgets = 3
	DayFormat         = "2006-01-02"
)

type User struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Email        string     `gorm:"uniqueIndex;size:120;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"` // json:"-" prevents password from being exposed in API
	Name         string     `gorm:"size:100" json:"name"`
	GlobalRole   GlobalRole `gorm:"size:20;not null;default:USER" json:"global_role"`
	Status       UserStatus `gorm:"size:20;not null;default:ACTIVE" json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func (u *User) IsSuperadmin() bool {
	return u != nil && u.GlobalRole == RoleSuperadmin
}

// Website is a tenant. PublicKey is written once at creation and never updated.
type Website struct {
	ID         string                              `gorm:"primaryKey;size:36" json:"id"`
	PublicKey  string                              `gorm:"<-:create;uniqueIndex;size:36;not null" json:"public_key"`
	Name       string                              `gorm:"size:100;not null" json:"name"`
	Domain     string                              `gorm:"size:255" json:"domain"`
	Settings   datatypes.JSONType[WebsiteSettings] `json:"settings"`
	MaxWidgets *int                                `json:"max_widgets"` // nil means DefaultMaxWidgets
	CreatedAt  time.Time                           `json:"created_at"`
	UpdatedAt  time.Time                           `json:"updated_at"`
}

func (w *Website) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.PublicKey == "" {
		w.PublicKey = uuid.NewString()
	}
	return nil
}

func (w *Website) Quota() int {
	if w.MaxWidgets == nil {
		return DefaultMaxWidgets
	}
	return *w.MaxWidgets
}

type Membership struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	UserID    string     `gorm:"size:36;not null;uniqueIndex:idx_member_user_website" json:"user_id"`
	WebsiteID string     `gorm:"size:36;not null;uniqueIndex:idx_member_user_website;index" json:"website_id"`
	Role      MemberRole `gorm:"size:20;not null;default:ADMIN" json:"role"`
	CreatedAt time.Time  `json:"created_at"`
}

func (Membership) TableName() string { return "website_members" }

func (m *Membership) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

type Widget struct {
	ID          string                            `gorm:"primaryKey;size:36" json:"id"`
	PublicKey   string                            `gorm:"<-:create;uniqueIndex;size:36;not null" json:"public_key"`
	WebsiteID   string                            `gorm:"size:36;not null;index" json:"website_id"`
	Name        string                            `gorm:"size:100;not null" json:"name"`
	Type        WidgetType                        `gorm:"size:32;not null" json:"type"`
	Status      WidgetStatus                      `gorm:"size:16;not null;index" json:"status"`
	Position    WidgetPosition                    `gorm:"size:32;not null" json:"position"`
	Content     datatypes.JSONType[WidgetContent] `gorm:"not null" json:"content"`
	Style       datatypes.JSONType[WidgetStyle]   `json:"style"`
	Views       int64                             `gorm:"not null;default:0" json:"views"`
	Clicks      int64                             `gorm:"not null;default:0" json:"clicks"`
	Dismissals  int64                             `gorm:"not null;default:0" json:"dismissals"`
	CreatedByID string                            `gorm:"size:36;not null;index" json:"created_by_id"`
	CreatedAt   time.Time                         `json:"created_at"`
	UpdatedAt   time.Time                         `json:"updated_at"`
}

func (w *Widget) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.PublicKey == "" {
		w.PublicKey = uuid.NewString()
	}
	return nil
}

// DailyAnalytics holds one widget's counters for one UTC calendar day.
type DailyAnalytics struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	WidgetID   string `gorm:"size:36;not null;uniqueIndex:idx_daily_widget_day" json:"widget_id"`
	Day        string `gorm:"size:10;not null;uniqueIndex:idx_daily_widget_day;index" json:"day"` // YYYY-MM-DD
	Views      int64  `gorm:"not null;default:0" json:"views"`
	Clicks     int64  `gorm:"not null;default:0" json:"clicks"`
	Dismissals int64  `gorm:"not null;default:0" json:"dismissals"`
}

func (DailyAnalytics) TableName() string { return "daily_analytics" }

// DayOf returns the UTC calendar day of t in DayFormat.
func DayOf(t time.Time) string {
	return t.UTC().Format(DayFormat)
}
