package models

import (
	"strings"

	"github.com/pkg/errors"

	"widgetic/apperr"
)

type GlobalRole string

const (
	RoleSuperadmin GlobalRole = "SUPERADMIN"
	RoleUser       GlobalRole = "USER"
)

type UserStatus string

const (
	UserActive   UserStatus = "ACTIVE"
	UserInactive UserStatus = "INACTIVE"
)

// MemberRole is the role a user holds inside one website.
type MemberRole string

const (
	MemberAdmin  MemberRole = "ADMIN"
	MemberEditor MemberRole = "EDITOR"
	MemberViewer MemberRole = "VIEWER"
)

func ParseMemberRole(s string) (MemberRole, error) {
	switch r := MemberRole(strings.ToUpper(strings.TrimSpace(s))); r {
	case MemberAdmin, MemberEditor, MemberViewer:
		return r, nil
	}
	return "", errors.Wrapf(apperr.ErrValidation, "unknown member role %q", s)
}

type WidgetType string

const (
	TypeAnnouncementBar WidgetType = "ANNOUNCEMENT_BAR"
	TypeNotification    WidgetType = "NOTIFICATION"
	TypePopupModal      WidgetType = "POPUP_MODAL"
	TypeSlideIn         WidgetType = "SLIDE_IN"
	TypeFloatingButton  WidgetType = "FLOATING_BUTTON"
	TypeBanner          WidgetType = "BANNER"
)

var WidgetTypes = []WidgetType{
	TypeAnnouncementBar, TypeNotification, TypePopupModal,
	TypeSlideIn, TypeFloatingButton, TypeBanner,
}

// ParseWidgetType accepts only the exact enum names. Anything else is ErrInvalidType.
func ParseWidgetType(s string) (WidgetType, error) {
	for _, t := range WidgetTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", errors.Wrapf(apperr.ErrInvalidType, "%q", s)
}

type WidgetStatus string

const (
	StatusDraft     WidgetStatus = "DRAFT"
	StatusActive    WidgetStatus = "ACTIVE"
	StatusPaused    WidgetStatus = "PAUSED"
	StatusScheduled WidgetStatus = "SCHEDULED"
	StatusExpired   WidgetStatus = "EXPIRED"
	StatusArchived  WidgetStatus = "ARCHIVED"
)

var WidgetStatuses = []WidgetStatus{
	StatusDraft, StatusActive, StatusPaused,
	StatusScheduled, StatusExpired, StatusArchived,
}

func ParseWidgetStatus(s string) (WidgetStatus, error) {
	for _, st := range WidgetStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", errors.Wrapf(apperr.ErrValidation, "unknown widget status %q", s)
}

type WidgetPosition string

const (
	PositionTop            WidgetPosition = "TOP"
	PositionBottom         WidgetPosition = "BOTTOM"
	PositionTopLeft        WidgetPosition = "TOP_LEFT"
	PositionTopRight       WidgetPosition = "TOP_RIGHT"
	PositionBottomLeft     WidgetPosition = "BOTTOM_LEFT"
	PositionBottomRight    WidgetPosition = "BOTTOM_RIGHT"
	PositionLeftCenter     WidgetPosition = "LEFT_CENTER"
	PositionRightCenter    WidgetPosition = "RIGHT_CENTER"
	PositionCenter         WidgetPosition = "CENTER"
	PositionCenterLeft     WidgetPosition = "CENTER_LEFT"
	PositionCenterRight    WidgetPosition = "CENTER_RIGHT"
	PositionFloatingTop    WidgetPosition = "FLOATING_TOP"
	PositionFloatingBottom WidgetPosition = "FLOATING_BOTTOM"
	PositionFloatingCenter WidgetPosition = "FLOATING_CENTER"
)

var WidgetPositions = []WidgetPosition{
	PositionTop, PositionBottom, PositionTopLeft, PositionTopRight,
	PositionBottomLeft, PositionBottomRight, PositionLeftCenter, PositionRightCenter,
	PositionCenter, PositionCenterLeft, PositionCenterRight,
	PositionFloatingTop, PositionFloatingBottom, PositionFloatingCenter,
}

func ParseWidgetPosition(s string) (WidgetPosition, error) {
	for _, p := range WidgetPositions {
		if string(p) == s {
			return p, nil
		}
	}
	return "", errors.Wrapf(apperr.ErrValidation, "unknown position %q", s)
}

// EventType is what the embed script reports back for a widget.
type EventType string

const (
	EventView    EventType = "view"
	EventClick   EventType = "click"
	EventDismiss EventType = "dismiss"
)

func ParseEventType(s string) (EventType, error) {
	switch e := EventType(s); e {
	case EventView, EventClick, EventDismiss:
		return e, nil
	}
	return "", errors.Wrapf(apperr.ErrInvalidEvent, "%q", s)
}

// Column is the counter column an event increments, on both widgets and daily_analytics.
func (e EventType) Column() string {
	switch e {
	case EventView:
		return "views"
	case EventClick:
		return "clicks"
	case EventDismiss:
		return "dismissals"
	}
	return ""
}
