package models

// Default display settings, applied field by field when a website has not set them.
const (
	DefaultShowTime        = 5
	DefaultHideTime        = 8
	DefaultPosition        = PositionBottomRight
	DefaultBackgroundColor = "#000000"
	DefaultTextColor       = "#ffffff"
)

type Timing struct {
	ShowTime *int `json:"showTime,omitempty"`
	HideTime *int `json:"hideTime,omitempty"`
}

type SettingsStyle struct {
	BackgroundColor string `json:"backgroundColor,omitempty"`
	TextColor       string `json:"textColor,omitempty"`
}

type Behavior struct {
	ShowCloseButton *bool `json:"showCloseButton,omitempty"`
	ShowBranding    *bool `json:"showBranding,omitempty"`
}

// WebsiteSettings is the stored shape of websites.settings. Every field is optional.
type WebsiteSettings struct {
	Timing   *Timing        `json:"timing,omitempty"`
	Position WidgetPosition `json:"position,omitempty"`
	Style    *SettingsStyle `json:"style,omitempty"`
	Behavior *Behavior      `json:"behavior,omitempty"`
}

type ResolvedTiming struct {
	ShowTime int `json:"showTime"`
	HideTime int `json:"hideTime"`
}

type ResolvedStyle struct {
	BackgroundColor string `json:"backgroundColor"`
	TextColor       string `json:"textColor"`
}

type ResolvedBehavior struct {
	ShowCloseButton bool `json:"showCloseButton"`
	ShowBranding    bool `json:"showBranding"`
}

// ResolvedSettings is what the embed script receives: no field is ever missing.
type ResolvedSettings struct {
	Timing   ResolvedTiming   `json:"timing"`
	Position WidgetPosition   `json:"position"`
	Style    ResolvedStyle    `json:"style"`
	Behavior ResolvedBehavior `json:"behavior"`
}

// Resolve fills in defaults for whatever is absent, leaving set fields untouched.
func (s WebsiteSettings) Resolve() ResolvedSettings {
	r := ResolvedSettings{
		Timing:   ResolvedTiming{ShowTime: DefaultShowTime, HideTime: DefaultHideTime},
		Position: DefaultPosition,
		Style:    ResolvedStyle{BackgroundColor: DefaultBackgroundColor, TextColor: DefaultTextColor},
	}

	if s.Timing != nil {
		if s.Timing.ShowTime != nil {
			r.Timing.ShowTime = *s.Timing.ShowTime
		}
		if s.Timing.HideTime != nil {
			r.Timing.HideTime = *s.Timing.HideTime
		}
	}
	if s.Position != "" {
		r.Position = s.Position
	}
	if s.Style != nil {
		if s.Style.BackgroundColor != "" {
			r.Style.BackgroundColor = s.Style.BackgroundColor
		}
		if s.Style.TextColor != "" {
			r.Style.TextColor = s.Style.TextColor
		}
	}
	if s.Behavior != nil {
		if s.Behavior.ShowCloseButton != nil {
			r.Behavior.ShowCloseButton = *s.Behavior.ShowCloseButton
		}
		if s.Behavior.ShowBranding != nil {
			r.Behavior.ShowBranding = *s.Behavior.ShowBranding
		}
	}
	return r
}

// WidgetContent is the stored shape of widgets.content.
type WidgetContent struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ButtonText   string `json:"button_text"`
	ButtonURL    string `json:"button_url"`
	OpenBehavior string `json:"open_behavior"`
	LoopCount    int    `json:"loop_count"` // 0 loops forever
}

// WidgetStyle overrides the website style for one widget. Empty means "inherit".
type WidgetStyle struct {
	BackgroundColor string `json:"backgroundColor,omitempty"`
	TextColor       string `json:"textColor,omitempty"`
	AccentColor     string `json:"accentColor,omitempty"`
	BorderRadius    *int   `json:"borderRadius,omitempty"`
}
