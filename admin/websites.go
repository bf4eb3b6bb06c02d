package admin

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"widgetic/apperr"
	"widgetic/common"
	"widgetic/models"
	"widgetic/tenants"
	"widgetic/widgets"
)

// dashboard lists every website for a superadmin. Other users are sent to their
// first website and only see the list when they have none.
func (a *AdminModule) dashboard(c *gin.Context) {
	user := currentUser(c)

	if !user.IsSuperadmin() {
		websiteID, err := a.accounts.LandingWebsite(c.Request.Context(), user)
		if err != nil {
			common.JSONError(c, err)
			return
		}
		if websiteID != "" {
			c.Redirect(http.StatusFound, "/website/"+websiteID)
			return
		}
	}

	websites, err := a.tenants.ListForUser(c.Request.Context(), user)
	if err != nil {
		common.JSONError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":     user,
		"websites": websites,
		"flashes":  flashes(c),
	})
}

func (a *AdminModule) websiteDetail(c *gin.Context) {
	website := currentWebsite(c)
	ctx := c.Request.Context()

	filter := widgets.Filter{
		Search: strings.TrimSpace(c.Query("search")),
		Type:   c.Query("type"),
		Status: c.Query("status"),
	}
	list, err := a.widgets.List(ctx, website.ID, filter)
	if err != nil {
		common.JSONError(c, err)
		return
	}

	summary, err := a.analytics.Summary(ctx, website.ID)
	if err != nil {
		common.JSONError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"website": website,
		"widgets": list,
		"filter":  filter,
		"summary": summary,
		"quota":   website.Quota(),
		"flashes": flashes(c),
	})
}

func (a *AdminModule) pricing(c *gin.Context) {
	website := currentWebsite(c)

	used, err := a.widgets.Count(c.Request.Context(), website.ID)
	if err != nil {
		common.JSONError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"website": website,
		"plans":   tenants.Plans(),
		"quota":   website.Quota(),
		"used":    used,
		"flashes": flashes(c),
	})
}

func (a *AdminModule) analyticsSummary(c *gin.Context) {
	website := currentWebsite(c)
	ctx := c.Request.Context()

	summary, err := a.analytics.Summary(ctx, website.ID)
	if err != nil {
		common.JSONError(c, err)
		return
	}
	list, err := a.widgets.List(ctx, website.ID, widgets.Filter{})
	if err != nil {
		common.JSONError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"website": website,
		"summary": summary,
		"widgets": list,
	})
}

func (a *AdminModule) analyticsTable(c *gin.Context) {
	website := currentWebsite(c)

	table, err := a.analytics.Table(c.Request.Context(), website.ID)
	if err != nil {
		common.JSONError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"website": website,
		"days":    table,
	})
}

func (a *AdminModule) updateSettings(c *gin.Context) {
	website := currentWebsite(c)
	back := "/website/" + website.ID

	settings, err := settingsFromForm(c)
	if err != nil {
		a.fail(c, err, back)
		return
	}

	if _, err := a.tenants.UpdateSettings(c.Request.Context(), website.ID, settings); err != nil {
		a.fail(c, err, back)
		return
	}

	addFlash(c, "Settings saved")
	c.Redirect(http.StatusFound, back)
}

func settingsFromForm(c *gin.Context) (models.WebsiteSettings, error) {
	var s models.WebsiteSettings

	showTime, err := optionalInt(c.PostForm("show_time"))
	if err != nil {
		return s, errors.Wrap(apperr.ErrValidation, "show time must be a number")
	}
	hideTime, err := optionalInt(c.PostForm("hide_time"))
	if err != nil {
		return s, errors.Wrap(apperr.ErrValidation, "hide time must be a number")
	}
	if showTime != nil || hideTime != nil {
		s.Timing = &models.Timing{ShowTime: showTime, HideTime: hideTime}
	}

	s.Position = models.WidgetPosition(c.PostForm("position"))

	bg, fg := strings.TrimSpace(c.PostForm("background_color")), strings.TrimSpace(c.PostForm("text_color"))
	if bg != "" || fg != "" {
		s.Style = &models.SettingsStyle{BackgroundColor: bg, TextColor: fg}
	}

	// unchecked boxes are not posted at all
	closeButton := checkbox(c.PostForm("show_close_button"))
	branding := checkbox(c.PostForm("show_branding"))
	s.Behavior = &models.Behavior{ShowCloseButton: &closeButton, ShowBranding: &branding}

	return s, nil
}

func optionalInt(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func checkbox(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func (a *AdminModule) upgrade(c *gin.Context) {
	website := currentWebsite(c)

	updated, plan, err := a.tenants.Upgrade(c.Request.Context(), website.ID, c.PostForm("plan"))
	if err != nil {
		a.fail(c, err, "/website/"+website.ID+"/pricing")
		return
	}

	log.Info().
		Str("website", website.ID).
		Str("plan", plan.Token).
		Int("quota", updated.Quota()).
		Msg("website upgraded")

	addFlash(c, "Plan upgraded. You can now have "+strconv.Itoa(updated.Quota())+" widgets.")
	c.Redirect(http.StatusFound, "/website/"+website.ID)
}
