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
	"widgetic/widgets"
)

func (a *AdminModule) createWidget(c *gin.Context) {
	website := currentWebsite(c)
	back := "/website/" + website.ID

	in, err := inputFromForm(c, nil)
	if err != nil {
		a.fail(c, err, back)
		return
	}

	widget, err := a.widgets.Create(c.Request.Context(), currentUser(c), website, in)
	if err != nil {
		a.fail(c, err, back)
		return
	}

	log.Info().Str("website", website.ID).Str("widget", widget.ID).Msg("widget created")
	addFlash(c, "Widget created")
	c.Redirect(http.StatusFound, back)
}

func (a *AdminModule) editWidget(c *gin.Context) {
	widget, err := a.widgets.Get(c.Request.Context(), c.Param("widgetID"))
	if err != nil {
		common.JSONError(c, err)
		return
	}
	if !widgets.CanModify(currentUser(c), widget) {
		a.fail(c, errors.Wrap(apperr.ErrUnauthorized, "widget"), "/dashboard")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"widget":   widget,
		"types":    models.WidgetTypes,
		"statuses": models.WidgetStatuses,
		"flashes":  flashes(c),
	})
}

func (a *AdminModule) updateWidget(c *gin.Context) {
	ctx := c.Request.Context()
	widgetID := c.Param("widgetID")

	current, err := a.widgets.Get(ctx, widgetID)
	if err != nil {
		common.JSONError(c, err)
		return
	}
	if !widgets.CanModify(currentUser(c), current) {
		a.fail(c, errors.Wrap(apperr.ErrUnauthorized, "widget"), "/dashboard")
		return
	}
	back := "/widget/" + current.ID + "/edit"

	in, err := inputFromForm(c, current)
	if err != nil {
		a.fail(c, err, back)
		return
	}

	widget, err := a.widgets.Update(ctx, currentUser(c), widgetID, in)
	if err != nil {
		a.fail(c, err, back)
		return
	}

	addFlash(c, "Widget updated")
	c.Redirect(http.StatusFound, "/website/"+widget.WebsiteID)
}

func (a *AdminModule) deleteWidget(c *gin.Context) {
	widget, err := a.widgets.Delete(c.Request.Context(), currentUser(c), c.Param("widgetID"))
	if err != nil {
		a.fail(c, err, "/dashboard")
		return
	}

	log.Info().Str("website", widget.WebsiteID).Str("widget", widget.ID).Msg("widget deleted")
	addFlash(c, "Widget deleted")
	c.Redirect(http.StatusFound, "/website/"+widget.WebsiteID)
}

func (a *AdminModule) toggleWidgetStatus(c *gin.Context) {
	widget, err := a.widgets.ToggleStatus(c.Request.Context(), currentUser(c), c.Param("widgetID"))
	if err != nil {
		a.fail(c, err, "/dashboard")
		return
	}

	addFlash(c, "Widget is now "+string(widget.Status))
	c.Redirect(http.StatusFound, "/website/"+widget.WebsiteID)
}

// inputFromForm reads a widget form. With a current widget, fields absent from the
// post keep their stored values so an edit may send only what changed.
func inputFromForm(c *gin.Context, current *models.Widget) (widgets.Input, error) {
	var in widgets.Input
	var style models.WidgetStyle
	if current != nil {
		in.Name = current.Name
		in.Content = current.Content.Data()
		style = current.Style.Data()
	}

	overlay(c, "name", &in.Name)
	overlay(c, "type", &in.Type)
	overlay(c, "status", &in.Status)
	overlay(c, "title", &in.Content.Title)
	overlay(c, "description", &in.Content.Description)
	overlay(c, "button_text", &in.Content.ButtonText)
	overlay(c, "button_url", &in.Content.ButtonURL)
	overlay(c, "open_behavior", &in.Content.OpenBehavior)

	if v, ok := c.GetPostForm("loop_count"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return in, errors.Wrap(apperr.ErrValidation, "loop count must be a number")
		}
		in.Content.LoopCount = n
	}

	overlay(c, "background_color", &style.BackgroundColor)
	overlay(c, "text_color", &style.TextColor)
	overlay(c, "accent_color", &style.AccentColor)
	if v, ok := c.GetPostForm("border_radius"); ok {
		r, err := optionalInt(v)
		if err != nil {
			return in, errors.Wrap(apperr.ErrValidation, "border radius must be a number")
		}
		style.BorderRadius = r
	}
	if style != (models.WidgetStyle{}) {
		in.Style = &style
	}

	return in, nil
}

func overlay(c *gin.Context, key string, dst *string) {
	if v, ok := c.GetPostForm(key); ok {
		*dst = strings.TrimSpace(v)
	}
}
