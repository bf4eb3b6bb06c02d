// Package api serves the unauthenticated endpoints the embed script talks to.
package api

import (
	"bytes"
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"widgetic/analytics"
	"widgetic/cache"
	"widgetic/common"
	"widgetic/models"
	"widgetic/tenants"
	"widgetic/widgets"
)

type APIModule struct {
	tenants   *tenants.Service
	widgets   *widgets.Service
	analytics *analytics.Service
	origins   []string
}

// markdown renderer for widget descriptions; raw HTML is dropped since the output
// lands on third-party pages
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.Strikethrough,
		extension.Linkify,
	),
)

func NewAPIModule(t *tenants.Service, w *widgets.Service, a *analytics.Service, origins []string) *APIModule {
	return &APIModule{tenants: t, widgets: w, analytics: a, origins: origins}
}

func (m *APIModule) RegisterRoutes(router *gin.Engine) {
	apiGroup := router.Group("/api")
	apiGroup.Use(cors.New(m.corsConfig()))
	{
		apiGroup.GET("/config/:publicKey", cache.ETag(), m.config)
		apiGroup.GET("/website/:publicKey/config", cache.ETag(), m.config)
		apiGroup.POST("/widget/:widgetID/track", m.track)
	}
}

func (m *APIModule) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "If-None-Match"},
		ExposeHeaders: []string{"ETag"},
	}
	for _, o := range m.origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = m.origins
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowAllOrigins = true
	}
	return cfg
}

type PublicContent struct {
	models.WidgetContent
	DescriptionHTML string `json:"description_html,omitempty"`
}

type PublicWidget struct {
	ID      string            `json:"id"`
	Type    models.WidgetType `json:"type"`
	Content PublicContent     `json:"content"`
	Views   int64             `json:"views"`
	Clicks  int64             `json:"clicks"`
}

type ConfigResponse struct {
	Settings models.ResolvedSettings `json:"settings"`
	Widgets  []PublicWidget          `json:"widgets"`
}

// Config builds the public projection of a website: resolved settings and its ACTIVE widgets.
func (m *APIModule) Config(ctx context.Context, publicKey string) (*ConfigResponse, error) {
	website, err := m.tenants.GetByPublicKey(ctx, publicKey)
	if err != nil {
		return nil, err
	}

	active, err := m.widgets.ListActive(ctx, website.ID)
	if err != nil {
		return nil, err
	}

	resp := &ConfigResponse{
		Settings: website.Settings.Data().Resolve(),
		Widgets:  make([]PublicWidget, 0, len(active)),
	}
	for _, w := range active {
		content := w.Content.Data()
		resp.Widgets = append(resp.Widgets, PublicWidget{
			ID:      w.ID,
			Type:    w.Type,
			Content: PublicContent{WidgetContent: content, DescriptionHTML: renderMarkdown(content.Description)},
			Views:   w.Views,
			Clicks:  w.Clicks,
		})
	}
	return resp, nil
}

func renderMarkdown(src string) string {
	if src == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		log.Warn().Err(err).Msg("rendering widget description")
		return ""
	}
	return buf.String()
}

func (m *APIModule) config(c *gin.Context) {
	resp, err := m.Config(c.Request.Context(), c.Param("publicKey"))
	if err != nil {
		common.JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type trackRequest struct {
	Type string `json:"type" binding:"required"`
}

func (m *APIModule) track(c *gin.Context) {
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := m.analytics.Track(c.Request.Context(), c.Param("widgetID"), req.Type); err != nil {
		common.JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
