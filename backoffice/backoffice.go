// Package backoffice is the superadmin-only surface: every website and user on the
// platform, website creation and membership management.
package backoffice

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"widgetic/accounts"
	"widgetic/admin"
	"widgetic/apperr"
	"widgetic/common"
	"widgetic/models"
	"widgetic/tenants"
	"widgetic/widgets"
)

type BackofficeModule struct {
	accounts *accounts.Service
	tenants  *tenants.Service
	widgets  *widgets.Service
}

func NewBackofficeModule(acc *accounts.Service, t *tenants.Service, w *widgets.Service) *BackofficeModule {
	return &BackofficeModule{accounts: acc, tenants: t, widgets: w}
}

func (b *BackofficeModule) RegisterRoutes(router *gin.Engine) {
	requireUser := admin.RequireUser(b.accounts)

	router.POST("/website/new", requireUser, b.requireSuperadmin, b.createWebsite)

	backofficeGroup := router.Group("/backoffice")
	backofficeGroup.Use(requireUser, b.requireSuperadmin)
	{
		backofficeGroup.GET("/websites", b.websites)
		backofficeGroup.GET("/users", b.users)
		backofficeGroup.POST("/website/:websiteID/members", b.addMember)
	}
}

func (b *BackofficeModule) requireSuperadmin(c *gin.Context) {
	user, _ := c.Get("user")
	if u, ok := user.(*models.User); !ok || !u.IsSuperadmin() {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.Next()
}

func actor(c *gin.Context) *models.User {
	return c.MustGet("user").(*models.User)
}

type websiteRow struct {
	models.Website
	Quota   int   `json:"quota"`
	Widgets int64 `json:"widgets"`
}

func (b *BackofficeModule) websites(c *gin.Context) {
	ctx := c.Request.Context()

	websites, err := b.tenants.ListForUser(ctx, actor(c))
	if err != nil {
		common.JSONError(c, err)
		return
	}

	rows := make([]websiteRow, 0, len(websites))
	for _, w := range websites {
		count, err := b.widgets.Count(ctx, w.ID)
		if err != nil {
			common.JSONError(c, err)
			return
		}
		rows = append(rows, websiteRow{Website: w, Quota: w.Quota(), Widgets: count})
	}

	c.JSON(http.StatusOK, gin.H{"websites": rows})
}

func (b *BackofficeModule) users(c *gin.Context) {
	users, err := b.accounts.List(c.Request.Context())
	if err != nil {
		common.JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (b *BackofficeModule) createWebsite(c *gin.Context) {
	name := strings.TrimSpace(c.PostForm("name"))
	domain := strings.TrimSpace(c.PostForm("domain"))
	if name == "" {
		common.JSONError(c, errors.Wrap(apperr.ErrValidation, "name is required"))
		return
	}

	website, err := b.tenants.CreateWebsite(c.Request.Context(), actor(c), name, domain)
	if err != nil {
		common.JSONError(c, err)
		return
	}

	log.Info().Str("website", website.ID).Str("by", actor(c).ID).Msg("website created")
	c.Redirect(http.StatusFound, "/website/"+website.ID)
}

func (b *BackofficeModule) addMember(c *gin.Context) {
	ctx := c.Request.Context()

	website, err := b.tenants.Get(ctx, c.Param("websiteID"))
	if err != nil {
		common.JSONError(c, err)
		return
	}

	user, err := b.accounts.FindByEmail(ctx, c.PostForm("email"))
	if err != nil {
		common.JSONError(c, err)
		return
	}

	role := models.MemberEditor
	if r := c.PostForm("role"); r != "" {
		if role, err = models.ParseMemberRole(r); err != nil {
			common.JSONError(c, err)
			return
		}
	}

	member, err := b.tenants.AddMember(ctx, website.ID, user.ID, role)
	if err != nil {
		common.JSONError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"member": member})
}
