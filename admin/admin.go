// Package admin is the signed-in, tenant-scoped HTTP surface: authentication,
// website pages and widget management.
package admin

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"widgetic/accounts"
	"widgetic/analytics"
	"widgetic/apperr"
	"widgetic/common"
	"widgetic/models"
	"widgetic/tenants"
	"widgetic/widgets"
)

const sessionUserKey = "user_id"

type AdminModule struct {
	accounts  *accounts.Service
	tenants   *tenants.Service
	widgets   *widgets.Service
	analytics *analytics.Service
}

func NewAdminModule(acc *accounts.Service, t *tenants.Service, w *widgets.Service, a *analytics.Service) *AdminModule {
	return &AdminModule{
		accounts:  acc,
		tenants:   t,
		widgets:   w,
		analytics: a,
	}
}

func (a *AdminModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/login", a.loginPage)
	router.POST("/login", a.loginPost)
	router.POST("/register", a.registerPost)
	router.GET("/logout", a.logout)

	router.GET("/dashboard", a.requireAuth, a.dashboard)

	websiteGroup := router.Group("/website/:websiteID")
	websiteGroup.Use(a.requireAuth, a.loadWebsite)
	{
		websiteGroup.GET("", a.websiteDetail)
		websiteGroup.GET("/pricing", a.pricing)
		websiteGroup.GET("/analytics", a.analyticsSummary)
		websiteGroup.GET("/analytics/table", a.analyticsTable)
		websiteGroup.POST("/settings", a.updateSettings)
		websiteGroup.POST("/upgrade", a.upgrade)
		websiteGroup.POST("/widget/new", a.createWidget)
	}

	widgetGroup := router.Group("/widget/:widgetID")
	widgetGroup.Use(a.requireAuth)
	{
		widgetGroup.GET("/edit", a.editWidget)
		widgetGroup.POST("/edit", a.updateWidget)
		widgetGroup.POST("/delete", a.deleteWidget)
		widgetGroup.POST("/toggle_status", a.toggleWidgetStatus)
	}
}

// RequireUser loads the signed-in user into the context under "user" or sends the
// browser to the login page.
func RequireUser(acc *accounts.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(sessionUserKey).(string)
		if !ok || userID == "" {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		user, err := acc.Get(c.Request.Context(), userID)
		if err != nil || user.Status != models.UserActive {
			session.Clear()
			_ = session.Save()
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Next()
	}
}

func (a *AdminModule) requireAuth(c *gin.Context) {
	RequireUser(a.accounts)(c)
}

// loadWebsite runs the membership gate before anything about the website is read.
func (a *AdminModule) loadWebsite(c *gin.Context) {
	website, err := a.tenants.Authorize(c.Request.Context(), currentUser(c), c.Param("websiteID"))
	if err != nil {
		a.fail(c, err, "/dashboard")
		c.Abort()
		return
	}

	c.Set("website", website)
	c.Next()
}

func currentUser(c *gin.Context) *models.User {
	if u, ok := c.Get("user"); ok {
		return u.(*models.User)
	}
	return nil
}

func currentWebsite(c *gin.Context) *models.Website {
	return c.MustGet("website").(*models.Website)
}

func addFlash(c *gin.Context, msg string) {
	session := sessions.Default(c)
	session.AddFlash(msg)
	_ = session.Save()
}

func flashes(c *gin.Context) []string {
	session := sessions.Default(c)
	raw := session.Flashes()
	if len(raw) == 0 {
		return []string{}
	}
	_ = session.Save()

	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// fail answers a form post that went wrong. Gate failures go back to the dashboard,
// a full quota goes to the pricing page, bad input goes back to where the form lives.
// Missing records and store failures answer with JSON.
func (a *AdminModule) fail(c *gin.Context, err error, back string) {
	switch {
	case errors.Is(err, apperr.ErrUnauthorized):
		addFlash(c, "Unauthorized")
		c.Redirect(http.StatusFound, "/dashboard")
	case errors.Is(err, apperr.ErrQuotaExceeded):
		addFlash(c, "Widget limit reached. Upgrade your plan to add more widgets.")
		c.Redirect(http.StatusFound, "/website/"+c.Param("websiteID")+"/pricing")
	case apperr.Status(err) == http.StatusBadRequest:
		addFlash(c, err.Error())
		c.Redirect(http.StatusFound, back)
	default:
		common.JSONError(c, err)
	}
}
