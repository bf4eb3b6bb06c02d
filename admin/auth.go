package admin

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"widgetic/apperr"
)

func (a *AdminModule) loginPage(c *gin.Context) {
	session := sessions.Default(c)
	if userID := session.Get(sessionUserKey); userID != nil {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}

	c.JSON(http.StatusOK, gin.H{"flashes": flashes(c)})
}

func (a *AdminModule) loginPost(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	user, err := a.accounts.Authenticate(c.Request.Context(), email, password)
	if err != nil {
		if apperr.Status(err) == http.StatusForbidden {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "invalid email or password",
				"email": email,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": apperr.Message(err)})
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		log.Error().Err(err).Msg("saving session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if user.IsSuperadmin() {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}

	websiteID, err := a.accounts.LandingWebsite(c.Request.Context(), user)
	if err != nil || websiteID == "" {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	c.Redirect(http.StatusFound, "/website/"+websiteID)
}

type registerForm struct {
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required,min=6"`
	Name     string `form:"name" binding:"required"`
}

func (a *AdminModule) registerPost(c *gin.Context) {
	var form registerForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "please provide a valid email, a password of at least 6 characters and a name",
			"email": c.PostForm("email"),
			"name":  c.PostForm("name"),
		})
		return
	}

	reg, err := a.accounts.Register(c.Request.Context(), form.Email, form.Password, form.Name)
	if err != nil {
		c.JSON(apperr.Status(err), gin.H{
			"error": apperr.Message(err),
			"email": form.Email,
			"name":  form.Name,
		})
		return
	}

	log.Info().Str("user", reg.User.ID).Str("website", reg.Website.ID).Msg("user registered")

	session := sessions.Default(c)
	session.Set(sessionUserKey, reg.User.ID)
	if err := session.Save(); err != nil {
		log.Error().Err(err).Msg("saving session")
	}

	c.Redirect(http.StatusFound, "/website/"+reg.Website.ID)
}

func (a *AdminModule) logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	c.Redirect(http.StatusFound, "/login")
}
