package backoffice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"widgetic/accounts"
	"widgetic/common"
	"widgetic/database"
	"widgetic/models"
	"widgetic/tenants"
	"widgetic/widgets"
)

const testPassword = "secret123"

type testEnv struct {
	db       *gorm.DB
	router   *gin.Engine
	accounts *accounts.Service
	tenants  *tenants.Service
}

func setupTestRouter(t *testing.T) *testEnv {
	db, err := common.Open("sqlite", filepath.Join(t.TempDir(), "backoffice.db"))
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))
	require.NoError(t, database.SeedSuperadmin(db, "root@example.com", testPassword, bcrypt.MinCost))

	env := &testEnv{
		db:       db,
		accounts: accounts.NewService(db, bcrypt.MinCost),
		tenants:  tenants.NewService(db),
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(sessions.Sessions("test-session", cookie.NewStore([]byte("secret"))))
	// stands in for the admin module's login route
	router.POST("/login", func(c *gin.Context) {
		user, err := env.accounts.Authenticate(c.Request.Context(), c.PostForm("email"), c.PostForm("password"))
		if err != nil {
			c.Status(http.StatusUnauthorized)
			return
		}
		session := sessions.Default(c)
		session.Set("user_id", user.ID)
		_ = session.Save()
		c.Status(http.StatusNoContent)
	})
	NewBackofficeModule(env.accounts, env.tenants, widgets.NewService(db)).RegisterRoutes(router)
	env.router = router
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req, err := http.NewRequest(method, path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T, email string) []*http.Cookie {
	w := e.do(t, "POST", "/login", url.Values{"email": {email}, "password": {testPassword}}, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	return w.Result().Cookies()
}

func (e *testEnv) register(t *testing.T, email string) *accounts.Registration {
	reg, err := e.accounts.Register(context.Background(), email, testPassword, "Tester")
	require.NoError(t, err)
	return reg
}

func TestBackoffice_RequiresLogin(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(t, "GET", "/backoffice/websites", nil, nil)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestBackoffice_ForbiddenForRegularUsers(t *testing.T) {
	env := setupTestRouter(t)
	env.register(t, "user@example.com")
	cookies := env.login(t, "user@example.com")

	for _, tc := range []struct{ method, path string }{
		{"GET", "/backoffice/websites"},
		{"GET", "/backoffice/users"},
		{"POST", "/website/new"},
		{"POST", "/backoffice/website/any/members"},
	} {
		w := env.do(t, tc.method, tc.path, url.Values{"name": {"Shop"}}, cookies)
		assert.Equal(t, http.StatusForbidden, w.Code, tc.path)
	}

	var count int64
	require.NoError(t, env.db.Model(&models.Website{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestBackoffice_ListsEverything(t *testing.T) {
	env := setupTestRouter(t)
	env.register(t, "a@example.com")
	env.register(t, "b@example.com")
	cookies := env.login(t, "root@example.com")

	w := env.do(t, "GET", "/backoffice/websites", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	var websites struct {
		Websites []websiteRow `json:"websites"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &websites))
	require.Len(t, websites.Websites, 2)
	assert.Equal(t, models.DefaultMaxWidgets, websites.Websites[0].Quota)

	w = env.do(t, "GET", "/backoffice/users", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	var users struct {
		Users []models.User `json:"users"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	assert.Len(t, users.Users, 3)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestCreateWebsite(t *testing.T) {
	env := setupTestRouter(t)
	cookies := env.login(t, "root@example.com")

	w := env.do(t, "POST", "/website/new", url.Values{"name": {"Shop"}, "domain": {"shop.example"}}, cookies)
	require.Equal(t, http.StatusFound, w.Code)

	websiteID := strings.TrimPrefix(w.Header().Get("Location"), "/website/")
	website, err := env.tenants.Get(context.Background(), websiteID)
	require.NoError(t, err)
	assert.Equal(t, "Shop", website.Name)
	assert.Equal(t, "shop.example", website.Domain)

	w = env.do(t, "POST", "/website/new", url.Values{"name": {"  "}}, cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddMember(t *testing.T) {
	env := setupTestRouter(t)
	owner := env.register(t, "owner@example.com")
	guest := env.register(t, "guest@example.com")
	cookies := env.login(t, "root@example.com")
	path := "/backoffice/website/" + owner.Website.ID + "/members"

	w := env.do(t, "POST", path, url.Values{"email": {"guest@example.com"}, "role": {"viewer"}}, cookies)
	require.Equal(t, http.StatusCreated, w.Code)

	ok, err := env.tenants.CanAccess(context.Background(), guest.User, owner.Website.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	w = env.do(t, "POST", path, url.Values{"email": {"guest@example.com"}}, cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, "POST", path, url.Values{"email": {"ghost@example.com"}}, cookies)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, "POST", "/backoffice/website/missing/members", url.Values{"email": {"guest@example.com"}}, cookies)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
