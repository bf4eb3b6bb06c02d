package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"widgetic/analytics"
	"widgetic/common"
	"widgetic/database"
	"widgetic/models"
	"widgetic/tenants"
	"widgetic/widgets"
)

type fixture struct {
	db      *gorm.DB
	router  *gin.Engine
	user    *models.User
	website *models.Website
	widgets *widgets.Service
}

func setupTestRouter(t *testing.T, origins ...string) *fixture {
	db, err := common.Open("sqlite", filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))

	user := &models.User{Email: "owner@example.com", PasswordHash: "hash", GlobalRole: models.RoleUser, Status: models.UserActive}
	require.NoError(t, db.Create(user).Error)
	website := &models.Website{Name: "Shop"}
	require.NoError(t, db.Create(website).Error)

	widgetSvc := widgets.NewService(db)
	module := NewAPIModule(tenants.NewService(db), widgetSvc, analytics.NewService(db), origins)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	module.RegisterRoutes(router)

	return &fixture{db: db, router: router, user: user, website: website, widgets: widgetSvc}
}

func (f *fixture) createWidget(t *testing.T, name, status string) *models.Widget {
	w, err := f.widgets.Create(context.Background(), f.user, f.website, widgets.Input{
		Name:   name,
		Type:   string(models.TypeBanner),
		Status: status,
		Content: models.WidgetContent{
			Title:       name,
			Description: "**Half** price",
		},
	})
	require.NoError(t, err)
	return w
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestConfig_ActiveWidgetsAndDefaults(t *testing.T) {
	f := setupTestRouter(t)
	active := f.createWidget(t, "Sale", string(models.StatusActive))
	f.createWidget(t, "Draft", string(models.StatusDraft))
	f.createWidget(t, "Paused", string(models.StatusPaused))

	req, _ := http.NewRequest("GET", "/api/config/"+f.website.PublicKey, nil)
	w := f.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ConfigResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, 5, resp.Settings.Timing.ShowTime)
	assert.Equal(t, 8, resp.Settings.Timing.HideTime)
	assert.Equal(t, models.PositionBottomRight, resp.Settings.Position)
	assert.Equal(t, "#000000", resp.Settings.Style.BackgroundColor)
	assert.Equal(t, "#ffffff", resp.Settings.Style.TextColor)
	assert.False(t, resp.Settings.Behavior.ShowCloseButton)
	assert.False(t, resp.Settings.Behavior.ShowBranding)

	require.Len(t, resp.Widgets, 1)
	assert.Equal(t, active.ID, resp.Widgets[0].ID)
	assert.Equal(t, models.TypeBanner, resp.Widgets[0].Type)
	assert.Equal(t, "Sale", resp.Widgets[0].Content.Title)
	assert.Contains(t, resp.Widgets[0].Content.DescriptionHTML, "<strong>Half</strong>")
}

func TestConfig_StoredSettingsWin(t *testing.T) {
	f := setupTestRouter(t)
	show := 2
	f.website.Settings = datatypes.NewJSONType(models.WebsiteSettings{
		Timing:   &models.Timing{ShowTime: &show},
		Position: models.PositionTopLeft,
	})
	require.NoError(t, f.db.Model(f.website).Update("settings", f.website.Settings).Error)

	req, _ := http.NewRequest("GET", "/api/website/"+f.website.PublicKey+"/config", nil)
	w := f.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ConfigResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Settings.Timing.ShowTime)
	assert.Equal(t, 8, resp.Settings.Timing.HideTime)
	assert.Equal(t, models.PositionTopLeft, resp.Settings.Position)
	assert.Empty(t, resp.Widgets)
	assert.Contains(t, w.Body.String(), `"widgets":[]`)
}

func TestConfig_UnknownKey(t *testing.T) {
	f := setupTestRouter(t)

	req, _ := http.NewRequest("GET", "/api/config/does-not-exist", nil)
	w := f.do(req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"not found"}`, w.Body.String())
	assert.Empty(t, w.Header().Get("ETag"))
}

func TestConfig_RawHTMLIsDropped(t *testing.T) {
	f := setupTestRouter(t)
	_, err := f.widgets.Create(context.Background(), f.user, f.website, widgets.Input{
		Name:    "Evil",
		Type:    string(models.TypePopupModal),
		Content: models.WidgetContent{Description: "<script>alert(1)</script>hello"},
	})
	require.NoError(t, err)

	req, _ := http.NewRequest("GET", "/api/config/"+f.website.PublicKey, nil)
	w := f.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ConfigResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Widgets, 1)
	assert.NotContains(t, resp.Widgets[0].Content.DescriptionHTML, "<script>")
}

func TestConfig_Revalidation(t *testing.T) {
	f := setupTestRouter(t)
	f.createWidget(t, "Sale", string(models.StatusActive))

	req, _ := http.NewRequest("GET", "/api/config/"+f.website.PublicKey, nil)
	first := f.do(req)
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req, _ = http.NewRequest("GET", "/api/config/"+f.website.PublicKey, nil)
	req.Header.Set("If-None-Match", etag)
	second := f.do(req)
	assert.Equal(t, http.StatusNotModified, second.Code)
	assert.Empty(t, second.Body.String())
}

func TestConfig_CORS(t *testing.T) {
	f := setupTestRouter(t, "https://shop.example")

	req, _ := http.NewRequest("GET", "/api/config/"+f.website.PublicKey, nil)
	req.Header.Set("Origin", "https://shop.example")
	w := f.do(req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://shop.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestTrack(t *testing.T) {
	f := setupTestRouter(t)
	widget := f.createWidget(t, "Sale", string(models.StatusActive))

	for _, event := range []string{"view", "view", "click"} {
		req, _ := http.NewRequest("POST", "/api/widget/"+widget.ID+"/track", strings.NewReader(`{"type":"`+event+`"}`))
		req.Header.Set("Content-Type", "application/json")
		w := f.do(req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true}`, w.Body.String())
	}

	var stored models.Widget
	require.NoError(t, f.db.First(&stored, "id = ?", widget.ID).Error)
	assert.Equal(t, int64(2), stored.Views)
	assert.Equal(t, int64(1), stored.Clicks)
}

func TestTrack_Errors(t *testing.T) {
	f := setupTestRouter(t)
	widget := f.createWidget(t, "Sale", string(models.StatusActive))

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"unknown event", "/api/widget/" + widget.ID + "/track", `{"type":"hover"}`, http.StatusBadRequest},
		{"missing type", "/api/widget/" + widget.ID + "/track", `{}`, http.StatusBadRequest},
		{"malformed body", "/api/widget/" + widget.ID + "/track", `not json`, http.StatusBadRequest},
		{"unknown widget", "/api/widget/nope/track", `{"type":"view"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("POST", tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := f.do(req)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	var stored models.Widget
	require.NoError(t, f.db.First(&stored, "id = ?", widget.ID).Error)
	assert.Zero(t, stored.Views)

	var rows int64
	require.NoError(t, f.db.Model(&models.DailyAnalytics{}).Count(&rows).Error)
	assert.Zero(t, rows)
}
