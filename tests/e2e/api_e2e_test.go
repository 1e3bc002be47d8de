package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smilecms/internal/db"
	"github.com/smilecms/internal/handler"
	"github.com/smilecms/internal/router"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const pagePath = "/api/pages/dental-crowns"

var sectionIDPattern = regexp.MustCompile(`^section_\d+_[a-z0-9]{9}$`)

type e2eSuite struct {
	handler   http.Handler
	public    httpClient
	admin     httpClient
	baseURL   string
	uploadDir string
	adminPass string
	token     string
}

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type localClient struct {
	handler http.Handler
	jar     http.CookieJar
}

func newLocalClient(handler http.Handler, withJar bool) *localClient {
	var jar http.CookieJar
	if withJar {
		if j, err := cookiejar.New(nil); err == nil {
			jar = j
		}
	}
	return &localClient{handler: handler, jar: jar}
}

func (c *localClient) Do(req *http.Request) (*http.Response, error) {
	if c.jar != nil {
		for _, cookie := range c.jar.Cookies(req.URL) {
			req.AddCookie(cookie)
		}
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	resp := w.Result()
	if c.jar != nil {
		c.jar.SetCookies(req.URL, resp.Cookies())
	}
	return resp, nil
}

type sectionView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Enabled     bool   `json:"enabled"`
	Order       int    `json:"order"`
	Subsections []struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Enabled bool   `json:"enabled"`
		Order   int    `json:"order"`
	} `json:"subsections"`
}

type pageEnvelope struct {
	Page struct {
		Slug     string        `json:"pageSlug"`
		Status   string        `json:"status"`
		Sections []sectionView `json:"sections"`
	} `json:"page"`
}

type sectionEnvelope struct {
	Section sectionView `json:"section"`
}

func TestE2E_AllInterfaces(t *testing.T) {
	suite := newE2ESuite(t)
	suite.login(t)

	t.Run("section lifecycle", suite.testSectionLifecycle)
	t.Run("subsections", suite.testSubsections)
	t.Run("templates", suite.testTemplates)
	t.Run("blogs", suite.testBlogs)
	t.Run("forms", suite.testForms)
	t.Run("uploads", suite.testUploads)
	t.Run("bearer token", suite.testBearerToken)
}

func newE2ESuite(t *testing.T) *e2eSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file:e2e?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	sqlDB, _ := gdb.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	if err := db.EnsureUser(gdb, "admin", "e2e-secret"); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	uploadDir := t.TempDir()
	engine := router.SetupRouter(gdb, router.Options{
		SessionSecret: "test-session-secret",
		API: handler.Options{
			JWTSecret: "test-jwt-secret",
			UploadDir: uploadDir,
			UploadURL: "/uploads",
		},
		UploadDir:         uploadDir,
		RateLimitDisabled: true,
		Logger:            log,
	})

	return &e2eSuite{
		handler:   engine,
		public:    newLocalClient(engine, false),
		admin:     newLocalClient(engine, true),
		baseURL:   "http://example.test",
		uploadDir: uploadDir,
		adminPass: "e2e-secret",
	}
}

func (s *e2eSuite) login(t *testing.T) {
	t.Helper()
	resp := s.mustRequestJSON(t, s.admin, http.MethodPost, "/api/auth/login", map[string]interface{}{
		"username": "admin",
		"password": s.adminPass,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed, status %d: %s", resp.StatusCode, readBody(t, resp))
	}
	var payload struct {
		Token string `json:"token"`
	}
	decodeJSON(t, resp, &payload)
	if payload.Token == "" {
		t.Fatalf("expected login to return a token")
	}
	s.token = payload.Token
}

func (s *e2eSuite) testSectionLifecycle(t *testing.T) {
	resp := s.mustRequestJSON(t, s.admin, http.MethodPut, pagePath, map[string]interface{}{
		"sections": []interface{}{},
		"status":   "published",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("failed to reset page: %d %s", resp.StatusCode, readBody(t, resp))
	}
	resp.Body.Close()

	resp = s.mustRequestJSON(t, s.admin, http.MethodPost, pagePath+"/sections", map[string]interface{}{
		"sectionData": map[string]interface{}{"title": "New"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 when adding section, got %d %s", resp.StatusCode, readBody(t, resp))
	}
	var created sectionEnvelope
	decodeJSON(t, resp, &created)
	if created.Section.Order != 0 || !created.Section.Enabled {
		t.Fatalf("unexpected new section %+v", created.Section)
	}
	if !sectionIDPattern.MatchString(created.Section.ID) {
		t.Fatalf("unexpected section id %q", created.Section.ID)
	}
	newID := created.Section.ID

	admin := s.adminPage(t)
	if len(admin.Page.Sections) != 1 || admin.Page.Sections[0].ID != newID {
		t.Fatalf("expected admin view to include the new section, got %+v", admin.Page.Sections)
	}
	if !s.publicHas(t, newID) {
		t.Fatalf("expected public page to include the new section")
	}

	s.toggleSection(t, newID, false)
	if s.publicHas(t, newID) {
		t.Fatalf("expected disabled section to be hidden from the public page")
	}
	admin = s.adminPage(t)
	if len(admin.Page.Sections) != 1 || admin.Page.Sections[0].Enabled {
		t.Fatalf("expected admin view to keep the disabled section, got %+v", admin.Page.Sections)
	}
	s.toggleSection(t, newID, true)
	if !s.publicHas(t, newID) {
		t.Fatalf("expected re-enabled section to be visible again")
	}

	resp = s.mustRequestJSON(t, s.admin, http.MethodPost, pagePath+"/sections", map[string]interface{}{
		"sectionData": map[string]interface{}{
			"title":   "Questions",
			"type":    "faq",
			"content": map[string]interface{}{"items": []interface{}{map[string]string{"question": "Does it hurt?", "answer": "No."}}},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 when adding faq section, got %d %s", resp.StatusCode, readBody(t, resp))
	}
	var faq sectionEnvelope
	decodeJSON(t, resp, &faq)
	if faq.Section.Order != 1 {
		t.Fatalf("expected appended section order 1, got %d", faq.Section.Order)
	}

	resp = s.mustRequestJSON(t, s.admin, http.MethodPut, pagePath+"/sections/reorder", map[string]interface{}{
		"sectionIds": []string{faq.Section.ID, newID},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected reorder to succeed, got %d %s", resp.StatusCode, readBody(t, resp))
	}
	var reordered pageEnvelope
	decodeJSON(t, resp, &reordered)
	orders := make(map[string]int, len(reordered.Page.Sections))
	for _, section := range reordered.Page.Sections {
		orders[section.ID] = section.Order
	}
	if orders[faq.Section.ID] != 0 || orders[newID] != 1 {
		t.Fatalf("unexpected order after reorder %+v", reordered.Page.Sections)
	}
	if public := s.publicPage(t); public.Page.Sections[0].ID != faq.Section.ID {
		t.Fatalf("expected public page sorted by order, got %+v", public.Page.Sections)
	}

	resp = s.mustRequestJSON(t, s.admin, http.MethodPut, pagePath+"/sections/reorder", map[string]interface{}{
		"sectionIds": []string{newID},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected partial reorder to be rejected, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = s.mustRequest(t, s.admin, http.MethodDelete, pagePath+"/sections/"+faq.Section.ID, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected delete to succeed, got %d", resp.StatusCode)
	}
	resp.Body.Close()
	admin = s.adminPage(t)
	if len(admin.Page.Sections) != 1 || admin.Page.Sections[0].Order != 1 {
		t.Fatalf("expected remaining section to keep its order, got %+v", admin.Page.Sections)
	}

	resp = s.mustRequest(t, s.public, http.MethodPost, pagePath+"/sections", strings.NewReader(`{"sectionData":{}}`), map[string]string{"Content-Type": "application/json"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected anonymous mutation to be rejected, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func (s *e2eSuite) testSubsections(t *testing.T) {
	admin := s.adminPage(t)
	if len(admin.Page.Sections) == 0 {
		t.Fatalf("expected a section from the lifecycle test")
	}
	sectionID := admin.Page.Sections[0].ID
	base := pagePath + "/sections/" + sectionID + "/subsections"

	ids := make([]string, 0, 2)
	for _, title := range []string{"First", "Second"} {
		resp := s.mustRequestJSON(t, s.admin, http.MethodPost, base, map[string]interface{}{
			"subsectionData": map[string]interface{}{"title": title},
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201 when adding subsection, got %d %s", resp.StatusCode, readBody(t, resp))
		}
		var payload struct {
			Subsection struct {
				ID      string `json:"id"`
				Order   int    `json:"order"`
				Enabled bool   `json:"enabled"`
			} `json:"subsection"`
		}
		decodeJSON(t, resp, &payload)
		if payload.Subsection.Order != len(ids) || !payload.Subsection.Enabled {
			t.Fatalf("unexpected subsection %+v", payload.Subsection)
		}
		ids = append(ids, payload.Subsection.ID)
	}

	resp := s.mustRequestJSON(t, s.admin, http.MethodPut, base+"/reorder", map[string]interface{}{
		"subsectionIds": []string{ids[1], ids[0]},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected subsection reorder to succeed, got %d %s", resp.StatusCode, readBody(t, resp))
	}
	var reordered sectionEnvelope
	decodeJSON(t, resp, &reordered)
	subOrders := make(map[string]int, len(reordered.Section.Subsections))
	for _, sub := range reordered.Section.Subsections {
		subOrders[sub.ID] = sub.Order
	}
	if subOrders[ids[1]] != 0 || subOrders[ids[0]] != 1 {
		t.Fatalf("unexpected subsection order %+v", reordered.Section.Subsections)
	}

	resp = s.mustRequestJSON(t, s.admin, http.MethodPatch, base+"/"+ids[0]+"/toggle", map[string]interface{}{"enabled": false})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected subsection toggle to succeed, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	public := s.publicPage(t)
	for _, section := range public.Page.Sections {
		if section.ID != sectionID {
			continue
		}
		if len(section.Subsections) != 1 || section.Subsections[0].ID != ids[1] {
			t.Fatalf("expected only enabled subsections publicly, got %+v", section.Subsections)
		}
	}

	resp = s.mustRequest(t, s.admin, http.MethodDelete, base+"/missing", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown subsection, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func (s *e2eSuite) testTemplates(t *testing.T) {
	resp := s.mustRequestJSON(t, s.admin, http.MethodPost, "/api/templates", map[string]interface{}{
		"name":     "Crown Landing",
		"category": "restorative",
		"components": []interface{}{
			map[string]interface{}{"type": "hero", "name": "Hero", "content": map[string]string{"title": "Crowns"}},
			map[string]interface{}{"type": "cta", "content": map[string]string{"heading": "Book now"}},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected template creation to succeed, got %d %s", resp.StatusCode, readBody(t, resp))
	}
	var created struct {
		Template struct {
			ID uint `json:"ID"`
		} `json:"template"`
	}
	decodeJSON(t, resp, &created)
	id := fmt.Sprint(created.Template.ID)

	resp = s.mustRequest(t, s.public, http.MethodGet, "/api/templates", nil, nil)
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Crown Landing") {
		t.Fatalf("expected active template in public list, got %d %s", resp.StatusCode, body)
	}

	resp = s.mustRequest(t, s.admin, http.MethodPost, pagePath+"/apply-template/"+id, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected template apply to succeed, got %d %s", resp.StatusCode, readBody(t, resp))
	}
	var applied struct {
		Sections []sectionView `json:"sections"`
	}
	decodeJSON(t, resp, &applied)
	if len(applied.Sections) != 2 || applied.Sections[0].Type != "hero" || applied.Sections[1].Order != 2 {
		t.Fatalf("unexpected applied sections %+v", applied.Sections)
	}
	for _, section := range applied.Sections {
		if !sectionIDPattern.MatchString(section.ID) || !section.Enabled {
			t.Fatalf("unexpected applied section %+v", section)
		}
	}

	resp = s.mustRequest(t, s.admin, http.MethodPost, "/api/templates/"+id+"/clone", nil, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected clone to succeed, got %d %s", resp.StatusCode, readBody(t, resp))
	}
	if body := readBody(t, resp); !strings.Contains(body, "Crown Landing (Copy)") {
		t.Fatalf("unexpected clone payload %s", body)
	}

	resp = s.mustRequestJSON(t, s.admin, http.MethodPost, "/api/templates", map[string]interface{}{"name": "Crown Landing"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected duplicate template name to conflict, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func (s *e2eSuite) testBlogs(t *testing.T) {
	resp := s.mustRequestJSON(t, s.admin, http.MethodPost, "/api/blogs", map[string]interface{}{
		"title":     "Caring for Your New Crown",
		"content":   "## Aftercare\n\nBrush twice a day.",
		"tags":      []string{"Crowns"},
		"published": true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected blog creation to succeed, got %d %s", resp.StatusCode, readBody(t, resp))
	}
	var created struct {
		Post struct {
			Slug string `json:"slug"`
		} `json:"post"`
	}
	decodeJSON(t, resp, &created)
	if created.Post.Slug != "caring-for-your-new-crown" {
		t.Fatalf("unexpected slug %q", created.Post.Slug)
	}

	resp = s.mustRequest(t, s.public, http.MethodGet, "/api/blogs?tag=crowns", nil, nil)
	var list struct {
		Posts      []map[string]interface{} `json:"posts"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	decodeJSON(t, resp, &list)
	if list.Pagination.Total != 1 || len(list.Posts) != 1 {
		t.Fatalf("expected one public post, got %+v", list)
	}

	resp = s.mustRequest(t, s.public, http.MethodGet, "/api/blogs/"+created.Post.Slug, nil, nil)
	var detail struct {
		ContentHTML string `json:"contentHtml"`
	}
	decodeJSON(t, resp, &detail)
	if !strings.Contains(detail.ContentHTML, "<h2") {
		t.Fatalf("expected rendered html, got %q", detail.ContentHTML)
	}

	resp = s.mustRequest(t, s.public, http.MethodPost, "/api/blogs/"+created.Post.Slug+"/like", nil, nil)
	var liked struct {
		Likes int `json:"likes"`
	}
	decodeJSON(t, resp, &liked)
	if liked.Likes != 1 {
		t.Fatalf("expected 1 like, got %d", liked.Likes)
	}

	resp = s.mustRequest(t, s.public, http.MethodGet, "/api/blogs/missing-post", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown post, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func (s *e2eSuite) testForms(t *testing.T) {
	resp := s.mustRequestJSON(t, s.public, http.MethodPost, "/api/forms", map[string]interface{}{
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"email":     "ada@example.com",
		"service":   "dental-crowns",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected form submission to succeed, got %d %s", resp.StatusCode, readBody(t, resp))
	}
	resp.Body.Close()

	resp = s.mustRequestJSON(t, s.public, http.MethodPost, "/api/forms", map[string]interface{}{
		"firstName": "Ada",
		"email":     "not-an-email",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected invalid submission to be rejected, got %d", resp.StatusCode)
	}
	var invalid struct {
		Errors []struct {
			Field string `json:"field"`
		} `json:"errors"`
	}
	decodeJSON(t, resp, &invalid)
	if len(invalid.Errors) != 2 {
		t.Fatalf("expected two field errors, got %+v", invalid.Errors)
	}

	resp = s.mustRequest(t, s.public, http.MethodGet, "/api/forms", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected anonymous listing to be rejected, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = s.mustRequest(t, s.admin, http.MethodGet, "/api/forms?status=new", nil, nil)
	var listed struct {
		Forms []struct {
			ID uint `json:"ID"`
		} `json:"forms"`
		Counts map[string]int `json:"counts"`
	}
	decodeJSON(t, resp, &listed)
	if len(listed.Forms) != 1 || listed.Counts["new"] != 1 {
		t.Fatalf("unexpected form listing %+v", listed)
	}

	resp = s.mustRequestJSON(t, s.admin, http.MethodPatch, fmt.Sprintf("/api/forms/%d/status", listed.Forms[0].ID), map[string]interface{}{
		"status": "scheduled",
		"notes":  "Tuesday 10am",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status update to succeed, got %d %s", resp.StatusCode, readBody(t, resp))
	}
	if body := readBody(t, resp); !strings.Contains(body, `"status":"scheduled"`) {
		t.Fatalf("unexpected status payload %s", body)
	}
}

func (s *e2eSuite) testUploads(t *testing.T) {
	resp := s.uploadTestImage(t)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected upload to succeed, got %d %s", resp.StatusCode, readBody(t, resp))
	}
	var payload struct {
		Image struct {
			URL    string `json:"url"`
			Width  int    `json:"width"`
			Format string `json:"format"`
		} `json:"image"`
	}
	decodeJSON(t, resp, &payload)
	if payload.Image.Width != 4 || payload.Image.Format != "png" || !strings.HasPrefix(payload.Image.URL, "/uploads/") {
		t.Fatalf("unexpected upload payload %+v", payload.Image)
	}

	resp = s.mustRequest(t, s.public, http.MethodGet, payload.Image.URL, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected uploaded file to be served, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func (s *e2eSuite) testBearerToken(t *testing.T) {
	headers := map[string]string{"Authorization": "Bearer " + s.token}
	resp := s.mustRequest(t, s.public, http.MethodGet, pagePath+"/admin", nil, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected bearer token to authorize, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = s.mustRequest(t, s.public, http.MethodGet, "/api/auth/me", nil, headers)
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"admin"`) {
		t.Fatalf("unexpected me response %d %s", resp.StatusCode, body)
	}

	resp = s.mustRequest(t, s.public, http.MethodGet, pagePath+"/admin", nil, map[string]string{"Authorization": "Bearer forged"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected forged token to be rejected, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func (s *e2eSuite) adminPage(t *testing.T) pageEnvelope {
	t.Helper()
	resp := s.mustRequest(t, s.admin, http.MethodGet, pagePath+"/admin", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected admin page, got %d %s", resp.StatusCode, readBody(t, resp))
	}
	var page pageEnvelope
	decodeJSON(t, resp, &page)
	return page
}

func (s *e2eSuite) publicPage(t *testing.T) pageEnvelope {
	t.Helper()
	resp := s.mustRequest(t, s.public, http.MethodGet, pagePath, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected public page, got %d %s", resp.StatusCode, readBody(t, resp))
	}
	var page pageEnvelope
	decodeJSON(t, resp, &page)
	return page
}

func (s *e2eSuite) publicHas(t *testing.T, sectionID string) bool {
	t.Helper()
	for _, section := range s.publicPage(t).Page.Sections {
		if section.ID == sectionID {
			return true
		}
	}
	return false
}

func (s *e2eSuite) toggleSection(t *testing.T, sectionID string, enabled bool) {
	t.Helper()
	resp := s.mustRequestJSON(t, s.admin, http.MethodPatch, pagePath+"/sections/"+sectionID+"/toggle", map[string]interface{}{"enabled": enabled})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected toggle to succeed, got %d %s", resp.StatusCode, readBody(t, resp))
	}
	var payload sectionEnvelope
	decodeJSON(t, resp, &payload)
	if payload.Section.Enabled != enabled {
		t.Fatalf("expected enabled=%v, got %+v", enabled, payload.Section)
	}
}

func (s *e2eSuite) uploadTestImage(t *testing.T) *http.Response {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 20, B: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, "image", "test.png"))
	partHeader.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(partHeader)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(buf.Bytes()); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	headers := map[string]string{
		"Content-Type": writer.FormDataContentType(),
	}
	return s.mustRequest(t, s.admin, http.MethodPost, "/api/uploads", body, headers)
}

func (s *e2eSuite) mustRequest(t *testing.T, client httpClient, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, s.baseURL+path, body)
	if err != nil {
		t.Fatalf("failed to build request %s %s: %v", method, path, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	return resp
}

func (s *e2eSuite) mustRequestJSON(t *testing.T, client httpClient, method, path string, payload map[string]interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	headers := map[string]string{"Content-Type": "application/json"}
	return s.mustRequest(t, client, method, path, bytes.NewReader(data), headers)
}

func decodeJSON(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	body := readBody(t, resp)
	if err := json.Unmarshal([]byte(body), dst); err != nil {
		t.Fatalf("failed to decode json: %v\nbody=%s", err, body)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(data)
}
