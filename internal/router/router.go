package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smilecms/internal/db"
	"github.com/smilecms/internal/handler"
	"github.com/smilecms/internal/logging"
	"github.com/smilecms/internal/middleware"
	"gorm.io/gorm"
)

// Options configures SetupRouter.
type Options struct {
	SessionSecret     string
	API               handler.Options
	UploadDir         string
	CORSOrigins       []string
	RateLimitDisabled bool
	Logger            *logrus.Logger
	// Done stops the limiter cleanup loops when closed. Nil keeps them
	// running for the life of the process.
	Done              <-chan struct{}
}

const limiterCleanupInterval = time.Minute

// SetupRouter builds the gin engine with every route.
func SetupRouter(gdb *gorm.DB, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if opts.API.Logger == nil {
		opts.API.Logger = logger
	}
	api := handler.NewAPI(gdb, opts.API)

	r := gin.New()
	r.Use(logging.Recovery(logger), logging.RequestLogger(logger), middleware.Metrics(api.Metrics()))
	if len(opts.CORSOrigins) > 0 {
		r.Use(middleware.CORS(opts.CORSOrigins))
	}

	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 86400 * 7, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("smilecms_session", store))

	limit := func(l *middleware.RateLimiter) gin.HandlerFunc {
		if opts.RateLimitDisabled {
			return func(c *gin.Context) { c.Next() }
		}
		l.StartCleanup(limiterCleanupInterval, opts.Done)
		return l.Handler()
	}
	general := limit(middleware.GeneralLimiter())
	authLimit := limit(middleware.AuthLimiter())
	creation := limit(middleware.CreationLimiter())

	if opts.UploadDir != "" {
		r.Static(uploadPath(opts.API.UploadURL), opts.UploadDir)
	}

	r.GET("/health", api.Health)
	r.GET("/metrics", gin.WrapH(api.Metrics().Handler()))

	requireAuth := middleware.AuthRequired(api.Tokens())
	adminOnly := middleware.RequireRole(db.RoleAdmin)
	editors := middleware.RequireRole(db.RoleAdmin, db.RoleEditor)

	apiGroup := r.Group("/api", general)
	{
		apiGroup.GET("/services", api.ListServices)

		auth := apiGroup.Group("/auth")
		{
			auth.POST("/login", authLimit, api.Login)
			auth.POST("/logout", api.Logout)
			auth.GET("/me", requireAuth, api.Me)
		}

		pages := apiGroup.Group("/pages/:page")
		{
			pages.GET("", api.GetPublicPage)

			admin := pages.Group("", requireAuth, editors)
			admin.GET("/admin", api.GetPageAdmin)
			admin.PUT("", api.UpdatePage)
			admin.PUT("/fields/:field", api.UpdatePageField)
			admin.POST("/apply-template/:templateId", api.ApplyTemplate)

			admin.POST("/sections", api.AddSection)
			admin.PUT("/sections/reorder", api.ReorderSections)
			admin.PUT("/sections/:sectionId", api.UpdateSection)
			admin.DELETE("/sections/:sectionId", api.DeleteSection)
			admin.PATCH("/sections/:sectionId/toggle", api.ToggleSection)

			admin.POST("/sections/:sectionId/subsections", api.AddSubsection)
			admin.PUT("/sections/:sectionId/subsections/reorder", api.ReorderSubsections)
			admin.PUT("/sections/:sectionId/subsections/:subId", api.UpdateSubsection)
			admin.DELETE("/sections/:sectionId/subsections/:subId", api.DeleteSubsection)
			admin.PATCH("/sections/:sectionId/subsections/:subId/toggle", api.ToggleSubsection)
		}

		blogs := apiGroup.Group("/blogs")
		{
			blogs.GET("", api.ListBlogs)
			blogs.GET("/:slug", api.GetBlog)
			blogs.POST("/:slug/like", api.LikeBlog)

			admin := blogs.Group("", requireAuth, editors)
			admin.GET("/admin/list", api.ListBlogsAdmin)
			admin.POST("", creation, api.CreateBlog)
			admin.GET("/id/:id", api.GetBlogAdmin)
			admin.PUT("/id/:id", api.UpdateBlog)
			admin.DELETE("/id/:id", adminOnly, api.DeleteBlog)
			admin.PATCH("/id/:id/publish", api.PublishBlog)
			admin.PATCH("/id/:id/feature", api.FeatureBlog)
		}

		forms := apiGroup.Group("/forms")
		{
			forms.POST("", creation, api.SubmitForm)

			admin := forms.Group("", requireAuth, editors)
			admin.GET("", api.ListForms)
			admin.GET("/:id", api.GetForm)
			admin.PATCH("/:id/status", api.UpdateFormStatus)
			admin.PATCH("/:id/assign", api.AssignForm)
			admin.DELETE("/:id", adminOnly, api.DeleteForm)
		}

		templates := apiGroup.Group("/templates")
		{
			templates.GET("", api.ListTemplates)
			templates.GET("/:id", api.GetTemplate)

			admin := templates.Group("", requireAuth, editors)
			admin.GET("/admin/list", api.ListTemplatesAdmin)
			admin.POST("", creation, api.CreateTemplate)
			admin.PUT("/:id", api.UpdateTemplate)
			admin.DELETE("/:id", adminOnly, api.DeleteTemplate)
			admin.POST("/:id/use", api.UseTemplate)
			admin.POST("/:id/clone", creation, api.CloneTemplate)
		}

		apiGroup.POST("/uploads", requireAuth, editors, creation, api.UploadImage)
	}

	return r
}

func uploadPath(url string) string {
	if url == "" {
		return "/uploads"
	}
	return url
}
