package handler

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smilecms/internal/metrics"
	"github.com/smilecms/internal/service"
	"gorm.io/gorm"
)

// Options configures the handler set.
type Options struct {
	JWTSecret string
	TokenTTL  time.Duration
	UploadDir string
	UploadURL string
	Metrics   *metrics.Collector
	Logger    logrus.FieldLogger
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	pages     *service.PageService
	blogs     *service.BlogService
	leads     *service.LeadService
	templates *service.TemplateService
	auth      *service.AuthService
	uploads   *service.UploadService
	metrics   *metrics.Collector
	log       logrus.FieldLogger
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, opts Options) *API {
	collector := opts.Metrics
	if collector == nil {
		collector = metrics.New()
	}
	log := opts.Logger
	if log == nil {
		silent := logrus.New()
		silent.SetOutput(io.Discard)
		log = silent
	}

	return &API{
		db:        gdb,
		pages:     service.NewPageService(gdb).WithRecorder(collector),
		blogs:     service.NewBlogService(gdb),
		leads:     service.NewLeadService(gdb),
		templates: service.NewTemplateService(gdb),
		auth:      service.NewAuthService(gdb, opts.JWTSecret, opts.TokenTTL),
		uploads:   service.NewUploadService(opts.UploadDir, opts.UploadURL),
		metrics:   collector,
		log:       log,
	}
}

// Tokens exposes the token parser used by the auth middleware.
func (a *API) Tokens() *service.AuthService {
	return a.auth
}

// Metrics exposes the collector backing /metrics.
func (a *API) Metrics() *metrics.Collector {
	return a.metrics
}
