package main

import (
	"encoding/json"
	"errors"
	"flag"
	"os"

	"github.com/smilecms/internal/catalog"
	"github.com/smilecms/internal/config"
	"github.com/smilecms/internal/content"
	"github.com/smilecms/internal/db"
	"github.com/smilecms/internal/logging"
	"github.com/smilecms/internal/service"
)

var starterTemplates = []service.TemplateInput{
	{
		Name:        "Service Landing",
		Description: "Hero, benefits, FAQ and booking call to action.",
		Category:    "general",
		Components: []content.Component{
			{Type: content.KindHero, Name: "hero", Title: "Hero", Content: json.RawMessage(`{"title":"Your Smile, Our Priority","buttonText":"Book Now","buttonLink":"/book-appointment"}`)},
			{Type: content.KindFeatures, Name: "benefits", Title: "Benefits", Content: json.RawMessage(`{"heading":"Why Patients Choose Us","items":[]}`)},
			{Type: content.KindFAQ, Name: "faq", Title: "FAQ", Content: json.RawMessage(`{"heading":"Frequently Asked Questions","items":[]}`)},
			{Type: content.KindCTA, Name: "cta", Title: "Call to Action", Content: json.RawMessage(`{"heading":"Ready to get started?","buttonText":"Schedule a Visit","buttonLink":"/book-appointment"}`)},
		},
	},
	{
		Name:        "Before and After",
		Description: "Gallery of results with a short story.",
		Category:    "cosmetic",
		Components: []content.Component{
			{Type: content.KindContent, Name: "story", Title: "Patient Story", Content: json.RawMessage(`{"heading":"A Smile Transformed","body":""}`)},
			{Type: content.KindGallery, Name: "gallery", Title: "Results", Content: json.RawMessage(`{"heading":"Results","images":[]}`)},
		},
	},
}

func main() {
	withTemplates := flag.Bool("templates", true, "also create the starter templates")
	flag.Parse()

	log := logging.New("info", "text", os.Stdout)
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if err := db.Init(db.Options{Driver: cfg.DatabaseDriver, Path: cfg.DatabasePath, DSN: cfg.DatabaseDSN}); err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	if err := db.EnsureUser(db.DB, cfg.SuperRootUserName, cfg.SuperRootPassword); err != nil {
		log.WithError(err).Fatal("failed to ensure super root user")
	}

	pages := service.NewPageService(db.DB)
	for _, svc := range catalog.All() {
		if _, err := pages.GetOrCreate(svc.Slug); err != nil {
			log.WithError(err).WithField("slug", svc.Slug).Fatal("failed to seed page")
		}
	}
	log.WithField("pages", len(catalog.All())).Info("service pages ready")

	if !*withTemplates {
		return
	}
	templates := service.NewTemplateService(db.DB)
	for _, input := range starterTemplates {
		_, err := templates.Create(input)
		switch {
		case errors.Is(err, service.ErrTemplateNameTaken):
			log.WithField("template", input.Name).Info("template already exists")
		case err != nil:
			log.WithError(err).WithField("template", input.Name).Fatal("failed to create template")
		default:
			log.WithField("template", input.Name).Info("template created")
		}
	}
}
