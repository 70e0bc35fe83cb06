package handler

import (
	"encoding/xml"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sakif/ai-directory/internal/service"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type SitemapHandler struct {
	sitemap *service.SitemapService
	logger  *slog.Logger
}

func NewSitemapHandler(sitemap *service.SitemapService, logger *slog.Logger) *SitemapHandler {
	return &SitemapHandler{sitemap: sitemap, logger: logger}
}

// HandleSitemap serves GET /sitemap.xml.
func (h *SitemapHandler) HandleSitemap(w http.ResponseWriter, r *http.Request) {
	entries := h.sitemap.Entries(r.Context())

	set := urlSet{XMLNS: sitemapNS, URLs: make([]sitemapURL, 0, len(entries))}
	for _, e := range entries {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        e.Loc,
			LastMod:    e.LastMod.Format(time.RFC3339),
			ChangeFreq: e.ChangeFreq,
			Priority:   strconv.FormatFloat(e.Priority, 'f', 1, 64),
		})
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(xml.Header))
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		h.logger.Error("encoding sitemap", slog.String("error", err.Error()))
	}
}

// HandleRobots serves GET /robots.txt.
func (h *SitemapHandler) HandleRobots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(h.sitemap.Robots()))
}
