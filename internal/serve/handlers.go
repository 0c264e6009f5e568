package serve

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))
	if s.metrics != nil {
		r.Use(requestMetrics(s.metrics))
	}
	r.Use(middleware.StripSlashes)

	r.Get("/", s.handleHome)
	r.Get("/healthz", s.handleHealth)
	r.Route("/blog", func(r chi.Router) {
		r.Get("/", s.handleBlog)
		r.Get("/tags", s.handleTags)
		r.Get("/tags/{tag}", s.handleTag)
		r.Get("/{slug}", s.handlePost)
	})
	if s.liveReload {
		r.Get("/dev/events", s.handleEvents)
	}
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	files := http.FileServer(http.Dir(s.staticDir()))
	for _, p := range []string{"/css/*", "/js/*", "/images/*", "/favicon.ico"} {
		r.Handle(p, files)
	}

	r.Get("/{slug}", s.handlePage)
	r.NotFound(s.handleNotFound)
	return r
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	c := s.content.Load()
	s.writePage(w, r, "", func() ([]byte, error) {
		return s.tpl.Load().RenderHome(r.Context(), s.asm.Home(r.Context(), c))
	})
}

func (s *Server) handleBlog(w http.ResponseWriter, r *http.Request) {
	c := s.content.Load()
	s.writePage(w, r, "", func() ([]byte, error) {
		return s.tpl.Load().RenderBlog(r.Context(), s.asm.Blog(c))
	})
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	c := s.content.Load()
	s.writePage(w, r, "", func() ([]byte, error) {
		return s.tpl.Load().RenderTagsPage(r.Context(), s.asm.Tags(c))
	})
}

func (s *Server) handleTag(w http.ResponseWriter, r *http.Request) {
	c := s.content.Load()
	tag := pathParam(r, "tag")
	page, ok := s.asm.Tag(c, tag)
	if !ok {
		s.handleNotFound(w, r)
		return
	}
	s.writePage(w, r, "", func() ([]byte, error) {
		return s.tpl.Load().RenderTag(r.Context(), page)
	})
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	c := s.content.Load()
	slug := pathParam(r, "slug")
	art, ok := c.Catalog.FindBySlug(slug)
	if !ok {
		s.handleNotFound(w, r)
		return
	}
	if !art.Meta.Published {
		w.Header().Set("X-Robots-Tag", "noindex")
	}
	s.writePage(w, r, art.Body.ContentHash, func() ([]byte, error) {
		page, _, err := s.asm.Post(c, slug)
		if err != nil {
			return nil, err
		}
		return s.tpl.Load().RenderPost(r.Context(), page)
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	c := s.content.Load()
	slug := pathParam(r, "slug")
	p, ok := c.Page(slug)
	if !ok {
		s.handleNotFound(w, r)
		return
	}
	s.writePage(w, r, p.Body.ContentHash, func() ([]byte, error) {
		page, _, err := s.asm.Page(c, slug)
		if err != nil {
			return nil, err
		}
		return s.tpl.Load().RenderPage(r.Context(), page)
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	htmlBytes, err := s.tpl.Load().RenderNotFound(r.Context(), s.asm.NotFound(r.URL.Path))
	if err != nil {
		s.logger.Error("render 404", zap.Error(err))
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write(htmlBytes)
}

type health struct {
	Status   string `json:"status"`
	Articles int    `json:"articles"`
	Pages    int    `json:"pages"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	c := s.content.Load()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(health{
		Status:   "ok",
		Articles: c.Catalog.Len(),
		Pages:    len(c.Pages),
	})
}

// writePage renders and writes an HTML page. A non-empty sourceHash enables
// conditional requests keyed on the source and the reload generation.
func (s *Server) writePage(w http.ResponseWriter, r *http.Request, sourceHash string, render func() ([]byte, error)) {
	if sourceHash != "" {
		tag := s.etag(sourceHash)
		w.Header().Set("ETag", tag)
		if match := r.Header.Get("If-None-Match"); match != "" && etagMatches(match, tag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	htmlBytes, err := render()
	if err != nil {
		s.logger.Error("render page", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(htmlBytes)
}

func (s *Server) etag(sourceHash string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", sourceHash, s.generation.Load())))
	return `W/"` + hex.EncodeToString(sum[:8]) + `"`
}

func etagMatches(header, tag string) bool {
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "*" || part == tag {
			return true
		}
	}
	return false
}

func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}
