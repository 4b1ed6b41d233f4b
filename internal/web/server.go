// Package web serves questionnaires to browsers. Each browser gets its own
// session per form; edits post back as plain HTML forms and the outcome is
// shown as a notice on the redirected page.
package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/goliatone/go-questionnaire/pkg/remote"
	"github.com/goliatone/go-questionnaire/pkg/render"
	"github.com/goliatone/go-questionnaire/pkg/renderers/html"
)

// CookieName holds the browser id that scopes sessions.
const CookieName = "qsid"

// DefaultIdle is how long an untouched session is kept.
const DefaultIdle = 30 * time.Minute

// Option configures the server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRenderer replaces the HTML renderer.
func WithRenderer(renderer render.Renderer) Option {
	return func(s *Server) {
		if renderer != nil {
			s.renderer = renderer
		}
	}
}

// WithTranslator sets the catalog used for UI strings.
func WithTranslator(translator render.Translator) Option {
	return func(s *Server) {
		if translator != nil {
			s.translator = translator
		}
	}
}

// WithDefaultLang sets the language used when a request names none.
func WithDefaultLang(lang string) Option {
	return func(s *Server) {
		if tag, err := language.Parse(lang); err == nil {
			s.defaultLang = tag.String()
		}
	}
}

// WithStore replaces the session store.
func WithStore(store *Store) Option {
	return func(s *Server) {
		if store != nil {
			s.store = store
		}
	}
}

// WithSecureCookies marks the browser cookie Secure.
func WithSecureCookies(secure bool) Option {
	return func(s *Server) {
		s.secure = secure
	}
}

// Server is the browser front-end.
type Server struct {
	client      remote.Client
	renderer    render.Renderer
	translator  render.Translator
	store       *Store
	logger      *slog.Logger
	defaultLang string
	secure      bool
	newID       func() string
	engine      *gin.Engine
}

// New builds the server and its routes.
func New(client remote.Client, options ...Option) (*Server, error) {
	if client == nil {
		return nil, fmt.Errorf("web: remote client is required")
	}
	s := &Server{
		client:      client,
		translator:  render.DefaultCatalog(),
		logger:      slog.Default(),
		defaultLang: "pt-BR",
		newID:       uuid.NewString,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	if s.store == nil {
		s.store = NewStore(DefaultIdle)
	}
	if s.renderer == nil {
		renderer, err := html.New()
		if err != nil {
			return nil, fmt.Errorf("web: build html renderer: %w", err)
		}
		s.renderer = renderer
	}

	engine := gin.New()
	// Question codes and form ids are path-escaped in action URLs.
	engine.UseRawPath = true
	engine.Use(gin.Recovery(), RequestIDMiddleware(s.logger))
	s.routes(engine)
	s.engine = engine
	return s, nil
}

// Handler exposes the routes.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Store exposes the live sessions.
func (s *Server) Store() *Store {
	return s.store
}

func (s *Server) routes(engine *gin.Engine) {
	engine.GET("/healthz", s.health)

	forms := engine.Group("/forms/:formID")
	forms.GET("", s.show)
	forms.POST("/answers/:code", s.answer)
	forms.POST("/tables/:code/rows", s.addRow)
	forms.POST("/tables/:code/rows/:index", s.saveRow)
	forms.POST("/submit", s.submit)
	forms.POST("/close", s.close)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.store.Len()})
}
