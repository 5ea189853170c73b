// Package stubcrm serves a minimal stand-in for the CRM screens the suite drives: login,
// home with the App Launcher, the Leads list, the New Lead form and the lead record.
package stubcrm

import (
	"context"
	"crypto/rand"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

//go:embed templates/*.html
var templateFS embed.FS

const sessionCookie = "sid"

type app struct {
	Name string
	Path string
}

var apps = []app{
	{Name: "Accounts", Path: "/lightning/o/Account/list"},
	{Name: "Contacts", Path: "/lightning/o/Contact/list"},
	{Name: "Leads", Path: "/lightning/o/Lead/list"},
	{Name: "Opportunities", Path: "/lightning/o/Opportunity/list"},
}

// page is the data every template renders from.
type page struct {
	Title     string
	Apps      []app
	Error     string
	Query     string
	Leads     []Lead
	Lead      Lead
	Picklists map[string][]string
}

// Server is the stub CRM. It keeps leads and sessions in memory.
type Server struct {
	logger   *zap.Logger
	engine   *gin.Engine
	username string
	// hash is the bcrypt hash of the accepted password. Nil accepts any password.
	hash []byte

	mu       sync.Mutex
	leads    []Lead
	sessions map[string]string
	seq      int
}

// Option configures a Server.
type Option func(*Server)

// WithCredentials makes login accept only username and password. Without it any
// non-empty pair is accepted.
func WithCredentials(username, password string) Option {
	return func(s *Server) {
		s.username = username
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			// Passwords bcrypt cannot hash can never match.
			s.logger.Error("Failed to hash stub password", zap.Error(err))
			hash = []byte{}
		}
		s.hash = hash
	}
}

// WithPasswordHash is WithCredentials for a password already hashed with bcrypt.
func WithPasswordHash(username string, hash []byte) Option {
	return func(s *Server) {
		s.username = username
		s.hash = hash
	}
}

func New(logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		logger:   logger,
		sessions: map[string]string{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())
	engine.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	engine.GET("/", s.handleLoginPage)
	engine.GET("/login", s.handleLoginPage)
	engine.POST("/login", s.handleLogin)
	engine.POST("/logout", s.handleLogout)
	engine.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	authed := engine.Group("/", s.requireSession)
	authed.GET("/home", s.handleHome)
	authed.GET("/lightning/o/Lead/list", s.handleLeadList)
	authed.GET("/lightning/o/Lead/new", s.handleNewLead)
	authed.POST("/lightning/o/Lead/new", s.handleCreateLead)
	authed.GET("/lightning/r/Lead/:id/view", s.handleViewLead)

	api := engine.Group("/api")
	api.GET("/leads", s.handleAPILeads)
	api.DELETE("/leads", s.handleAPIReset)

	s.engine = engine
	return s
}

// Handler returns the HTTP handler of the stub.
func (s *Server) Handler() http.Handler { return s.engine }

// Serve serves on l until ctx is done.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(l) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down stub CRM: %w", err)
		}
		return nil
	}
}

// Leads returns a copy of the saved leads in creation order.
func (s *Server) Leads() []Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Lead, len(s.leads))
	copy(out, s.leads)
	return out
}

// Reset drops all leads and sessions.
func (s *Server) Reset() {
	s.mu.Lock()
	s.leads = nil
	s.sessions = map[string]string{}
	s.mu.Unlock()
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func (s *Server) sessionUser(c *gin.Context) (string, bool) {
	sid, err := c.Cookie(sessionCookie)
	if err != nil {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.sessions[sid]
	return user, ok
}

func (s *Server) requireSession(c *gin.Context) {
	if _, ok := s.sessionUser(c); !ok {
		c.Redirect(http.StatusFound, "/")
		c.Abort()
		return
	}
	c.Next()
}

func (s *Server) render(c *gin.Context, status int, name string, p page) {
	p.Apps = apps
	c.HTML(status, name, p)
}

func (s *Server) handleLoginPage(c *gin.Context) {
	if _, ok := s.sessionUser(c); ok {
		c.Redirect(http.StatusFound, "/home")
		return
	}
	s.render(c, http.StatusOK, "login.html", page{Title: "Login"})
}

func (s *Server) handleLogin(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	valid := username != "" && password != ""
	if s.hash != nil {
		valid = username == s.username && bcrypt.CompareHashAndPassword(s.hash, []byte(password)) == nil
	}
	if !valid {
		s.logger.Info("Rejected login", zap.String("username", username))
		s.render(c, http.StatusUnauthorized, "login.html", page{
			Title: "Login",
			Error: "Please check your username and password.",
		})
		return
	}

	sid, err := newSessionID()
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	s.mu.Lock()
	s.sessions[sid] = username
	s.mu.Unlock()

	c.SetCookie(sessionCookie, sid, 0, "/", "", false, true)
	s.logger.Info("Logged in", zap.String("username", username))
	c.Redirect(http.StatusFound, "/home")
}

func (s *Server) handleLogout(c *gin.Context) {
	if sid, err := c.Cookie(sessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, sid)
		s.mu.Unlock()
	}
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}

func (s *Server) handleHome(c *gin.Context) {
	s.render(c, http.StatusOK, "home.html", page{Title: "Home", Leads: s.Leads()})
}

func (s *Server) handleLeadList(c *gin.Context) {
	q := c.Query("q")
	var leads []Lead
	for _, l := range s.Leads() {
		if l.matches(q) {
			leads = append(leads, l)
		}
	}
	s.render(c, http.StatusOK, "leads.html", page{Title: "Leads", Query: q, Leads: leads})
}

func (s *Server) handleNewLead(c *gin.Context) {
	s.render(c, http.StatusOK, "lead_new.html", page{Title: "New Lead", Picklists: Picklists})
}

func (s *Server) handleCreateLead(c *gin.Context) {
	lead := Lead{
		Salutation: c.PostForm("salutation"),
		FirstName:  c.PostForm("firstName"),
		LastName:   c.PostForm("lastName"),
		Company:    c.PostForm("company"),
		LeadStatus: c.PostForm("leadStatus"),
		Rating:     c.PostForm("rating"),
		LeadSource: c.PostForm("leadSource"),
		Industry:   c.PostForm("industry"),
		Street:     c.PostForm("street"),
		City:       c.PostForm("city"),
		PostalCode: c.PostForm("postalCode"),
		State:      c.PostForm("province"),
		Country:    c.PostForm("country"),
	}
	if err := lead.Validate(); err != nil {
		s.render(c, http.StatusBadRequest, "lead_new.html", page{Title: "New Lead", Error: err.Error(), Picklists: Picklists})
		return
	}

	s.mu.Lock()
	s.seq++
	lead.ID = fmt.Sprintf("00Q%012d", s.seq)
	lead.CreatedAt = time.Now().UTC()
	s.leads = append(s.leads, lead)
	s.mu.Unlock()

	s.logger.Info("Lead created", zap.String("id", lead.ID), zap.String("name", lead.FullName()))
	c.Redirect(http.StatusFound, "/lightning/r/Lead/"+lead.ID+"/view")
}

func (s *Server) handleViewLead(c *gin.Context) {
	id := c.Param("id")
	for _, l := range s.Leads() {
		if l.ID == id {
			s.render(c, http.StatusOK, "lead_view.html", page{Title: l.FullName(), Lead: l})
			return
		}
	}
	c.String(http.StatusNotFound, "lead %s not found", id)
}

func (s *Server) handleAPILeads(c *gin.Context) {
	leads := s.Leads()
	if leads == nil {
		leads = []Lead{}
	}
	c.JSON(http.StatusOK, leads)
}

func (s *Server) handleAPIReset(c *gin.Context) {
	s.Reset()
	c.Status(http.StatusNoContent)
}

func newSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}
