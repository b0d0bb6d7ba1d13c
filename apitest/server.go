package apitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// HeaderRequestID is echoed back on every response.
const HeaderRequestID = "X-Request-Id"

// Call is a request observed by the server.
type Call struct {
	Method         string
	Path           string
	Query          string
	Authorization  string
	RequestID      string
	AcceptEncoding string
	Accept         string
	UserAgent      string
	Proto          string
}

// File is a downloadable resource.
type File struct {
	Mime string
	Data []byte
}

// Server is a fake cloud API backed by gin.
type Server struct {
	*httptest.Server

	secret []byte
	now    func() time.Time

	mu          sync.Mutex
	calls       []Call
	files       map[string]File
	whoamiFails int
	username    string
}

// Option configures a Server.
type Option func(*Server)

// WithClock sets the time used for issued tokens.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithUsername sets the username claim of issued tokens.
func WithUsername(name string) Option {
	return func(s *Server) { s.username = name }
}

// New starts a server. It speaks HTTP/1.1 and cleartext HTTP/2.
func New(opts ...Option) *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		secret:   []byte("apitest-" + uuid.NewString()),
		now:      time.Now,
		files:    make(map[string]File),
		username: "jviotti",
	}
	for _, opt := range opts {
		opt(s)
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.record(), requestID())

	engine.GET("/whoami", s.handleWhoami)
	engine.Any("/status/:code", handleStatus)
	engine.GET("/files/:name", s.handleFile)

	v1 := engine.Group("/v1", s.requireAuth())
	v1.GET("/echo", handleEcho)
	v1.POST("/echo", handleEcho)
	v1.GET("/files/:name", s.handleFile)

	s.Server = httptest.NewServer(h2c.NewHandler(engine, &http2.Server{}))
	return s
}

// AddFile registers data for download under /files/name and /v1/files/name.
func (s *Server) AddFile(name, mime string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = File{Mime: mime, Data: data}
}

// FailWhoami makes the next n /whoami calls answer 500.
func (s *Server) FailWhoami(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.whoamiFails = n
}

// Calls returns the recorded requests in arrival order.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsTo returns the recorded requests for path.
func (s *Server) CallsTo(path string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded requests.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// IssueToken signs a token issued at iat.
func (s *Server) IssueToken(iat time.Time) string {
	claims := jwt.MapClaims{
		"iat":      iat.Unix(),
		"sub":      s.username,
		"username": s.username,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(fmt.Sprintf("apitest: sign token: %v", err))
	}
	return signed
}

func (s *Server) record() gin.HandlerFunc {
	return func(c *gin.Context) {
		r := c.Request
		s.mu.Lock()
		s.calls = append(s.calls, Call{
			Method:         r.Method,
			Path:           r.URL.Path,
			Query:          r.URL.RawQuery,
			Authorization:  r.Header.Get("Authorization"),
			RequestID:      r.Header.Get(HeaderRequestID),
			AcceptEncoding: r.Header.Get("Accept-Encoding"),
			Accept:         r.Header.Get("Accept"),
			UserAgent:      r.UserAgent(),
			Proto:          r.Proto,
		})
		s.mu.Unlock()
		c.Next()
	}
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || raw == "" {
			abortWithText(c, http.StatusUnauthorized, "Authentication required")
			return
		}
		_, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			abortWithText(c, http.StatusUnauthorized, "Invalid token")
			return
		}
		c.Next()
	}
}

func (s *Server) handleWhoami(c *gin.Context) {
	s.mu.Lock()
	fail := s.whoamiFails > 0
	if fail {
		s.whoamiFails--
	}
	s.mu.Unlock()

	if fail {
		abortWithText(c, http.StatusInternalServerError, "Token service unavailable")
		return
	}
	c.JSON(http.StatusOK, s.IssueToken(s.now()))
}

// handleStatus answers with the status in the path. ?text= sets an
// {"error":{"text":...}} body and ?raw= a plain body; neither leaves it empty.
func handleStatus(c *gin.Context) {
	code, err := strconv.Atoi(c.Param("code"))
	if err != nil || code < 100 || code > 599 {
		abortWithText(c, http.StatusBadRequest, "Invalid status code")
		return
	}
	switch {
	case c.Query("text") != "":
		abortWithText(c, code, c.Query("text"))
	case c.Query("raw") != "":
		c.Data(code, "text/plain; charset=utf-8", []byte(c.Query("raw")))
	default:
		c.Status(code)
	}
}

// handleFile serves a registered file. ?chunked=1 omits Content-Length.
func (s *Server) handleFile(c *gin.Context) {
	s.mu.Lock()
	f, ok := s.files[c.Param("name")]
	s.mu.Unlock()
	if !ok {
		c.Data(http.StatusNotFound, "text/plain; charset=utf-8", []byte("File not found: "+c.Param("name")))
		return
	}

	c.Header("Content-Type", f.Mime)
	if c.Query("chunked") == "" {
		c.Header("Content-Length", strconv.Itoa(len(f.Data)))
		c.Status(http.StatusOK)
		_, _ = c.Writer.Write(f.Data)
		return
	}

	c.Status(http.StatusOK)
	const chunk = 512
	for off := 0; off < len(f.Data); off += chunk {
		end := min(off+chunk, len(f.Data))
		_, _ = c.Writer.Write(f.Data[off:end])
		c.Writer.Flush()
	}
}

type echoResponse struct {
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body,omitempty"`
}

func handleEcho(c *gin.Context) {
	resp := echoResponse{
		Method:  c.Request.Method,
		Path:    c.Request.URL.Path,
		Headers: make(map[string]string, len(c.Request.Header)),
	}
	for k := range c.Request.Header {
		resp.Headers[k] = c.Request.Header.Get(k)
	}
	if c.Request.Body != nil {
		body, _ := c.GetRawData()
		resp.Body = string(body)
	}
	c.JSON(http.StatusOK, resp)
}

func abortWithText(c *gin.Context, code int, text string) {
	c.AbortWithStatusJSON(code, gin.H{"error": gin.H{"text": text}})
}
