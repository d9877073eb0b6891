package storetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/netobjects/netstore/model"
)

// ServerConfig configures the in-process resource server.
type ServerConfig struct {
	// JWTSecret enables bearer-token authentication when non-empty.
	// Tokens must be HS256-signed with this secret; see SignToken.
	JWTSecret string
	// VersionAttribute is the attribute used for optimistic concurrency
	// checks. Defaults to "rev".
	VersionAttribute string
}

// Server is an in-process HTTP resource API speaking the conventions the
// REST client expects: JSON objects with an "id" attribute, list
// filtering via the "filter"/"sort"/"limit"/"offset" query parameters,
// and a version attribute checked on update.
type Server struct {
	cfg    ServerConfig
	httpS  *httptest.Server
	engine *gin.Engine

	mu        sync.Mutex
	data      map[string]map[string]map[string]any
	nextID    int
	requests  int
	failHTTP  int
	failLeft  int
	pathFails map[string]int
}

// NewServer starts a resource server. Callers must Close it.
func NewServer(cfg ServerConfig) *Server {
	if cfg.VersionAttribute == "" {
		cfg.VersionAttribute = "rev"
	}
	gin.SetMode(gin.TestMode)

	s := &Server{
		cfg:       cfg,
		data:      make(map[string]map[string]map[string]any),
		pathFails: make(map[string]int),
	}

	engine := gin.New()
	engine.Use(s.countRequests, s.injectFailures)
	if cfg.JWTSecret != "" {
		engine.Use(s.requireBearer)
	}
	engine.GET("/:entity", s.handleList)
	engine.POST("/:entity", s.handleCreate)
	engine.GET("/:entity/:id", s.handleGetOrCount)
	engine.PATCH("/:entity/:id", s.handleUpdate)
	engine.DELETE("/:entity/:id", s.handleDelete)

	s.engine = engine
	s.httpS = httptest.NewServer(engine)
	return s
}

// URL returns the server's base URL.
func (s *Server) URL() string { return s.httpS.URL }

// Close shuts the server down.
func (s *Server) Close() { s.httpS.Close() }

// Requests returns the number of requests handled so far.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// ResetRequests zeroes the request counter.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = 0
}

// FailNext makes the next n requests fail with the given status.
func (s *Server) FailNext(status, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failHTTP = status
	s.failLeft = n
}

// FailPath makes every request to the given path (e.g. "/note/1") fail
// with the given status. A status of 0 clears the override.
func (s *Server) FailPath(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.pathFails, path)
		return
	}
	s.pathFails[path] = status
}

// Seed inserts an object directly. The id and version attributes are
// added to the stored object.
func (s *Server) Seed(entity, id string, values map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj := make(map[string]any, len(values)+2)
	for k, v := range values {
		obj[k] = v
	}
	obj[model.IDAttribute] = id
	obj[s.cfg.VersionAttribute] = float64(1)
	s.bucket(entity)[id] = obj
}

// Object returns a stored object for direct assertions.
func (s *Server) Object(entity, id string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.bucket(entity)[id]
	if !ok {
		return nil, false
	}
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = v
	}
	return out, true
}

// SignToken creates an HS256 bearer token the server accepts when
// configured with the same secret.
func SignToken(secret, subject string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	return token.SignedString([]byte(secret))
}

// --- middleware ---

func (s *Server) countRequests(c *gin.Context) {
	s.mu.Lock()
	s.requests++
	s.mu.Unlock()
	c.Next()
}

func (s *Server) injectFailures(c *gin.Context) {
	s.mu.Lock()
	status := s.pathFails[c.Request.URL.Path]
	if status == 0 && s.failLeft > 0 {
		s.failLeft--
		status = s.failHTTP
	}
	s.mu.Unlock()
	if status > 0 {
		c.AbortWithStatusJSON(status, gin.H{"error": "injected failure"})
		return
	}
	c.Next()
}

func (s *Server) requireBearer(c *gin.Context) {
	header := c.GetHeader("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	_, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.Next()
}

// --- handlers ---

func (s *Server) handleCreate(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entity := c.Param("entity")

	s.mu.Lock()
	s.nextID++
	id := strconv.Itoa(s.nextID)
	obj := make(map[string]any, len(body)+2)
	for k, v := range body {
		obj[k] = v
	}
	obj[model.IDAttribute] = id
	obj[s.cfg.VersionAttribute] = float64(1)
	s.bucket(entity)[id] = obj
	s.mu.Unlock()

	c.JSON(http.StatusCreated, obj)
}

func (s *Server) handleGetOrCount(c *gin.Context) {
	entity := c.Param("entity")
	id := c.Param("id")
	if id == "count" {
		s.handleCount(c, entity)
		return
	}

	s.mu.Lock()
	obj, ok := s.bucket(entity)[id]
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, obj)
}

func (s *Server) handleList(c *gin.Context) {
	records, err := s.query(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out := make([]map[string]any, len(records))
	for i, rec := range records {
		out[i] = rec
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleCount(c *gin.Context, entity string) {
	records, err := s.queryEntity(c, entity)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(records)})
}

func (s *Server) handleUpdate(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entity := c.Param("entity")
	id := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.bucket(entity)[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	current, _ := obj[s.cfg.VersionAttribute].(float64)
	if sent, ok := body[s.cfg.VersionAttribute]; ok {
		if sentV, ok := toFloat(sent); !ok || sentV != current {
			c.JSON(http.StatusConflict, gin.H{"error": "stale version"})
			return
		}
	}
	for k, v := range body {
		if k == model.IDAttribute || k == s.cfg.VersionAttribute {
			continue
		}
		obj[k] = v
	}
	obj[s.cfg.VersionAttribute] = current + 1
	c.JSON(http.StatusOK, obj)
}

func (s *Server) handleDelete(c *gin.Context) {
	entity := c.Param("entity")
	id := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bucket(entity)[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	delete(s.bucket(entity), id)
	c.Status(http.StatusNoContent)
}

// --- query evaluation ---

func (s *Server) query(c *gin.Context) ([]map[string]any, error) {
	return s.queryEntity(c, c.Param("entity"))
}

func (s *Server) queryEntity(c *gin.Context, entity string) ([]map[string]any, error) {
	var pred *model.Predicate
	if raw := c.Query("filter"); raw != "" {
		pred = &model.Predicate{}
		if err := json.Unmarshal([]byte(raw), pred); err != nil {
			return nil, fmt.Errorf("bad filter: %w", err)
		}
	}
	sortBy := parseSort(c.Query("sort"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	s.mu.Lock()
	var records []model.Record
	for id, obj := range s.bucket(entity) {
		snap := model.NewSnapshot(obj)
		if !pred.Matches(snap) {
			continue
		}
		records = append(records, model.Record{ID: model.NewObjectID(entity, id), Snapshot: snap})
	}
	s.mu.Unlock()

	model.SortRecords(records, sortBy)
	records = model.ClampRecords(records, offset, limit)

	out := make([]map[string]any, len(records))
	for i, rec := range records {
		out[i] = rec.Snapshot.Values
	}
	return out, nil
}

func parseSort(raw string) []model.SortDescriptor {
	if raw == "" {
		return nil
	}
	var descs []model.SortDescriptor
	for _, key := range strings.Split(raw, ",") {
		if attr, ok := strings.CutPrefix(key, "-"); ok {
			descs = append(descs, model.Desc(attr))
			continue
		}
		descs = append(descs, model.Asc(key))
	}
	return descs
}

func (s *Server) bucket(entity string) map[string]map[string]any {
	b, ok := s.data[entity]
	if !ok {
		b = make(map[string]map[string]any)
		s.data[entity] = b
	}
	return b
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}
