// Package fakestore is an in-process stand-in for the remote product catalog.
// It serves the same routes as fakestoreapi.com from memory so the client can
// be exercised offline and in tests.
package fakestore

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/huangsam/storefront/schema"
	"go.uber.org/zap"
)

// Server holds the catalog and the router that serves it.
type Server struct {
	mu       sync.RWMutex
	products []schema.CatalogEntry
	nextID   int

	router *mux.Router
	logger *zap.Logger

	requests atomic.Int64
	failMu   sync.Mutex
	failures []int // queued status codes returned before normal handling
	delay    atomic.Int64
}

// New creates a server seeded with products. A nil logger disables logging.
func New(products []schema.CatalogEntry, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		products: slices.Clone(products),
		logger:   logger,
	}
	for _, p := range s.products {
		s.nextID = max(s.nextID, p.ID)
	}
	s.nextID++
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logMiddleware, s.faultMiddleware)
	r.HandleFunc("/products", s.listProducts).Methods(http.MethodGet)
	r.HandleFunc("/products", s.createProduct).Methods(http.MethodPost)
	r.HandleFunc("/products/categories", s.listCategories).Methods(http.MethodGet)
	r.HandleFunc("/products/category/{name}", s.listByCategory).Methods(http.MethodGet)
	r.HandleFunc("/products/{id:[0-9]+}", s.getProduct).Methods(http.MethodGet)
	r.HandleFunc("/products/{id:[0-9]+}", s.updateProduct).Methods(http.MethodPut)
	r.HandleFunc("/products/{id:[0-9]+}", s.deleteProduct).Methods(http.MethodDelete)
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Requests returns how many requests reached the server.
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

// FailNext makes the next len(statuses) requests answer with the given codes.
func (s *Server) FailNext(statuses ...int) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.failures = append(s.failures, statuses...)
}

// SetDelay makes every request wait d before it is handled.
func (s *Server) SetDelay(d time.Duration) {
	s.delay.Store(int64(d))
}

// Products returns a snapshot of the current catalog.
func (s *Server) Products() []schema.CatalogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.products)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("fakestore request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", r.Header.Get("X-Request-ID")),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func (s *Server) faultMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d := time.Duration(s.delay.Load()); d > 0 {
			select {
			case <-time.After(d):
			case <-r.Context().Done():
				return
			}
		}
		s.failMu.Lock()
		var status int
		if len(s.failures) > 0 {
			status = s.failures[0]
			s.failures = s.failures[1:]
		}
		s.failMu.Unlock()
		if status != 0 {
			writeError(w, status, http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	products := s.Products()
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit >= 0 && limit < len(products) {
		products = products[:limit]
	}
	if r.URL.Query().Get("sort") == "desc" {
		slices.Reverse(products)
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) listCategories(w http.ResponseWriter, _ *http.Request) {
	var categories []string
	for _, p := range s.Products() {
		if !slices.Contains(categories, p.Category) {
			categories = append(categories, p.Category)
		}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) listByCategory(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	matches := []schema.CatalogEntry{}
	for _, p := range s.Products() {
		if p.Category == name {
			matches = append(matches, p)
		}
	}
	writeJSON(w, http.StatusOK, matches)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexOf(id)
	if idx < 0 {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, s.products[idx])
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var draft schema.ProductDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid product body")
		return
	}
	if draft.Title == "" || draft.Price < 0 {
		writeError(w, http.StatusBadRequest, "title is required and price must not be negative")
		return
	}

	s.mu.Lock()
	entry := schema.CatalogEntry{
		ID:          s.nextID,
		Title:       draft.Title,
		Price:       draft.Price,
		Description: draft.Description,
		Category:    draft.Category,
		Image:       draft.Image,
	}
	s.nextID++
	s.products = append(s.products, entry)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	var patch schema.ProductPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid product body")
		return
	}
	if patch.Price != nil && *patch.Price < 0 {
		writeError(w, http.StatusBadRequest, "price must not be negative")
		return
	}

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	s.products[idx] = patch.ApplyTo(s.products[idx])
	entry := s.products[idx]
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	entry := s.products[idx]
	s.products = slices.Delete(s.products, idx, idx+1)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, entry)
}

// indexOf must be called with mu held.
func (s *Server) indexOf(id int) int {
	return slices.IndexFunc(s.products, func(p schema.CatalogEntry) bool { return p.ID == id })
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
