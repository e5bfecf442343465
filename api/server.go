// Package api provides the HTTP REST API server for TradeWinds.
//
// It exposes endpoints for trade insight synthesis, portfolio risk
// analytics, backtest narratives, strategy comparison, sentiment
// history, feedback, and WebSocket event streaming.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/seenimoa/tradewinds/internal/insight"
	"github.com/seenimoa/tradewinds/internal/llm"
	"github.com/seenimoa/tradewinds/internal/news"
	"github.com/seenimoa/tradewinds/internal/portfolio"
	"github.com/seenimoa/tradewinds/pkg/models"
)

// InsightService synthesizes narratives from gathered market context.
type InsightService interface {
	Insights(ctx context.Context, query string, tickers []string) (*models.InsightResult, error)
	BacktestNarrative(ctx context.Context, strategy string) (string, error)
	CompareStrategies(ctx context.Context, strategies []string) (string, error)
	BacktestVsLive(ctx context.Context, backtestData, liveData string) (*models.BacktestComparison, error)
}

// PortfolioService computes aggregate risk analytics.
type PortfolioService interface {
	Analyze(ctx context.Context, holdings []portfolio.Holding) (*models.PortfolioAnalytics, error)
}

// Config holds server settings.
type Config struct {
	CORSOrigins []string
	Version     string
}

// Server is the HTTP API server.
type Server struct {
	router    chi.Router
	cfg       Config
	insights  InsightService
	portfolio PortfolioService
	wsHub     *WSHub
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg Config, insights InsightService, pf PortfolioService) *Server {
	srv := &Server{
		cfg:       cfg,
		insights:  insights,
		portfolio: pf,
		wsHub:     NewWSHub(),
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.wsHub.Run()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.CORSOrigins) > 0 {
		origins = s.cfg.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/insights", s.handleInsights)
		r.Post("/portfolio-analytics", s.handlePortfolioAnalytics)
		r.Post("/backtest", s.handleBacktest)
		r.Post("/compare-strategies", s.handleCompareStrategies)
		r.Post("/backtest-vs-live", s.handleBacktestVsLive)
		r.Post("/feedback", s.handleFeedback)

		r.Get("/sentiment-history", s.handleSentimentHistory)

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// InsightsRequest is the body for POST /api/v1/insights. Indicators is
// accepted for forward compatibility; the full set is always computed
// and fields the series cannot support come back absent.
type InsightsRequest struct {
	Query      string   `json:"query"`
	Tickers    []string `json:"tickers"`
	Indicators []string `json:"indicators,omitempty"`
}

// PortfolioRequest is the body for POST /api/v1/portfolio-analytics.
// Holdings map symbol to quantity.
type PortfolioRequest struct {
	Holdings map[string]float64 `json:"holdings"`
}

// BacktestRequest is the body for POST /api/v1/backtest.
type BacktestRequest struct {
	Strategy string `json:"strategy"`
}

// CompareStrategiesRequest is the body for POST /api/v1/compare-strategies.
type CompareStrategiesRequest struct {
	Strategies []string `json:"strategies"`
}

// BacktestVsLiveRequest is the body for POST /api/v1/backtest-vs-live.
type BacktestVsLiveRequest struct {
	BacktestData string `json:"backtest_data"`
	LiveData     string `json:"live_data"`
}

// FeedbackRequest is the body for POST /api/v1/feedback.
type FeedbackRequest struct {
	Query    string `json:"query"`
	Rating   int    `json:"rating"`
	Comments string `json:"comments,omitempty"`
}

// APIError is the structured error payload. Kind is machine-readable;
// clients must not parse Message.
type APIError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError, optionally with the stats gathered
// before the failure.
type ErrorResponse struct {
	Error APIError                   `json:"error"`
	Stats map[string]models.StockInfo `json:"stats,omitempty"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "TradeWinds insight service is running.",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	version := s.cfg.Version
	if version == "" {
		version = "dev"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version,
	})
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	var req InsightsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
		return
	}

	result, err := s.insights.Insights(r.Context(), req.Query, req.Tickers)
	if err != nil {
		status, kind := classifyError(err)
		resp := ErrorResponse{Error: APIError{Kind: kind, Message: err.Error()}}
		if result != nil {
			// Gathered context survives a synthesis failure.
			resp.Stats = result.Stats
		}
		writeJSON(w, status, resp)
		return
	}

	s.wsHub.Broadcast(WSMessage{
		Type: "insight_complete",
		Data: map[string]interface{}{"tickers": req.Tickers},
	})

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePortfolioAnalytics(w http.ResponseWriter, r *http.Request) {
	var req PortfolioRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
		return
	}
	if len(req.Holdings) == 0 {
		req.Holdings = map[string]float64{"AAPL": 10, "MSFT": 5}
	}

	analytics, err := s.portfolio.Analyze(r.Context(), holdingsFromMap(req.Holdings))
	if err != nil {
		status, kind := classifyError(err)
		writeError(w, status, kind, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, analytics)
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
		return
	}

	result, err := s.insights.BacktestNarrative(r.Context(), req.Strategy)
	if err != nil {
		status, kind := classifyError(err)
		writeError(w, status, kind, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"backtest_result": result})
}

func (s *Server) handleCompareStrategies(w http.ResponseWriter, r *http.Request) {
	var req CompareStrategiesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
		return
	}

	comparison, err := s.insights.CompareStrategies(r.Context(), req.Strategies)
	if err != nil {
		status, kind := classifyError(err)
		writeError(w, status, kind, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"comparison": comparison})
}

func (s *Server) handleBacktestVsLive(w http.ResponseWriter, r *http.Request) {
	var req BacktestVsLiveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
		return
	}

	comparison, err := s.insights.BacktestVsLive(r.Context(), req.BacktestData, req.LiveData)
	if err != nil {
		status, kind := classifyError(err)
		writeError(w, status, kind, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, comparison)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "query is required")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeError(w, http.StatusBadRequest, "invalid_input", "rating must be between 1 and 5")
		return
	}

	log.Printf("User feedback: rating=%d query=%q comments=%q", req.Rating, req.Query, req.Comments)

	s.wsHub.Broadcast(WSMessage{
		Type: "feedback_received",
		Data: map[string]interface{}{"rating": req.Rating},
	})

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Thank you for your feedback!",
	})
}

func (s *Server) handleSentimentHistory(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		topic = r.URL.Query().Get("news_topic")
	}
	if topic == "" {
		topic = "BTC NASDAQ market"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"history": news.SentimentHistory(topic, 10),
	})
}

// ============================================================
// Helpers
// ============================================================

func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}

// holdingsFromMap converts the wire form to holdings, ordered by symbol
// so validation errors are deterministic.
func holdingsFromMap(m map[string]float64) []portfolio.Holding {
	symbols := make([]string, 0, len(m))
	for s := range m {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	holdings := make([]portfolio.Holding, 0, len(m))
	for _, s := range symbols {
		holdings = append(holdings, portfolio.Holding{Symbol: s, Quantity: m[s]})
	}
	return holdings
}

// classifyError maps service errors to a status code and error kind.
func classifyError(err error) (int, string) {
	if errors.Is(err, insight.ErrInvalidInput) || errors.Is(err, portfolio.ErrInvalidInput) {
		return http.StatusBadRequest, "invalid_input"
	}
	if kind := llm.Kind(err); kind != llm.KindUnknown {
		return http.StatusBadGateway, kind
	}
	return http.StatusInternalServerError, "internal"
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, ErrorResponse{Error: APIError{Kind: kind, Message: msg}})
}

// ============================================================
// WebSocket Hub
// ============================================================

// WSMessage is a message sent over WebSocket connections.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// WSHub manages WebSocket connections and message broadcasting.
type WSHub struct {
	mu         sync.RWMutex
	clients    map[*WSClient]bool
	broadcast  chan WSMessage
	register   chan *WSClient
	unregister chan *WSClient
}

// WSClient represents a single WebSocket connection. A client may
// narrow its stream to a set of tickers with a subscribe message;
// without one it receives every event.
type WSClient struct {
	hub  *WSHub
	send chan WSMessage

	mu     sync.Mutex
	topics map[string]bool
}

// subscribe replaces the client's ticker filter. An empty list clears it.
func (c *WSClient) subscribe(tickers []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(tickers) == 0 {
		c.topics = nil
		return
	}
	c.topics = make(map[string]bool, len(tickers))
	for _, t := range tickers {
		c.topics[t] = true
	}
}

// wants reports whether the message passes the client's ticker filter.
// Events carrying no tickers go to everyone.
func (c *WSClient) wants(msg WSMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.topics) == 0 {
		return true
	}
	tickers := messageTickers(msg)
	if len(tickers) == 0 {
		return true
	}
	for _, t := range tickers {
		if c.topics[t] {
			return true
		}
	}
	return false
}

// messageTickers extracts the tickers list from an event payload,
// tolerating both the in-process form and decoded JSON.
func messageTickers(msg WSMessage) []string {
	data, ok := msg.Data.(map[string]interface{})
	if !ok {
		return nil
	}
	switch v := data["tickers"].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan WSMessage, 256),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
	}
}

// Run starts the hub event loop.
func (h *WSHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.wants(msg) {
					continue
				}
				select {
				case client.send <- msg:
				default:
					// Slow client; disconnect
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends a message to all connected WebSocket clients.
func (h *WSHub) Broadcast(msg WSMessage) {
	select {
	case h.broadcast <- msg:
	default:
		// Drop message if broadcast channel is full
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub.
func (h *WSHub) Register(client *WSClient) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *WSHub) Unregister(client *WSClient) {
	h.unregister <- client
}
