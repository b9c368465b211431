// Package api provides the read-only HTTP and WebSocket endpoints of the oracle service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/StrathCole/chainlink-oracle-go/pkg/composer"
	"github.com/StrathCole/chainlink-oracle-go/pkg/factory"
	"github.com/StrathCole/chainlink-oracle-go/pkg/feeds"
	"github.com/StrathCole/chainlink-oracle-go/pkg/fixed"
	"github.com/StrathCole/chainlink-oracle-go/pkg/logging"
	"github.com/StrathCole/chainlink-oracle-go/pkg/metrics"
	"github.com/StrathCole/chainlink-oracle-go/pkg/oracle"
	"github.com/StrathCole/chainlink-oracle-go/pkg/symbol"
	"github.com/StrathCole/chainlink-oracle-go/pkg/version"
)

// Server represents the HTTP API server.
type Server struct {
	addr      string
	registry  *feeds.Registry
	composer  *composer.Composer
	factories []*factory.Factory
	timeout   time.Duration
	server    *http.Server
	logger    *logging.Logger

	certFile string
	keyFile  string
}

// NewServer creates a new HTTP API server.
func NewServer(addr string, registry *feeds.Registry, factories []*factory.Factory, timeout time.Duration, logger *logging.Logger) *Server {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.NewNoopLogger()
	}
	return &Server{
		addr:      addr,
		registry:  registry,
		composer:  composer.New(registry),
		factories: factories,
		timeout:   timeout,
		logger:    logger.With("component", "http_api"),
	}
}

// SetTLS serves HTTPS with the given certificate and key.
func (s *Server) SetTLS(certFile, keyFile string) {
	s.certFile = certFile
	s.keyFile = keyFile
}

// Handler returns the routed API handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.instrument("/health", s.handleHealth))
	mux.HandleFunc("GET /v1/feeds", s.instrument("/v1/feeds", s.handleFeeds))
	mux.HandleFunc("GET /v1/rate", s.instrument("/v1/rate", s.handleRate))
	mux.HandleFunc("GET /v1/symbols/{symbol}", s.instrument("/v1/symbols/{symbol}", s.handleSymbol))
	mux.HandleFunc("GET /v1/factories", s.instrument("/v1/factories", s.handleFactories))
	mux.HandleFunc("GET /v1/oracles", s.instrument("/v1/oracles", s.handleOracles))
	mux.HandleFunc("GET /v1/oracles/{symbol}", s.instrument("/v1/oracles/{symbol}", s.handleOracle))
	mux.HandleFunc("GET /v1/oracles/{symbol}/sample", s.instrument("/v1/oracles/{symbol}/sample", s.handleSample))
	return mux
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("Starting HTTP server", "addr", s.addr, "tls", s.certFile != "")
	var err error
	if s.certFile != "" {
		err = s.server.ListenAndServeTLS(s.certFile, s.keyFile)
	} else {
		err = s.server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		s.logger.Info("Stopping HTTP server")
		return s.server.Shutdown(ctx)
	}
	return nil
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// instrument records request count and latency for endpoint.
func (s *Server) instrument(endpoint string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		h(sw, r)
		metrics.RecordHTTPRequest(endpoint, strconv.Itoa(sw.status), time.Since(start))
	}
}

// handleHealth handles /health endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"version":   version.Version,
		"feeds":     s.registry.Len(),
		"factories": len(s.factories),
	})
}

// FeedResponse describes one registered binding.
type FeedResponse struct {
	Base       string `json:"base"`
	Quote      string `json:"quote"`
	Aggregator string `json:"aggregator"`
	ScaleBase  uint8  `json:"scale_base"`
	ScaleQuote uint8  `json:"scale_quote"`
}

func (s *Server) handleFeeds(w http.ResponseWriter, _ *http.Request) {
	bindings := s.registry.Bindings()
	out := make([]FeedResponse, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, FeedResponse{
			Base:       b.Base.String(),
			Quote:      b.Quote.String(),
			Aggregator: b.Aggregator.Address().Hex(),
			ScaleBase:  b.ScaleBase,
			ScaleQuote: b.ScaleQuote,
		})
	}
	s.sendJSON(w, http.StatusOK, out)
}

// RateResponse is the combined rate of a path.
type RateResponse struct {
	Path      []string `json:"path"`
	Rate      string   `json:"rate"`
	Decimals  uint8    `json:"decimals"`
	Value     string   `json:"value"`
	UpdatedAt uint64   `json:"updated_at"`
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	path, err := symbol.ParsePath(r.URL.Query().Get("path"))
	if err != nil {
		s.sendError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	rate, err := s.composer.Rate(ctx, path)
	if err != nil {
		s.sendError(w, statusFor(err), err)
		return
	}
	ts, err := s.composer.Timestamp(ctx, path)
	if err != nil {
		s.sendError(w, statusFor(err), err)
		return
	}

	s.sendJSON(w, http.StatusOK, RateResponse{
		Path:      path.Strings(),
		Rate:      rate.Value.String(),
		Decimals:  rate.Decimals,
		Value:     rate.String(),
		UpdatedAt: ts,
	})
}

// SymbolResponse reports the decimals recorded for a symbol.
type SymbolResponse struct {
	Symbol        string `json:"symbol"`
	Hex           string `json:"hex"`
	Multiplier    uint8  `json:"multiplier"`
	AddedDecimals string `json:"added_decimals"`
}

func (s *Server) handleSymbol(w http.ResponseWriter, r *http.Request) {
	sym, err := symbol.FromString(r.PathValue("symbol"))
	if err != nil {
		s.sendError(w, http.StatusBadRequest, err)
		return
	}
	s.sendJSON(w, http.StatusOK, SymbolResponse{
		Symbol:        sym.String(),
		Hex:           sym.Hex(),
		Multiplier:    s.registry.Multiplier(sym),
		AddedDecimals: s.registry.AddedDecimals(sym).String(),
	})
}

// FactoryResponse describes a factory.
type FactoryResponse struct {
	Name         string `json:"name"`
	BaseSymbol   string `json:"base_symbol"`
	BaseDecimals uint8  `json:"base_decimals"`
	Paused       bool   `json:"paused"`
	Pauser       string `json:"pauser,omitempty"`
	Oracles      int    `json:"oracles"`
}

func (s *Server) handleFactories(w http.ResponseWriter, _ *http.Request) {
	out := make([]FactoryResponse, 0, len(s.factories))
	for _, f := range s.factories {
		resp := FactoryResponse{
			Name:         f.Name(),
			BaseSymbol:   f.BaseSymbol(),
			BaseDecimals: f.BaseDecimals(),
			Paused:       f.Paused(),
			Oracles:      len(f.Oracles()),
		}
		if p := f.Pauser(); p != (common.Address{}) {
			resp.Pauser = p.Hex()
		}
		out = append(out, resp)
	}
	s.sendJSON(w, http.StatusOK, out)
}

// OracleResponse is an oracle description tagged with its factory.
type OracleResponse struct {
	Factory string `json:"factory"`
	oracle.Info
}

func (s *Server) handleOracles(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("factory")
	out := make([]OracleResponse, 0)
	for _, f := range s.factories {
		if name != "" && f.Name() != name {
			continue
		}
		for _, o := range f.Oracles() {
			out = append(out, OracleResponse{Factory: f.Name(), Info: o.Info()})
		}
	}
	s.sendJSON(w, http.StatusOK, out)
}

// lookup finds an oracle by symbol, optionally restricted to the factory named in the query.
func (s *Server) lookup(r *http.Request) (*factory.Factory, *oracle.Instance, bool) {
	sym := r.PathValue("symbol")
	name := r.URL.Query().Get("factory")
	for _, f := range s.factories {
		if name != "" && f.Name() != name {
			continue
		}
		if o, ok := f.Oracle(sym); ok {
			return f, o, true
		}
	}
	return nil, nil, false
}

func (s *Server) handleOracle(w http.ResponseWriter, r *http.Request) {
	f, o, ok := s.lookup(r)
	if !ok {
		s.sendError(w, http.StatusNotFound, fmt.Errorf("%w: %s", factory.ErrUnknownOracle, r.PathValue("symbol")))
		return
	}
	s.sendJSON(w, http.StatusOK, OracleResponse{Factory: f.Name(), Info: o.Info()})
}

// SampleResponse is one oracle read.
type SampleResponse struct {
	Factory    string `json:"factory"`
	Symbol     string `json:"symbol"`
	Tokens     string `json:"tokens"`
	Equivalent string `json:"equivalent"`
	Rate       string `json:"rate"`
	UpdatedAt  uint64 `json:"updated_at"`
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	f, o, ok := s.lookup(r)
	if !ok {
		s.sendError(w, http.StatusNotFound, fmt.Errorf("%w: %s", factory.ErrUnknownOracle, r.PathValue("symbol")))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	tokens, equivalent, err := o.ReadSample(ctx, nil)
	if err != nil {
		s.sendError(w, statusFor(err), err)
		return
	}
	ts, err := o.LatestTimestamp(ctx)
	if err != nil {
		s.sendError(w, statusFor(err), err)
		return
	}

	// target units per base unit, both at their own precision
	rate := decimal.NewFromBigInt(equivalent, 0).
		DivRound(decimal.NewFromBigInt(tokens, 0), 18).
		Mul(fixed.ToDecimal(f.BaseUnits(), o.Decimals()))

	s.sendJSON(w, http.StatusOK, SampleResponse{
		Factory:    f.Name(),
		Symbol:     o.Symbol(),
		Tokens:     tokens.String(),
		Equivalent: equivalent.String(),
		Rate:       rate.String(),
		UpdatedAt:  ts,
	})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, feeds.ErrPathNotResolved):
		return http.StatusNotFound
	case errors.Is(err, oracle.ErrPaused):
		return http.StatusServiceUnavailable
	case errors.Is(err, symbol.ErrPathTooShort),
		errors.Is(err, symbol.ErrDuplicateSymbol),
		errors.Is(err, symbol.ErrEmptySymbol),
		errors.Is(err, symbol.ErrSymbolTooLong),
		errors.Is(err, symbol.ErrInvalidSymbol):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// sendJSON sends a JSON response.
func (s *Server) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (s *Server) sendError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Warn("Request failed", "status", status, "error", err)
	}
	s.sendJSON(w, status, map[string]string{"error": err.Error()})
}
