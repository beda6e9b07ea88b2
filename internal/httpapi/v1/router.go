package v1

import (
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/oysterfarm/books/internal/ledger"
	"github.com/oysterfarm/books/internal/service/account"
	"github.com/oysterfarm/books/internal/service/journal"
	"github.com/oysterfarm/books/internal/service/report"
)

// Server wires handlers and middleware using Chi.
// It composes read (repo) and write (writer) dependencies through services.
type Server struct {
	journalSvc journal.Service
	accountSvc account.Service
	reportSvc  report.Service
	ready      Readier
	currency   string
	log        *slog.Logger
	rt         *chi.Mux
}

// New constructs the HTTP server with routes and middleware. templates is the
// compiled template set shared with the journal service; currency is the
// display currency code for formatted amounts (defaults to IDR).
func New(jrepo journal.Repo, jwriter journal.Writer, arepo account.Repo, awriter account.Writer, rrepo report.Repo, templates map[string]ledger.CompiledTemplate, ready Readier, currency string, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	if currency == "" {
		currency = "IDR"
	}
	jsvc := journal.New(jrepo, jwriter, templates)
	s := &Server{
		journalSvc: jsvc,
		accountSvc: account.New(arepo, awriter),
		reportSvc:  report.New(rrepo, jsvc, jsvc),
		ready:      ready,
		currency:   currency,
		log:        logger,
		rt:         r,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints.
func (s *Server) routes() {
	// Accounts
	s.rt.Post("/v1/accounts", s.postAccount)
	s.rt.Get("/v1/accounts", s.listAccounts)
	s.rt.Get("/v1/accounts/{id}", s.getAccount)
	s.rt.Delete("/v1/accounts/{id}", s.deleteAccount)
	s.rt.Get("/v1/accounts/{id}/balance", s.getAccountBalance)
	// Opening balances
	s.rt.Get("/v1/opening-balances", s.getOpeningBalances)
	s.rt.Put("/v1/opening-balances", s.putOpeningBalances)
	s.rt.Post("/v1/opening-balances/repair", s.repairOpeningBalances)
	// Entries (journal + adjusting via kind)
	s.rt.Post("/v1/entries", s.postEntry)
	s.rt.Post("/v1/entries/validate", s.validateEntry)
	s.rt.Get("/v1/entries", s.listEntries)
	s.rt.Get("/v1/entries/{id}", s.getEntry)
	s.rt.Delete("/v1/entries/{id}", s.deleteEntry)
	// Templates
	s.rt.Get("/v1/templates", s.listTemplates)
	s.rt.Get("/v1/templates/{key}", s.getTemplate)
	// Reports
	s.rt.Get("/v1/reports/trial-balance", s.trialBalance)
	s.rt.Get("/v1/reports/income-statement", s.incomeStatement)
	s.rt.Get("/v1/reports/balance-sheet", s.balanceSheet)
	s.rt.Get("/v1/reports/cash-flow", s.cashFlow)
	s.rt.Get("/v1/reports/equity", s.equityStatement)
	s.rt.Get("/v1/reports/post-closing-trial-balance", s.postClosingTrialBalance)
	// Closing
	s.rt.Get("/v1/closing/preview", s.closingPreview)
	s.rt.Post("/v1/closing", s.postClosing)
	// Inventory
	s.rt.Get("/v1/inventory/movements", s.listMovements)
	s.rt.Get("/v1/inventory/stock", s.currentStock)
	s.rt.Get("/v1/inventory/stock/recomputed", s.recomputedStock)
	// Health and metrics (unversioned)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Method(http.MethodGet, "/metrics", metricsHandler())
}
