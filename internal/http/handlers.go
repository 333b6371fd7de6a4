package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"insights/internal/core"
	"insights/internal/llm"
)

func (s *Server) handleCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := ParseCustomerID(r.PathValue("id"))
	if err != nil {
		BadRequestError(err.Error()).Write(r.Context(), w)
		return
	}
	metric := core.MetricSummary
	if r.URL.Query().Get("view") == "transactions" {
		metric = core.MetricTransactionHistory
	}
	s.routeQuery(w, r, core.Intent{Kind: core.KindCustomer, CustomerID: core.CustomerIDOf(id), Metric: string(metric)})
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	s.routeQuery(w, r, core.Intent{Kind: core.KindProduct, ProductID: &id, Metric: string(core.MetricSummary)})
}

// handleMetric serves one business metric endpoint.
func (s *Server) handleMetric(metric core.Metric) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		intent := core.Intent{Kind: core.KindBusinessMetric, Metric: string(metric)}
		if metric == core.MetricTopCustomers || metric == core.MetricTopProducts {
			intent.TopN = ParseLimitParam(r.URL.Query())
		}
		s.routeQuery(w, r, intent)
	}
}

// routeQuery attaches the from/to range to intent and routes it. Every
// routed status is a 200; only request and infrastructure errors are not.
func (s *Server) routeQuery(w http.ResponseWriter, r *http.Request, intent core.Intent) {
	token, err := ParseRangeParams(r.URL.Query())
	if err != nil {
		errorFor(r.Context(), err).Write(r.Context(), w)
		return
	}
	intent.DateRange = token

	res, err := s.svc.Route(r.Context(), intent)
	if err != nil {
		errorFor(r.Context(), err).Write(r.Context(), w)
		return
	}
	NewJSONResponse().Body(res).Write(r.Context(), w)
}

// handleRoute accepts a structured intent.
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var intent core.Intent
	if err := decodeJSON(w, r, &intent); err != nil {
		BadRequestError(err.Error()).Write(r.Context(), w)
		return
	}
	res, err := s.svc.Route(r.Context(), intent)
	if err != nil {
		errorFor(r.Context(), err).Write(r.Context(), w)
		return
	}
	NewJSONResponse().Body(res).Write(r.Context(), w)
}

type chatRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError("Field 'query' (non-empty string) is required.").Write(r.Context(), w)
		return
	}

	resp, err := s.svc.Chat(r.Context(), req.Query)
	if err != nil {
		b := errorFor(r.Context(), err)
		if errors.Is(err, llm.ErrAnswerGeneration) {
			body := b.body.(ErrorBody)
			body.Intent, body.Data = &resp.Intent, &resp.Result
			b.Body(body)
		}
		b.Write(r.Context(), w)
		return
	}
	NewJSONResponse().Body(resp).Write(r.Context(), w)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			ErrorResponse(http.StatusServiceUnavailable, "NotReady", err.Error()).Write(r.Context(), w)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(http.StatusTooManyRequests, "RateLimited", "Rate limit exceeded. Please try again later.").
		Write(r.Context(), w)
}
