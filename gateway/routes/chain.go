package routes

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"fdchain/core"
	"fdchain/core/types"
	"fdchain/services/indexer"
)

// EventQuerier serves indexed events.
type EventQuerier interface {
	Query(ctx context.Context, filter indexer.Filter) ([]indexer.Event, error)
}

type chainRoutes struct {
	runtime *core.Runtime
	events  EventQuerier
	logger  *slog.Logger
}

func (cr *chainRoutes) mount(r chi.Router) {
	r.Get("/accounts/{address}", cr.getAccount)
	r.Get("/chain/height", cr.getHeight)
	r.Get("/events", cr.listEvents)
}

func (cr *chainRoutes) getAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := addressParam(r, "address")
	if err != nil {
		writeJSONError(w, err)
		return
	}
	var (
		account   *types.Account
		spendable string
	)
	err = cr.runtime.View(func(call *core.Call) error {
		var err error
		if account, err = call.Ledger.Account(addr); err != nil {
			return err
		}
		available, err := call.Ledger.Spendable(addr)
		spendable = amountString(available)
		return err
	})
	if err != nil {
		writeJSONError(w, err)
		return
	}
	locks := make([]map[string]string, 0, len(account.Locks))
	for _, lock := range account.Locks {
		locks = append(locks, map[string]string{
			"id":     strings.TrimSpace(lock.ID.String()),
			"amount": amountString(lock.Amount),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"address":   addr.String(),
		"free":      amountString(account.Free),
		"reserved":  amountString(account.Reserved),
		"spendable": spendable,
		"locks":     locks,
	})
}

func (cr *chainRoutes) getHeight(w http.ResponseWriter, r *http.Request) {
	height, err := cr.runtime.Height()
	if err != nil {
		writeJSONError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"height": height})
}

func (cr *chainRoutes) listEvents(w http.ResponseWriter, r *http.Request) {
	if cr.events == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "event indexer disabled"})
		return
	}
	query := r.URL.Query()
	filter := indexer.Filter{
		Account: firstNonEmpty(query.Get("account"), query.Get("depositor")),
		Type:    query.Get("type"),
	}
	if raw := query.Get("fromHeight"); raw != "" {
		height, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeJSONError(w, badRequest("invalid fromHeight %q", raw))
			return
		}
		filter.FromHeight = height
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeJSONError(w, badRequest("invalid limit %q", raw))
			return
		}
		filter.Limit = limit
	}
	events, err := cr.events.Query(r.Context(), filter)
	if err != nil {
		cr.logger.Error("event query failed", slog.Any("error", err))
		writeJSONError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

type adminRoutes struct {
	runtime *core.Runtime
	logger  *slog.Logger
}

func (ar *adminRoutes) mount(r chi.Router) {
	r.Get("/pauses", ar.getPauses)
	r.Post("/pauses", ar.setPause)
}

func (ar *adminRoutes) getPauses(w http.ResponseWriter, r *http.Request) {
	pauses, err := ar.runtime.Pauses()
	if err != nil {
		writeJSONError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"paused": pauses.Modules()})
}

func (ar *adminRoutes) setPause(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Module string `json:"module"`
		Paused bool   `json:"paused"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, err)
		return
	}
	if strings.TrimSpace(req.Module) == "" {
		writeJSONError(w, badRequest("module required"))
		return
	}
	pauses, err := ar.runtime.SetPaused(req.Module, req.Paused)
	if err != nil {
		writeJSONError(w, err)
		return
	}
	ar.logger.Info("pause toggled via gateway",
		slog.String("module", req.Module),
		slog.Bool("paused", req.Paused))
	writeJSON(w, http.StatusOK, map[string][]string{"paused": pauses.Modules()})
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
