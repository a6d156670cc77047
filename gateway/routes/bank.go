package routes

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fdchain/core"
	"fdchain/crypto"
	"fdchain/gateway/middleware"
	"fdchain/native/bank"
	"fdchain/observability"
)

// bankRoutes exposes the fixed deposit module over HTTP.
type bankRoutes struct {
	runtime *core.Runtime
	metrics *observability.BankMetrics
	logger  *slog.Logger
}

func (br *bankRoutes) mount(r chi.Router, auth *middleware.Authenticator) {
	r.Get("/params", br.getParams)
	r.Get("/treasury", br.getTreasury)
	r.Get("/depositors/{address}/deposits/{id}", br.getDeposit)
	r.Get("/depositors/{address}", br.getDepositor)
	r.Get("/depositors/{address}/deposits", br.listDeposits)
	r.Get("/dao/lock/{address}", br.getDAOLock)

	r.Group(func(sr chi.Router) {
		sr.Use(auth.Middleware())
		sr.Post("/deposits", br.openDeposit)
		sr.Post("/deposits/{id}/close", br.closeDeposit)
		sr.Get("/deposits/{id}/quote", br.quoteClose)
		sr.Post("/dao/lock", br.lockForDAO)
		sr.Delete("/dao/lock", br.unlockDAO)
	})

	r.Group(func(sr chi.Router) {
		sr.Use(auth.Middleware(middleware.ScopeAdmin))
		sr.Post("/params", br.setParams)
		sr.Put("/treasury", br.setTreasury)
		sr.Delete("/treasury", br.resetTreasury)
	})
}

func (br *bankRoutes) fail(w http.ResponseWriter, operation string, err error) {
	if !errors.Is(err, errBadRequest) {
		br.metrics.RecordFailure(operation, err)
	}
	br.logger.Debug("bank request rejected", slog.String("operation", operation), slog.Any("error", err))
	writeJSONError(w, err)
}

// caller resolves the signed origin from the authenticated token subject.
func caller(r *http.Request) (crypto.Address, error) {
	subject, ok := middleware.SubjectFromContext(r.Context())
	if !ok {
		return crypto.Address{}, bank.ErrUnsignedOrigin
	}
	addr, err := crypto.ParseAddress(subject)
	if err != nil {
		return crypto.Address{}, badRequest("token subject is not an address: %v", err)
	}
	return addr, nil
}

type paramsPayload struct {
	InterestRate         string `json:"interestRate"`
	PenaltyRate          string `json:"penaltyRate"`
	CompoundingFrequency uint32 `json:"compoundingFrequency"`
	EpochLength          uint64 `json:"epochLength"`
}

type paramsResponse struct {
	InterestRate         bank.Permill `json:"interestRate"`
	InterestPercent      string       `json:"interestPercent"`
	PenaltyRate          bank.Permill `json:"penaltyRate"`
	PenaltyPercent       string       `json:"penaltyPercent"`
	CompoundingFrequency uint32       `json:"compoundingFrequency"`
	EpochLength          uint64       `json:"epochLength"`
}

func newParamsResponse(p bank.Params) paramsResponse {
	return paramsResponse{
		InterestRate:         p.InterestRate,
		InterestPercent:      p.InterestRate.String(),
		PenaltyRate:          p.PenaltyRate,
		PenaltyPercent:       p.PenaltyRate.String(),
		CompoundingFrequency: p.CompoundingFrequency,
		EpochLength:          p.EpochLength,
	}
}

type depositResponse struct {
	Depositor      string `json:"depositor"`
	ID             uint64 `json:"id"`
	Principal      string `json:"principal"`
	OpenedAt       uint64 `json:"openedAt"`
	MaturityPeriod uint64 `json:"maturityPeriod"`
	MaturesAt      uint64 `json:"maturesAt"`
}

func newDepositResponse(d *bank.Deposit) depositResponse {
	return depositResponse{
		Depositor:      d.Depositor.String(),
		ID:             d.ID,
		Principal:      amountString(d.Principal),
		OpenedAt:       d.OpenedAt,
		MaturityPeriod: d.MaturityPeriod,
		MaturesAt:      d.MaturesAt(),
	}
}

type settlementResponse struct {
	Deposit  depositResponse `json:"deposit"`
	Matured  bool            `json:"matured"`
	Elapsed  uint64          `json:"elapsed"`
	Interest string          `json:"interest"`
	Penalty  string          `json:"penalty"`
	ClosedAt uint64          `json:"closedAt"`
}

func newSettlementResponse(s *bank.Settlement) settlementResponse {
	return settlementResponse{
		Deposit:  newDepositResponse(s.Deposit),
		Matured:  s.Matured,
		Elapsed:  s.Elapsed,
		Interest: amountString(s.Interest),
		Penalty:  amountString(s.Penalty),
		ClosedAt: s.ClosedAt,
	}
}

func (br *bankRoutes) getParams(w http.ResponseWriter, r *http.Request) {
	var (
		params bank.Params
		ok     bool
	)
	err := br.runtime.View(func(call *core.Call) error {
		var err error
		params, ok, err = call.Bank.Params()
		return err
	})
	if err != nil {
		br.fail(w, "params", err)
		return
	}
	if !ok {
		br.fail(w, "params", bank.ErrParamsNotSet)
		return
	}
	writeJSON(w, http.StatusOK, newParamsResponse(params))
}

func (br *bankRoutes) setParams(w http.ResponseWriter, r *http.Request) {
	var req paramsPayload
	if err := decodeJSON(r, &req); err != nil {
		br.fail(w, "set_params", err)
		return
	}
	interest, err := bank.ParsePermill(req.InterestRate)
	if err != nil {
		br.fail(w, "set_params", badRequest("interestRate: %v", err))
		return
	}
	penalty, err := bank.ParsePermill(req.PenaltyRate)
	if err != nil {
		br.fail(w, "set_params", badRequest("penaltyRate: %v", err))
		return
	}
	params := bank.Params{
		InterestRate:         interest,
		PenaltyRate:          penalty,
		CompoundingFrequency: req.CompoundingFrequency,
		EpochLength:          req.EpochLength,
	}
	err = br.runtime.Execute(func(call *core.Call) error {
		return call.Bank.SetParams(bank.RootOrigin(), params)
	})
	if err != nil {
		br.fail(w, "set_params", err)
		return
	}
	writeJSON(w, http.StatusOK, newParamsResponse(params))
}

func (br *bankRoutes) getTreasury(w http.ResponseWriter, r *http.Request) {
	var (
		addr crypto.Address
		ok   bool
	)
	err := br.runtime.View(func(call *core.Call) error {
		var err error
		addr, ok, err = call.Bank.Treasury()
		return err
	})
	if err != nil {
		br.fail(w, "treasury", err)
		return
	}
	if !ok {
		br.fail(w, "treasury", bank.ErrTreasuryNotSet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"address": addr.String()})
}

func (br *bankRoutes) setTreasury(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address string `json:"address"`
	}
	if err := decodeJSON(r, &req); err != nil {
		br.fail(w, "set_treasury", err)
		return
	}
	addr, err := crypto.ParseAddress(req.Address)
	if err != nil {
		br.fail(w, "set_treasury", badRequest("invalid address: %v", err))
		return
	}
	err = br.runtime.Execute(func(call *core.Call) error {
		return call.Bank.SetTreasury(bank.RootOrigin(), addr)
	})
	if err != nil {
		br.fail(w, "set_treasury", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"address": addr.String()})
}

func (br *bankRoutes) resetTreasury(w http.ResponseWriter, r *http.Request) {
	err := br.runtime.Execute(func(call *core.Call) error {
		return call.Bank.ResetTreasury(bank.RootOrigin())
	})
	if err != nil {
		br.fail(w, "reset_treasury", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (br *bankRoutes) openDeposit(w http.ResponseWriter, r *http.Request) {
	depositor, err := caller(r)
	if err != nil {
		br.fail(w, "open", err)
		return
	}
	var req struct {
		Amount         string `json:"amount"`
		MaturityPeriod uint64 `json:"maturityPeriod"`
	}
	if err := decodeJSON(r, &req); err != nil {
		br.fail(w, "open", err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		br.fail(w, "open", err)
		return
	}
	var id uint64
	err = br.runtime.Execute(func(call *core.Call) error {
		var err error
		id, err = call.Bank.OpenDeposit(bank.Signed(depositor), amount, req.MaturityPeriod)
		return err
	})
	if err != nil {
		br.fail(w, "open", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"depositor": depositor.String(), "id": id})
}

func (br *bankRoutes) closeDeposit(w http.ResponseWriter, r *http.Request) {
	depositor, err := caller(r)
	if err != nil {
		br.fail(w, "close", err)
		return
	}
	id, err := idParam(r)
	if err != nil {
		br.fail(w, "close", err)
		return
	}
	var req struct {
		Matured string `json:"matured"`
	}
	if err := decodeJSON(r, &req); err != nil {
		br.fail(w, "close", err)
		return
	}
	claimed, err := bank.ParseMaturityClaim(req.Matured)
	if err != nil {
		br.fail(w, "close", err)
		return
	}
	var settlement *bank.Settlement
	err = br.runtime.Execute(func(call *core.Call) error {
		var err error
		settlement, err = call.Bank.CloseDeposit(bank.Signed(depositor), id, claimed)
		return err
	})
	if err != nil {
		br.fail(w, "close", err)
		return
	}
	writeJSON(w, http.StatusOK, newSettlementResponse(settlement))
}

func (br *bankRoutes) quoteClose(w http.ResponseWriter, r *http.Request) {
	depositor, err := caller(r)
	if err != nil {
		br.fail(w, "quote", err)
		return
	}
	id, err := idParam(r)
	if err != nil {
		br.fail(w, "quote", err)
		return
	}
	var settlement *bank.Settlement
	err = br.runtime.View(func(call *core.Call) error {
		var err error
		settlement, err = call.Bank.QuoteClose(depositor, id)
		return err
	})
	if err != nil {
		br.fail(w, "quote", err)
		return
	}
	writeJSON(w, http.StatusOK, newSettlementResponse(settlement))
}

func (br *bankRoutes) getDeposit(w http.ResponseWriter, r *http.Request) {
	depositor, err := addressParam(r, "address")
	if err != nil {
		br.fail(w, "deposit", err)
		return
	}
	id, err := idParam(r)
	if err != nil {
		br.fail(w, "deposit", err)
		return
	}
	var deposit *bank.Deposit
	err = br.runtime.View(func(call *core.Call) error {
		var err error
		deposit, err = call.Bank.Deposit(depositor, id)
		return err
	})
	if err != nil {
		br.fail(w, "deposit", err)
		return
	}
	writeJSON(w, http.StatusOK, newDepositResponse(deposit))
}

func (br *bankRoutes) getDepositor(w http.ResponseWriter, r *http.Request) {
	depositor, err := addressParam(r, "address")
	if err != nil {
		br.fail(w, "depositor", err)
		return
	}
	var counters bank.DepositorState
	err = br.runtime.View(func(call *core.Call) error {
		var err error
		counters, err = call.Bank.DepositorState(depositor)
		return err
	})
	if err != nil {
		br.fail(w, "depositor", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"depositor":       depositor.String(),
		"lastDepositId":   counters.LastDepositID,
		"investmentScore": counters.InvestmentScore,
	})
}

func (br *bankRoutes) listDeposits(w http.ResponseWriter, r *http.Request) {
	depositor, err := addressParam(r, "address")
	if err != nil {
		br.fail(w, "deposits", err)
		return
	}
	var deposits []*bank.Deposit
	err = br.runtime.View(func(call *core.Call) error {
		var err error
		deposits, err = call.Bank.Deposits(depositor)
		return err
	})
	if err != nil {
		br.fail(w, "deposits", err)
		return
	}
	out := make([]depositResponse, 0, len(deposits))
	for _, deposit := range deposits {
		out = append(out, newDepositResponse(deposit))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"deposits": out})
}

func (br *bankRoutes) lockForDAO(w http.ResponseWriter, r *http.Request) {
	user, err := caller(r)
	if err != nil {
		br.fail(w, "dao_lock", err)
		return
	}
	var req struct {
		Amount string `json:"amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		br.fail(w, "dao_lock", err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		br.fail(w, "dao_lock", err)
		return
	}
	err = br.runtime.Execute(func(call *core.Call) error {
		return call.Bank.LockForDAO(bank.Signed(user), amount)
	})
	if err != nil {
		br.fail(w, "dao_lock", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"user": user.String(), "amount": amount.String()})
}

func (br *bankRoutes) unlockDAO(w http.ResponseWriter, r *http.Request) {
	user, err := caller(r)
	if err != nil {
		br.fail(w, "dao_unlock", err)
		return
	}
	err = br.runtime.Execute(func(call *core.Call) error {
		return call.Bank.UnlockDAO(bank.Signed(user))
	})
	if err != nil {
		br.fail(w, "dao_unlock", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (br *bankRoutes) getDAOLock(w http.ResponseWriter, r *http.Request) {
	user, err := addressParam(r, "address")
	if err != nil {
		br.fail(w, "dao_lock", err)
		return
	}
	var locked string
	var present bool
	err = br.runtime.View(func(call *core.Call) error {
		amount, ok, err := call.Bank.DAOLock(user)
		locked, present = amountString(amount), ok
		return err
	})
	if err != nil {
		br.fail(w, "dao_lock", err)
		return
	}
	if !present {
		br.fail(w, "dao_lock", bank.ErrNoDAOLock)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"user": user.String(), "amount": locked})
}
