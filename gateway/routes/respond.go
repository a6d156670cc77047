package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"fdchain/core"
	"fdchain/crypto"
	"fdchain/native/bank"
)

const requestLimit = 1 << 20 // 1 MiB

// errBadRequest marks failures of the request itself, before any engine call.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func decodeJSON(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, requestLimit))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return badRequest("decode body: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, err error) {
	status, class := classify(err)
	message := http.StatusText(status)
	if err != nil && strings.TrimSpace(err.Error()) != "" {
		message = strings.TrimSpace(err.Error())
	}
	writeJSON(w, status, map[string]string{"error": message, "class": string(class)})
}

// classify maps an error to the HTTP status and class reported to clients.
func classify(err error) (int, bank.ErrorClass) {
	if errors.Is(err, errBadRequest) || errors.Is(err, core.ErrZeroBlocks) {
		return http.StatusBadRequest, bank.ClassValidation
	}
	class := bank.Classify(err)
	switch class {
	case bank.ClassValidation:
		return http.StatusBadRequest, class
	case bank.ClassAuth:
		return http.StatusForbidden, class
	case bank.ClassNotFound:
		return http.StatusNotFound, class
	case bank.ClassPrecondition, bank.ClassConsistency:
		return http.StatusConflict, class
	case bank.ClassFunds, bank.ClassArithmetic:
		return http.StatusUnprocessableEntity, class
	case bank.ClassPaused:
		return http.StatusServiceUnavailable, class
	default:
		return http.StatusInternalServerError, bank.ClassInternal
	}
}

func parseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, badRequest("invalid amount %q", raw)
	}
	if amount.Sign() < 0 {
		return nil, badRequest("amount must not be negative")
	}
	return amount, nil
}

func addressParam(r *http.Request, name string) (crypto.Address, error) {
	addr, err := crypto.ParseAddress(chi.URLParam(r, name))
	if err != nil {
		return crypto.Address{}, badRequest("invalid address: %v", err)
	}
	return addr, nil
}

func idParam(r *http.Request) (uint64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, badRequest("invalid deposit id %q", raw)
	}
	return id, nil
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
