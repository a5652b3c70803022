package routes

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/holiman/uint256"

	"relpchain/crypto"
	"relpchain/gateway/middleware"
	"relpchain/native/relp"
)

const txRequestLimit = 64 << 10

// txRequest is the body accepted by every mutating route. Block defaults to
// the node's current height.
type txRequest struct {
	Block      *uint64 `json:"block,omitempty"`
	Account    string  `json:"account,omitempty"`
	From       string  `json:"from,omitempty"`
	To         string  `json:"to,omitempty"`
	Owner      string  `json:"owner,omitempty"`
	Spender    string  `json:"spender,omitempty"`
	Amount     string  `json:"amount,omitempty"`
	Pool       string  `json:"pool,omitempty"`
	UntilBlock uint64  `json:"untilBlock,omitempty"`
}

type txResponse struct {
	Block    uint64  `json:"block"`
	Index    *uint64 `json:"index,omitempty"`
	Released string  `json:"released,omitempty"`
}

func decodeTx(r *http.Request) (txRequest, error) {
	var req txRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, txRequestLimit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("%w: decode request: %v", errBadRequest, err)
	}
	return req, nil
}

func parseAddress(field, value string) (crypto.Address, error) {
	if strings.TrimSpace(value) == "" {
		return crypto.Address{}, fmt.Errorf("%w: %s required", errBadRequest, field)
	}
	addr, err := crypto.ParseAddress(value)
	if err != nil {
		return crypto.Address{}, fmt.Errorf("%w: %s: %v", errBadRequest, field, err)
	}
	return addr, nil
}

func parseAmount(value string) (*uint256.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: amount required", errBadRequest)
	}
	amount, err := uint256.FromDecimal(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: amount: %v", errBadRequest, err)
	}
	return amount, nil
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	if statusFor(err) == http.StatusInternalServerError {
		h.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("requestId", middleware.RequestIDFrom(r.Context())),
			slog.String("error", err.Error()))
	}
	writeError(w, err)
}

// run decodes the body, lets build validate it into a ledger call and applies
// that call at the requested block.
func (h *handlers) run(w http.ResponseWriter, r *http.Request, op string, build func(txRequest, *txResponse) (func(*relp.Engine) error, error)) {
	req, err := decodeTx(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	block := h.ledger.Height()
	if req.Block != nil {
		block = *req.Block
	}
	resp := &txResponse{Block: block}
	call, err := build(req, resp)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.ledger.Apply(r.Context(), op, block, call); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) mint(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "mint", func(req txRequest, _ *txResponse) (func(*relp.Engine) error, error) {
		to, err := parseAddress("to", req.To)
		if err != nil {
			return nil, err
		}
		amount, err := parseAmount(req.Amount)
		if err != nil {
			return nil, err
		}
		return func(e *relp.Engine) error { return e.Mint(to, amount) }, nil
	})
}

func (h *handlers) burn(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "burn", func(req txRequest, _ *txResponse) (func(*relp.Engine) error, error) {
		from, err := parseAddress("from", req.From)
		if err != nil {
			return nil, err
		}
		amount, err := parseAmount(req.Amount)
		if err != nil {
			return nil, err
		}
		return func(e *relp.Engine) error { return e.Burn(from, amount) }, nil
	})
}

func (h *handlers) transfer(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "transfer", func(req txRequest, _ *txResponse) (func(*relp.Engine) error, error) {
		from, err := parseAddress("from", req.From)
		if err != nil {
			return nil, err
		}
		to, err := parseAddress("to", req.To)
		if err != nil {
			return nil, err
		}
		amount, err := parseAmount(req.Amount)
		if err != nil {
			return nil, err
		}
		return func(e *relp.Engine) error { return e.Transfer(from, to, amount) }, nil
	})
}

func (h *handlers) transferFrom(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "transferFrom", func(req txRequest, _ *txResponse) (func(*relp.Engine) error, error) {
		spender, err := parseAddress("spender", req.Spender)
		if err != nil {
			return nil, err
		}
		from, err := parseAddress("from", req.From)
		if err != nil {
			return nil, err
		}
		to, err := parseAddress("to", req.To)
		if err != nil {
			return nil, err
		}
		amount, err := parseAmount(req.Amount)
		if err != nil {
			return nil, err
		}
		return func(e *relp.Engine) error { return e.TransferFrom(spender, from, to, amount) }, nil
	})
}

func (h *handlers) approve(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "approve", func(req txRequest, _ *txResponse) (func(*relp.Engine) error, error) {
		owner, err := parseAddress("owner", req.Owner)
		if err != nil {
			return nil, err
		}
		spender, err := parseAddress("spender", req.Spender)
		if err != nil {
			return nil, err
		}
		amount, err := parseAmount(req.Amount)
		if err != nil {
			return nil, err
		}
		return func(e *relp.Engine) error { return e.Approve(owner, spender, amount) }, nil
	})
}

func (h *handlers) lock(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "lock", func(req txRequest, _ *txResponse) (func(*relp.Engine) error, error) {
		account, err := parseAddress("account", req.Account)
		if err != nil {
			return nil, err
		}
		amount, err := parseAmount(req.Amount)
		if err != nil {
			return nil, err
		}
		until := req.UntilBlock
		return func(e *relp.Engine) error { return e.SetLock(account, amount, until) }, nil
	})
}

func (h *handlers) touch(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "touch", func(req txRequest, _ *txResponse) (func(*relp.Engine) error, error) {
		account, err := parseAddress("account", req.Account)
		if err != nil {
			return nil, err
		}
		return func(e *relp.Engine) error { return e.Touch(account) }, nil
	})
}

func (h *handlers) announce(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "announce", func(req txRequest, resp *txResponse) (func(*relp.Engine) error, error) {
		pool, err := relp.ParsePoolID(req.Pool)
		if err != nil {
			return nil, err
		}
		amount, err := parseAmount(req.Amount)
		if err != nil {
			return nil, err
		}
		return func(e *relp.Engine) error {
			index, err := e.AnnounceLumpSumAward(pool, amount)
			if err != nil {
				return err
			}
			resp.Index = &index
			return nil
		}, nil
	})
}

func (h *handlers) setDailyAward(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "setDailyAward", func(req txRequest, _ *txResponse) (func(*relp.Engine) error, error) {
		amount, err := parseAmount(req.Amount)
		if err != nil {
			return nil, err
		}
		return func(e *relp.Engine) error { return e.SetDailyAward(amount) }, nil
	})
}

func (h *handlers) updateBlockAwards(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "updateBlockAwards", func(req txRequest, resp *txResponse) (func(*relp.Engine) error, error) {
		return func(e *relp.Engine) error {
			released, err := e.UpdateBlockAwards()
			if err != nil {
				return err
			}
			resp.Released = released.Dec()
			return nil
		}, nil
	})
}
