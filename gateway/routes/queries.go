package routes

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"relpchain/native/relp"
	"relpchain/storage/eventlog"
)

type coindayView struct {
	Amount    string `json:"amount"`
	LastBlock uint64 `json:"lastBlock"`
}

func newCoindayView(info relp.CoindayInfo) coindayView {
	return coindayView{Amount: info.Amount.Dec(), LastBlock: info.LastBlock}
}

type rewardView struct {
	Settled string `json:"settled"`
	Pending string `json:"pending"`
}

type lockView struct {
	Amount     string `json:"amount"`
	UntilBlock uint64 `json:"untilBlock"`
	Active     bool   `json:"active"`
}

type accountView struct {
	Address string                `json:"address"`
	Balance string                `json:"balance"`
	Coinday coindayView           `json:"coinday"`
	Pools   map[string]rewardView `json:"pools"`
	Farm    rewardView            `json:"farm"`
	Debt    string                `json:"rewardDebt"`
	Lock    lockView              `json:"lock"`
}

type supplyView struct {
	Height       uint64      `json:"height"`
	TotalSupply  string      `json:"totalSupply"`
	TotalCoinday coindayView `json:"totalCoinday"`
}

type farmView struct {
	DailyAward  string `json:"dailyAward"`
	TotalReward string `json:"totalReward"`
	AccPerShare string `json:"accPerShare"`
	Unallocated string `json:"unallocated"`
	Dust        string `json:"dust"`
}

type poolView struct {
	Pool        string `json:"pool"`
	AwardCount  uint64 `json:"awardCount"`
	Announced   string `json:"announced"`
	Distributed string `json:"distributed"`
}

type awardView struct {
	Pool         string `json:"pool"`
	Index        uint64 `json:"index"`
	Amount       string `json:"amount"`
	TotalCoinday string `json:"totalCoinday"`
	Block        uint64 `json:"block"`
}

type eventView struct {
	Seq        uint64            `json:"seq"`
	Block      uint64            `json:"block"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
	Digest     string            `json:"digest"`
}

func newEventView(rec eventlog.Record) (eventView, error) {
	evt, err := rec.Event()
	if err != nil {
		return eventView{}, err
	}
	return eventView{Seq: rec.Seq, Block: rec.Block, Type: evt.Type, Attributes: evt.Attributes, Digest: rec.Digest}, nil
}

func (h *handlers) supply(w http.ResponseWriter, r *http.Request) {
	var view supplyView
	err := h.ledger.Query(func(e *relp.Engine) error {
		supply, err := e.TotalSupply()
		if err != nil {
			return err
		}
		total, err := e.TotalCoinday()
		if err != nil {
			return err
		}
		view = supplyView{Height: e.BlockHeight(), TotalSupply: supply.Dec(), TotalCoinday: newCoindayView(total)}
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handlers) farm(w http.ResponseWriter, r *http.Request) {
	var view farmView
	err := h.ledger.Query(func(e *relp.Engine) error {
		g, err := e.GlobalState()
		if err != nil {
			return err
		}
		view = farmView{
			DailyAward:  g.Farm.Emission.Daily.Dec(),
			TotalReward: g.Farm.TotalReward.Dec(),
			AccPerShare: g.Farm.AccPerShare.Dec(),
			Unallocated: g.Farm.Unallocated.Dec(),
			Dust:        g.Farm.Dust.Dec(),
		}
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handlers) account(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress("address", chi.URLParam(r, "address"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var view accountView
	err = h.ledger.Query(func(e *relp.Engine) error {
		acc, err := e.AccountOf(addr)
		if err != nil {
			return err
		}
		pending, err := e.PendingReward(addr)
		if err != nil {
			return err
		}
		view = accountView{
			Address: addr.String(),
			Balance: acc.Balance.Dec(),
			Coinday: newCoindayView(acc.Coinday),
			Pools:   make(map[string]rewardView, len(relp.Pools)),
			Farm:    rewardView{Settled: acc.Farm.Reward.Dec(), Pending: pending.Dec()},
			Debt:    acc.Farm.Debt.Dec(),
			Lock: lockView{
				Amount:     acc.Lock.Amount.Dec(),
				UntilBlock: acc.Lock.UntilBlock,
				Active:     acc.Lock.Active(e.BlockHeight()),
			},
		}
		for _, pool := range relp.Pools {
			pendingPool, err := e.PendingPoolReward(pool, addr)
			if err != nil {
				return err
			}
			view.Pools[pool.String()] = rewardView{Settled: acc.Pools[pool].Reward.Dec(), Pending: pendingPool.Dec()}
		}
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handlers) allowance(w http.ResponseWriter, r *http.Request) {
	owner, err := parseAddress("owner", chi.URLParam(r, "owner"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	spender, err := parseAddress("spender", chi.URLParam(r, "spender"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var amount string
	err = h.ledger.Query(func(e *relp.Engine) error {
		allowed, err := e.Allowance(owner, spender)
		if err != nil {
			return err
		}
		amount = allowed.Dec()
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"amount": amount})
}

func (h *handlers) pool(w http.ResponseWriter, r *http.Request) {
	pool, err := relp.ParsePoolID(chi.URLParam(r, "pool"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var view poolView
	err = h.ledger.Query(func(e *relp.Engine) error {
		state, err := e.PoolState(pool)
		if err != nil {
			return err
		}
		view = poolView{
			Pool:        pool.String(),
			AwardCount:  state.AwardCount,
			Announced:   state.Announced.Dec(),
			Distributed: state.Distributed.Dec(),
		}
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handlers) award(w http.ResponseWriter, r *http.Request) {
	pool, err := relp.ParsePoolID(chi.URLParam(r, "pool"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	index, err := strconv.ParseUint(chi.URLParam(r, "index"), 10, 64)
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: index: %v", errBadRequest, err))
		return
	}
	var view awardView
	err = h.ledger.Query(func(e *relp.Engine) error {
		award, err := e.Award(pool, index)
		if err != nil {
			return err
		}
		view = awardView{
			Pool:         pool.String(),
			Index:        index,
			Amount:       award.Amount.Dec(),
			TotalCoinday: award.TotalCoinday.Dec(),
			Block:        award.Block,
		}
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := eventlog.Filter{Type: q.Get("type")}
	for _, param := range []struct {
		name string
		dst  *uint64
	}{
		{"from", &filter.FromBlock},
		{"to", &filter.ToBlock},
		{"after", &filter.AfterSeq},
	} {
		raw := q.Get(param.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			h.fail(w, r, fmt.Errorf("%w: %s: %v", errBadRequest, param.name, err))
			return
		}
		*param.dst = v
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			h.fail(w, r, fmt.Errorf("%w: limit: %v", errBadRequest, err))
			return
		}
		filter.Limit = limit
	}
	records, err := h.ledger.Events(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	views := make([]eventView, 0, len(records))
	for _, rec := range records {
		view, err := newEventView(rec)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		views = append(views, view)
	}
	writeJSON(w, http.StatusOK, views)
}
