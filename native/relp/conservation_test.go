package relp

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/holiman/uint256"

	"relpchain/crypto"
)

func TestRandomWalkConservation(t *testing.T) {
	engine, _, _ := newTestEngine(t, DefaultParams())
	rng := rand.New(rand.NewSource(42))
	accounts := make([]crypto.Address, 5)
	for i := range accounts {
		accounts[i] = testAddr(byte(i + 1))
	}

	block := uint64(1)
	for step := 0; step < 400; step++ {
		block += uint64(rng.Intn(700))
		engine.SetBlockHeight(block)
		from := accounts[rng.Intn(len(accounts))]
		to := accounts[rng.Intn(len(accounts))]
		amount := u(uint64(rng.Intn(50) + 1))

		var err error
		switch rng.Intn(6) {
		case 0, 1:
			err = engine.Mint(to, amount)
		case 2:
			err = engine.Burn(from, amount)
		case 3:
			err = engine.Transfer(from, to, amount)
		case 4:
			_, err = engine.AnnounceLumpSumAward(PoolStable, amount)
		case 5:
			_, err = engine.UpdateBlockAwards()
		}
		if err != nil && !errors.Is(err, ErrInsufficientBalance) {
			t.Fatalf("step %d: %v", step, err)
		}
	}

	block += 10
	engine.SetBlockHeight(block)
	for _, addr := range accounts {
		if err := engine.Touch(addr); err != nil {
			t.Fatalf("touch: %v", err)
		}
	}

	g, err := engine.GlobalState()
	if err != nil {
		t.Fatalf("global: %v", err)
	}
	balances, coinday, farm := new(uint256.Int), new(uint256.Int), new(uint256.Int)
	for _, addr := range accounts {
		acc, err := engine.AccountOf(addr)
		if err != nil {
			t.Fatalf("account: %v", err)
		}
		if acc.Coinday.LastBlock != block {
			t.Fatalf("account %s not accrued to %d", addr, block)
		}
		balances.Add(balances, &acc.Balance)
		coinday.Add(coinday, &acc.Coinday.Amount)
		farm.Add(farm, &acc.Farm.Reward)
	}
	expectInt(t, "sum of balances", balances, &g.TotalSupply)
	expectInt(t, "sum of coinday", coinday, &g.TotalCoinday.Amount)
	farm.Add(farm, &g.Farm.Dust)
	expectInt(t, "farm rewards plus dust", farm, &g.Farm.TotalReward)

	for _, pool := range Pools {
		credited := new(uint256.Int)
		for _, addr := range accounts {
			reward, err := engine.PoolRewardOf(pool, addr)
			if err != nil {
				t.Fatalf("pool reward: %v", err)
			}
			credited.Add(credited, reward)
		}
		expectInt(t, pool.String()+" distributed", credited, &g.Pools[pool].Distributed)
	}
}

func TestQueriesAreIdempotent(t *testing.T) {
	engine, _, _ := newTestEngine(t, DefaultParams())
	a := testAddr(1)
	mustMint(t, engine, 100, a, 10)
	mustAnnounce(t, engine, 200, PoolStable, 9)
	engine.SetBlockHeight(300)

	first, err := engine.PendingPoolReward(PoolStable, a)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	firstFarm, _ := engine.PendingReward(a)
	for i := 0; i < 3; i++ {
		again, _ := engine.PendingPoolReward(PoolStable, a)
		expectInt(t, "pending pool", again, first)
		againFarm, _ := engine.PendingReward(a)
		expectInt(t, "pending farm", againFarm, firstFarm)
	}
	expectCoinday(t, engine, a, 0)
}
