package relp

import (
	"strconv"

	"github.com/holiman/uint256"

	"relpchain/core/events"
	"relpchain/core/types"
	"relpchain/crypto"
)

const (
	// EventTypeMinted is emitted when new units are credited to an account.
	EventTypeMinted = "relp.minted"
	// EventTypeBurned is emitted when units are removed from an account.
	EventTypeBurned = "relp.burned"
	// EventTypeTransferred is emitted for direct and delegated transfers.
	EventTypeTransferred = "relp.transferred"
	// EventTypeApproved is emitted when an allowance is set.
	EventTypeApproved = "relp.approved"
	// EventTypeLocked is emitted when an account lock is set or cleared.
	EventTypeLocked = "relp.locked"
	// EventTypeAwardAnnounced is emitted when a lump-sum award is recorded.
	EventTypeAwardAnnounced = "relp.award.announced"
	// EventTypeDailyAwardSet is emitted when the farm emission rate changes.
	EventTypeDailyAwardSet = "relp.dailyAward.set"
	// EventTypeRewardSettled is emitted when a settlement credits an account.
	EventTypeRewardSettled = "relp.reward.settled"
)

// RewardSourceFarm labels farm credits in settlement events.
const RewardSourceFarm = "farm"

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

func MintedEvent(account crypto.Address, amount, balance *uint256.Int, block uint64) *types.Event {
	return &types.Event{
		Type: EventTypeMinted,
		Attributes: map[string]string{
			"account": account.String(),
			"amount":  amount.Dec(),
			"balance": balance.Dec(),
			"block":   strconv.FormatUint(block, 10),
		},
	}
}

func BurnedEvent(account crypto.Address, amount, balance, coindayRemoved *uint256.Int, block uint64) *types.Event {
	return &types.Event{
		Type: EventTypeBurned,
		Attributes: map[string]string{
			"account":        account.String(),
			"amount":         amount.Dec(),
			"balance":        balance.Dec(),
			"coindayRemoved": coindayRemoved.Dec(),
			"block":          strconv.FormatUint(block, 10),
		},
	}
}

// TransferredEvent describes a transfer; spender is empty for direct transfers.
func TransferredEvent(from, to crypto.Address, spender string, amount *uint256.Int, block uint64) *types.Event {
	attrs := map[string]string{
		"from":   from.String(),
		"to":     to.String(),
		"amount": amount.Dec(),
		"block":  strconv.FormatUint(block, 10),
	}
	if spender != "" {
		attrs["spender"] = spender
	}
	return &types.Event{Type: EventTypeTransferred, Attributes: attrs}
}

func ApprovedEvent(owner, spender crypto.Address, amount *uint256.Int) *types.Event {
	return &types.Event{
		Type: EventTypeApproved,
		Attributes: map[string]string{
			"owner":   owner.String(),
			"spender": spender.String(),
			"amount":  amount.Dec(),
		},
	}
}

func LockedEvent(account crypto.Address, amount *uint256.Int, untilBlock uint64) *types.Event {
	return &types.Event{
		Type: EventTypeLocked,
		Attributes: map[string]string{
			"account":    account.String(),
			"amount":     amount.Dec(),
			"untilBlock": strconv.FormatUint(untilBlock, 10),
		},
	}
}

func AwardAnnouncedEvent(pool PoolID, index uint64, award *Award) *types.Event {
	return &types.Event{
		Type: EventTypeAwardAnnounced,
		Attributes: map[string]string{
			"pool":         pool.String(),
			"index":        strconv.FormatUint(index, 10),
			"amount":       award.Amount.Dec(),
			"totalCoinday": award.TotalCoinday.Dec(),
			"block":        strconv.FormatUint(award.Block, 10),
		},
	}
}

func DailyAwardSetEvent(amount *uint256.Int, block uint64) *types.Event {
	return &types.Event{
		Type: EventTypeDailyAwardSet,
		Attributes: map[string]string{
			"amount": amount.Dec(),
			"block":  strconv.FormatUint(block, 10),
		},
	}
}

func RewardSettledEvent(account crypto.Address, source string, amount *uint256.Int, block uint64) *types.Event {
	return &types.Event{
		Type: EventTypeRewardSettled,
		Attributes: map[string]string{
			"account": account.String(),
			"source":  source,
			"amount":  amount.Dec(),
			"block":   strconv.FormatUint(block, 10),
		},
	}
}
