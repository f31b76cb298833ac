// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
)

// Kind groups revert codes by the class of rule they enforce.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindConfig
	KindLifecycle
	KindSlot
	KindTiming
	KindSettlement
	KindArithmetic
	KindAccess
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindLifecycle:
		return "lifecycle"
	case KindSlot:
		return "slot"
	case KindTiming:
		return "timing"
	case KindSettlement:
		return "settlement"
	case KindArithmetic:
		return "arithmetic"
	case KindAccess:
		return "access"
	default:
		return "unknown"
	}
}

// ErrRevert is a rejected operation. No state was changed when it is returned.
type ErrRevert struct {
	kind    Kind
	code    string
	message string
}

func define(kind Kind, code, message string) *ErrRevert {
	return &ErrRevert{kind: kind, code: code, message: message}
}

func (e *ErrRevert) Error() string {
	return e.message
}

func (e *ErrRevert) Kind() Kind {
	return e.kind
}

func (e *ErrRevert) Code() string {
	return e.code
}

// Is matches any revert carrying the same code.
func (e *ErrRevert) Is(target error) bool {
	t, ok := target.(*ErrRevert)
	if !ok {
		return false
	}
	return e.code == t.code
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// KindOf returns the kind of the revert wrapped in err, or KindUnknown.
func KindOf(err error) Kind {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.kind
	}
	return KindUnknown
}

// CodeOf returns the code of the revert wrapped in err, or an empty string.
func CodeOf(err error) string {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.code
	}
	return ""
}

var (
	ErrInvalidRewardTier = define(KindConfig, "InvalidRewardTier", "invalid reward tier")
	ErrBumpFailure       = define(KindConfig, "BumpFailure", "unable to derive address bump")

	ErrPoolPaused        = define(KindLifecycle, "PoolPaused", "pool is paused")
	ErrPoolNotPaused     = define(KindLifecycle, "PoolNotPaused", "pool is not paused")
	ErrPoolClosed        = define(KindLifecycle, "PoolClosed", "pool is closed for new staking")
	ErrPoolHasToBeClosed = define(KindLifecycle, "PoolHasToBeClosed", "pool has to be closed")

	ErrInvalidTier            = define(KindSlot, "InvalidTier", "invalid tier")
	ErrNoAvailableSlotForTier = define(KindSlot, "NoAvailableSlotForTier", "there is no available slot in this tier")
	ErrTierAlreadyUsed        = define(KindSlot, "TierAlreadyUsed", "tier already used")
	ErrUserDoesntHaveTier     = define(KindSlot, "UserDoesntHaveTier", "the user doesn't have stake in this tier")
	ErrUserDoensntHaveStakes  = define(KindSlot, "UserDoensntHaveStakes", "the user doesn't have any stakes")
	ErrUserHasActiveStakes    = define(KindSlot, "UserHasActiveStakes", "there are active stakes")

	ErrTimeLockHasntYetPassed = define(KindTiming, "TimeLockHasntYetPassed", "the time lock has not yet passed")

	ErrPendingReward               = define(KindSettlement, "PendingReward", "there is pending reward")
	ErrAmountMustBeGreaterThanZero = define(KindSettlement, "AmountMustBeGreaterThanZero", "amount must be greater than zero")
	ErrOnlyExtraWithdrawAllowed    = define(KindSettlement, "OnlyExtraWithdrawAllowed", "only extra (total - required) withdraw allowed")
	ErrAmountMustBeZero            = define(KindSettlement, "AmountMustBeZero", "amount must be zero")

	ErrCalcFailure = define(KindArithmetic, "CalcFailure", "calculation overflow")

	ErrUnauthorized      = define(KindAccess, "Unauthorized", "signer is not the authority")
	ErrPoolNotFound      = define(KindAccess, "PoolNotFound", "pool not found")
	ErrPoolAlreadyExists = define(KindAccess, "PoolAlreadyExists", "pool already exists")
	ErrUserNotFound      = define(KindAccess, "UserNotFound", "user not found")
	ErrUserAlreadyExists = define(KindAccess, "UserAlreadyExists", "user already exists")
	ErrUserPoolMismatch  = define(KindAccess, "UserPoolMismatch", "user does not belong to pool")
)
