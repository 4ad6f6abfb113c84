package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	ErrInvalidConfiguration    = errors.Register(ModuleName, 1, "invalid pool configuration")
	ErrPoolNotInitialized      = errors.Register(ModuleName, 2, "pool has not been initialized")
	ErrPoolAlreadyInitialized  = errors.Register(ModuleName, 3, "pool has already been initialized")
	ErrBelowMinimumTransaction = errors.Register(ModuleName, 4, "amount is below the minimum transaction amount")
	ErrSlippageExceeded        = errors.Register(ModuleName, 5, "slippage bound was not met")
	ErrPoolDepleted            = errors.Register(ModuleName, 6, "trade would deplete one side of the reserves")
	ErrInsufficientLiquidity   = errors.Register(ModuleName, 7, "share reserves would fall below the minimum")
	ErrInsufficientReserves    = errors.Register(ModuleName, 8, "outstanding positions would exceed the bond reserves")
	ErrNegativeInterest        = errors.Register(ModuleName, 9, "trade would push the spot price above one")
	ErrArithmeticOverflow      = errors.Register(ModuleName, 10, "fixed point arithmetic overflow")
	ErrArithmeticUnderflow     = errors.Register(ModuleName, 11, "fixed point arithmetic underflow")
	ErrDivisionByZero          = errors.Register(ModuleName, 12, "division by zero")
	ErrInvalidCheckpointTime   = errors.Register(ModuleName, 13, "checkpoint time is not a minted checkpoint boundary")
	ErrCheckpointImmutable     = errors.Register(ModuleName, 14, "checkpoint share price is already recorded")
	ErrNegativePresentValue    = errors.Register(ModuleName, 15, "pool present value is negative")
	ErrAprOutOfRange           = errors.Register(ModuleName, 16, "pool rate is outside the provided bounds")
	ErrNoWithdrawalCapacity    = errors.Register(ModuleName, 17, "no withdrawal shares are ready to redeem")
	ErrNothingToCollect        = errors.Register(ModuleName, 18, "no governance fees have accrued")
	ErrInvalidAmount           = errors.Register(ModuleName, 19, "invalid amount")
)
