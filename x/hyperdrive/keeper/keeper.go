package keeper

import (
	"encoding/json"
	"sync"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/huandu/skiplist"

	hdmath "github.com/openalpha/hyperdrive/x/hyperdrive/math"
	"github.com/openalpha/hyperdrive/x/hyperdrive/types"
)

// Store key prefixes
var (
	PoolConfigKey        = []byte{0x01}
	MarketStateKey       = []byte{0x02}
	CheckpointKeyPrefix  = []byte{0x03}
	WithdrawPoolKey      = []byte{0x04}
	OpenMaturityKeyPrefix = []byte{0x05}
)

// VaultKeeper is the expected interface of the yield source the pool deposits
// into. Amounts passed in and out are 18-decimal fixed point.
type VaultKeeper interface {
	// PricePerShare returns the current vault share price in base.
	PricePerShare(ctx sdk.Context) hdmath.FixedPoint
	// Deposit moves baseAmount of base from the account into the vault and
	// returns the shares minted and the share price used.
	Deposit(ctx sdk.Context, from string, baseAmount hdmath.FixedPoint, asUnderlying bool) (shares, sharePrice hdmath.FixedPoint, err error)
	// Withdraw burns shares and pays the proceeds in base to the account.
	Withdraw(ctx sdk.Context, to string, shares hdmath.FixedPoint, asUnderlying bool) (baseProceeds hdmath.FixedPoint, err error)
}

// LedgerKeeper is the expected interface of the multi-asset position ledger
// that tracks longs, shorts, LP shares and withdrawal shares.
type LedgerKeeper interface {
	Mint(ctx sdk.Context, assetID, to string, amount hdmath.FixedPoint) error
	Burn(ctx sdk.Context, assetID, from string, amount hdmath.FixedPoint) error
	BalanceOf(ctx sdk.Context, assetID, account string) hdmath.FixedPoint
	TotalSupply(ctx sdk.Context, assetID string) hdmath.FixedPoint
}

// Keeper manages the hyperdrive module state
type Keeper struct {
	cdc      codec.BinaryCodec
	storeKey storetypes.StoreKey
	vault    VaultKeeper
	ledger   LedgerKeeper
	logger   log.Logger
	authority string

	// In-memory index of maturity buckets with open positions, ascending by
	// maturity time. Rebuilt lazily from the store.
	mu            sync.Mutex
	maturityIndex *skiplist.SkipList
	indexLoaded   bool
}

// NewKeeper creates a new hyperdrive keeper
func NewKeeper(
	cdc codec.BinaryCodec,
	storeKey storetypes.StoreKey,
	vault VaultKeeper,
	ledger LedgerKeeper,
	authority string,
	logger log.Logger,
) *Keeper {
	return &Keeper{
		cdc:           cdc,
		storeKey:      storeKey,
		vault:         vault,
		ledger:        ledger,
		authority:     authority,
		logger:        logger.With("module", "x/hyperdrive"),
		maturityIndex: skiplist.New(maturityKeyAsc{}),
	}
}

// Logger returns the module logger
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// SetPoolConfig writes the pool configuration. It may only be written once.
func (k *Keeper) SetPoolConfig(ctx sdk.Context, cfg types.PoolConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	store := ctx.KVStore(k.storeKey)
	if store.Has(PoolConfigKey) {
		return types.ErrPoolAlreadyInitialized.Wrap("pool config is immutable")
	}
	bz, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	store.Set(PoolConfigKey, bz)
	return nil
}

// GetPoolConfig reads the pool configuration.
func (k *Keeper) GetPoolConfig(ctx sdk.Context) (types.PoolConfig, error) {
	store := ctx.KVStore(k.storeKey)
	bz := store.Get(PoolConfigKey)
	if bz == nil {
		return types.PoolConfig{}, types.ErrPoolNotInitialized.Wrap("pool config not set")
	}
	var cfg types.PoolConfig
	if err := json.Unmarshal(bz, &cfg); err != nil {
		return types.PoolConfig{}, err
	}
	return cfg, nil
}

// GetMarketState reads the market state, returning a zeroed state before
// initialization.
func (k *Keeper) GetMarketState(ctx sdk.Context) types.MarketState {
	store := ctx.KVStore(k.storeKey)
	bz := store.Get(MarketStateKey)
	if bz == nil {
		return types.NewMarketState()
	}
	var state types.MarketState
	if err := json.Unmarshal(bz, &state); err != nil {
		panic(err)
	}
	return state
}

// SetMarketState commits a staged market state in a single write.
func (k *Keeper) SetMarketState(ctx sdk.Context, state types.MarketState) {
	bz, err := json.Marshal(state)
	if err != nil {
		panic(err)
	}
	ctx.KVStore(k.storeKey).Set(MarketStateKey, bz)
}

// GetCheckpoint reads the checkpoint for a bucket boundary.
func (k *Keeper) GetCheckpoint(ctx sdk.Context, checkpointTime uint64) (types.Checkpoint, bool) {
	store := ctx.KVStore(k.storeKey)
	bz := store.Get(checkpointKey(checkpointTime))
	if bz == nil {
		return types.NewCheckpoint(), false
	}
	var cp types.Checkpoint
	if err := json.Unmarshal(bz, &cp); err != nil {
		panic(err)
	}
	return cp, true
}

// SetCheckpoint writes a checkpoint, enforcing that a recorded share price is
// never overwritten with a different value.
func (k *Keeper) SetCheckpoint(ctx sdk.Context, checkpointTime uint64, cp types.Checkpoint) error {
	existing, found := k.GetCheckpoint(ctx, checkpointTime)
	if found && existing.IsSet() && !existing.SharePrice.Equal(cp.SharePrice) {
		return types.ErrCheckpointImmutable.Wrapf("checkpoint %d", checkpointTime)
	}
	bz, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	ctx.KVStore(k.storeKey).Set(checkpointKey(checkpointTime), bz)
	return nil
}

// GetWithdrawPool reads the withdraw pool aggregate.
func (k *Keeper) GetWithdrawPool(ctx sdk.Context) types.WithdrawPool {
	store := ctx.KVStore(k.storeKey)
	bz := store.Get(WithdrawPoolKey)
	if bz == nil {
		return types.NewWithdrawPool()
	}
	var pool types.WithdrawPool
	if err := json.Unmarshal(bz, &pool); err != nil {
		panic(err)
	}
	return pool
}

// SetWithdrawPool writes the withdraw pool aggregate.
func (k *Keeper) SetWithdrawPool(ctx sdk.Context, pool types.WithdrawPool) {
	bz, err := json.Marshal(pool)
	if err != nil {
		panic(err)
	}
	ctx.KVStore(k.storeKey).Set(WithdrawPoolKey, bz)
}

func checkpointKey(checkpointTime uint64) []byte {
	return append(CheckpointKeyPrefix, sdk.Uint64ToBigEndian(checkpointTime)...)
}

func openMaturityKey(maturityTime uint64) []byte {
	return append(OpenMaturityKeyPrefix, sdk.Uint64ToBigEndian(maturityTime)...)
}

// maturityKeyAsc orders the maturity index ascending by maturity time.
type maturityKeyAsc struct{}

func (maturityKeyAsc) Compare(lhs, rhs interface{}) int {
	l := lhs.(uint64)
	r := rhs.(uint64)
	if l < r {
		return -1
	}
	if l > r {
		return 1
	}
	return 0
}

func (maturityKeyAsc) CalcScore(key interface{}) float64 {
	return float64(key.(uint64))
}

// ensureMaturityIndex rebuilds the in-memory index from the store on first
// use after a restart.
func (k *Keeper) ensureMaturityIndex(ctx sdk.Context) {
	if k.indexLoaded {
		return
	}
	store := ctx.KVStore(k.storeKey)
	end := append(OpenMaturityKeyPrefix, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
	it := store.Iterator(OpenMaturityKeyPrefix, end)
	defer it.Close()
	for ; it.Valid(); it.Next() {
		mt := sdk.BigEndianToUint64(it.Key()[len(OpenMaturityKeyPrefix):])
		k.maturityIndex.Set(mt, struct{}{})
	}
	k.indexLoaded = true
}

// addOpenMaturity records a maturity bucket that has open positions.
func (k *Keeper) addOpenMaturity(ctx sdk.Context, maturityTime uint64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.ensureMaturityIndex(ctx)
	ctx.KVStore(k.storeKey).Set(openMaturityKey(maturityTime), []byte{1})
	k.maturityIndex.Set(maturityTime, struct{}{})
}

// removeOpenMaturity drops a maturity bucket after it has been settled.
func (k *Keeper) removeOpenMaturity(ctx sdk.Context, maturityTime uint64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.ensureMaturityIndex(ctx)
	ctx.KVStore(k.storeKey).Delete(openMaturityKey(maturityTime))
	k.maturityIndex.Remove(maturityTime)
}

// openMaturitiesUpTo returns the open maturity buckets at or before the given
// bucket, ascending. O(log n + m) via the skip list.
func (k *Keeper) openMaturitiesUpTo(ctx sdk.Context, bucket uint64) []uint64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.ensureMaturityIndex(ctx)
	var out []uint64
	for el := k.maturityIndex.Front(); el != nil; el = el.Next() {
		mt := el.Key().(uint64)
		if mt > bucket {
			break
		}
		out = append(out, mt)
	}
	return out
}
