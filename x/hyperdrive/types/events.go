package types

// Event types
const (
	EventTypeInitialize              = "hyperdrive_initialize"
	EventTypeAddLiquidity            = "hyperdrive_add_liquidity"
	EventTypeRemoveLiquidity         = "hyperdrive_remove_liquidity"
	EventTypeRedeemWithdrawalShares  = "hyperdrive_redeem_withdrawal_shares"
	EventTypeOpenLong                = "hyperdrive_open_long"
	EventTypeCloseLong               = "hyperdrive_close_long"
	EventTypeOpenShort               = "hyperdrive_open_short"
	EventTypeCloseShort              = "hyperdrive_close_short"
	EventTypeCheckpoint              = "hyperdrive_checkpoint"
	EventTypeCollectGovernanceFees   = "hyperdrive_collect_governance_fees"
)

// Event attribute keys
const (
	AttributeKeyTradeID          = "trade_id"
	AttributeKeyTrader           = "trader"
	AttributeKeyProvider         = "provider"
	AttributeKeyDestination      = "destination"
	AttributeKeyMaturityTime     = "maturity_time"
	AttributeKeyCheckpointTime   = "checkpoint_time"
	AttributeKeyBaseAmount       = "base_amount"
	AttributeKeyBondAmount       = "bond_amount"
	AttributeKeyShareAmount      = "share_amount"
	AttributeKeySharePrice       = "share_price"
	AttributeKeyLPShares         = "lp_shares"
	AttributeKeyWithdrawalShares = "withdrawal_shares"
	AttributeKeyProceeds         = "proceeds"
	AttributeKeyMaturedLongs     = "matured_longs"
	AttributeKeyMaturedShorts    = "matured_shorts"
	AttributeKeyCollector        = "collector"
)
