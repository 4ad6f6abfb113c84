package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Position ledger asset identifiers. Longs and shorts are bucketed by
// maturity time so every position opened in the same checkpoint is fungible.
const (
	assetPrefixLong  = "hyperdrive/long"
	assetPrefixShort = "hyperdrive/short"

	// AssetLP identifies active LP shares.
	AssetLP = "hyperdrive/lp"
	// AssetWithdrawalShare identifies LP shares queued for withdrawal.
	AssetWithdrawalShare = "hyperdrive/withdrawal"
)

// LongAssetID returns the ledger asset ID for longs maturing at maturityTime.
func LongAssetID(maturityTime uint64) string {
	return fmt.Sprintf("%s/%d", assetPrefixLong, maturityTime)
}

// ShortAssetID returns the ledger asset ID for shorts maturing at maturityTime.
func ShortAssetID(maturityTime uint64) string {
	return fmt.Sprintf("%s/%d", assetPrefixShort, maturityTime)
}

// ParseAssetID splits a position asset ID into its prefix and maturity time.
// LP and withdrawal share IDs return a zero maturity.
func ParseAssetID(assetID string) (prefix string, maturityTime uint64, err error) {
	switch assetID {
	case AssetLP, AssetWithdrawalShare:
		return assetID, 0, nil
	}
	idx := strings.LastIndex(assetID, "/")
	if idx < 0 {
		return "", 0, fmt.Errorf("malformed asset id %q", assetID)
	}
	prefix = assetID[:idx]
	if prefix != assetPrefixLong && prefix != assetPrefixShort {
		return "", 0, fmt.Errorf("unknown asset prefix %q", prefix)
	}
	maturityTime, err = strconv.ParseUint(assetID[idx+1:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("malformed maturity in asset id %q: %w", assetID, err)
	}
	return prefix, maturityTime, nil
}
