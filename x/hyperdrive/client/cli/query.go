package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
)

// GetQueryCmd returns the cli query commands for the hyperdrive module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "hyperdrive",
		Short:                      "Querying commands for the hyperdrive module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdQueryPoolConfig(),
		CmdQueryMarketState(),
		CmdQueryCheckpoint(),
		CmdQuerySpotRate(),
		CmdQueryPosition(),
	)

	return cmd
}

// CmdQueryPoolConfig returns the command to query the pool configuration
func CmdQueryPoolConfig() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Query the pool configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			// For MVP demo, return sample config
			config := map[string]interface{}{
				"initial_share_price":        "1.000000000000000000",
				"time_stretch":               "0.044570000000000000",
				"position_duration":          "31536000",
				"checkpoint_duration":        "86400",
				"minimum_share_reserves":     "10.000000000000000000",
				"minimum_transaction_amount": "0.001000000000000000",
				"fees": map[string]string{
					"curve":             "0.100000000000000000",
					"flat":              "0.000500000000000000",
					"governance_lp":     "0.150000000000000000",
					"governance_zombie": "0.030000000000000000",
				},
			}

			output, _ := json.MarshalIndent(config, "", "  ")
			fmt.Println(string(output))
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryMarketState returns the command to query the market state
func CmdQueryMarketState() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Query the current market state",
		RunE: func(cmd *cobra.Command, args []string) error {
			// For MVP demo
			state := map[string]interface{}{
				"share_reserves":      "500000.000000000000000000",
				"bond_reserves":       "1523044.120000000000000000",
				"longs_outstanding":   "12050.500000000000000000",
				"shorts_outstanding":  "8800.000000000000000000",
				"spot_price":          "0.952380952380952380",
				"fixed_rate":          "0.050000000000000000",
				"lp_share_price":      "1.002150000000000000",
			}

			output, _ := json.MarshalIndent(state, "", "  ")
			fmt.Println(string(output))
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryCheckpoint returns the command to query a checkpoint
func CmdQueryCheckpoint() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint [checkpoint-time]",
		Short: "Query the checkpoint at a bucket boundary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// For MVP demo
			checkpoint := map[string]interface{}{
				"checkpoint_time":   args[0],
				"share_price":       "1.013500000000000000",
				"long_base_volume":  "3200.000000000000000000",
				"short_base_volume": "1150.000000000000000000",
			}

			output, _ := json.MarshalIndent(checkpoint, "", "  ")
			fmt.Println(string(output))
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQuerySpotRate returns the command to query the pool's fixed rate
func CmdQuerySpotRate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Query the pool's current fixed rate",
		RunE: func(cmd *cobra.Command, args []string) error {
			// For MVP demo
			rate := map[string]interface{}{
				"spot_price": "0.952380952380952380",
				"fixed_rate": "0.050000000000000000",
			}

			output, _ := json.MarshalIndent(rate, "", "  ")
			fmt.Println(string(output))
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryPosition returns the command to query a position balance
func CmdQueryPosition() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "position [asset-id] [account]",
		Short: "Query an account's balance of a position asset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// For MVP demo
			position := map[string]interface{}{
				"asset_id": args[0],
				"account":  args[1],
				"balance":  "1000.000000000000000000",
			}

			output, _ := json.MarshalIndent(position, "", "  ")
			fmt.Println(string(output))
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}
