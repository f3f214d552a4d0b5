package cli

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	simulateChain string
	simulateUSD   string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "模拟一条鲸鱼告警并推送到 Telegram",
	RunE: func(cmd *cobra.Command, args []string) error {
		usd, err := decimal.NewFromString(simulateUSD)
		if err != nil {
			return errors.New("--usd 必须是十进制数")
		}
		if !usd.IsPositive() {
			return errors.New("--usd 必须大于 0")
		}
		return getApp().SimulateAlert(cmd.Context(), simulateChain, usd)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateChain, "chain", "eth", "链标识")
	simulateCmd.Flags().StringVar(&simulateUSD, "usd", "150000", "交易 USD 金额")
}
