package app

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/straider911/9whales/internal/alerting"
)

// SimulateAlert 构造一条合成鲸鱼事件并通过真实的渲染/投递链路发送,
// 用于验证 Telegram 配置是否可用。
func (a *App) SimulateAlert(ctx context.Context, chain string, usd decimal.Decimal) error {
	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("telegram 通道未配置")
	}

	note := alerting.Notification{
		Chain:    chain,
		TxHash:   "0x0000000000000000000000000000000000000000000000000000000000000001",
		From:     "0x000000000000000000000000000000000000dead",
		To:       "0x000000000000000000000000000000000000beef",
		USDValue: usd,
	}
	return notifier.Notify(ctx, note)
}
