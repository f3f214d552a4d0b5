package alerting

import (
	"fmt"
	"html"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Notification 封装一次鲸鱼交易告警的上下文。
type Notification struct {
	Chain    string
	TxHash   string
	From     string
	To       string
	USDValue decimal.Decimal
}

// RenderMessage builds the Telegram HTML message for one alert. The USD
// value is rendered with thousands separators; precision beyond display
// needs was already spent on the threshold decision, so converting to
// float here is fine.
func RenderMessage(note Notification) string {
	builder := strings.Builder{}
	builder.WriteString("<b>🐋 Whale Alert</b>\n")
	builder.WriteString(fmt.Sprintf("Chain: %s\n", html.EscapeString(note.Chain)))
	builder.WriteString(fmt.Sprintf("Tx: <code>%s</code>\n", html.EscapeString(note.TxHash)))
	builder.WriteString(fmt.Sprintf("From: %s\n", html.EscapeString(displayAddress(note.From))))
	builder.WriteString(fmt.Sprintf("To: %s\n", html.EscapeString(displayAddress(note.To))))
	builder.WriteString(fmt.Sprintf("Value: $%s", humanize.Commaf(note.USDValue.InexactFloat64())))
	return builder.String()
}

// displayAddress renders hex addresses in EIP-55 checksum casing;
// anything else passes through untouched.
func displayAddress(addr string) string {
	if common.IsHexAddress(addr) {
		return common.HexToAddress(addr).Hex()
	}
	return addr
}
