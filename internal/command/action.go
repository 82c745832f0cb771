// Package command maps user actions from the chat transport onto the
// subscription store and the signal engine. Raw callback strings and
// message text are decoded into an Action once, at the boundary.
package command

import (
	"strconv"
	"strings"

	"github.com/cruxifeedsy/cruxifeed-bot/internal/model"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindStart
	KindMainMenu
	KindSubmitCode
	KindSelectPair
	KindSelectTimeframe
	KindSelectExpiration
	KindToggleSymbol
	KindGetSignal
	KindViewSettings
	KindAddSymbol
	KindRemoveSymbol
)

var kindNames = map[Kind]string{
	KindUnknown:          "unknown",
	KindStart:            "start",
	KindMainMenu:         "main_menu",
	KindSubmitCode:       "submit_code",
	KindSelectPair:       "select_pair",
	KindSelectTimeframe:  "select_timeframe",
	KindSelectExpiration: "select_expiration",
	KindToggleSymbol:     "toggle_symbol",
	KindGetSignal:        "get_signal",
	KindViewSettings:     "view_settings",
	KindAddSymbol:        "add_symbol",
	KindRemoveSymbol:     "remove_symbol",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Action is one decoded user action. Only the fields relevant to Kind are
// set. For SelectPair, SelectTimeframe, SelectExpiration and ToggleSymbol a
// zero payload means "show the menu" rather than "pick this value".
type Action struct {
	Kind       Kind
	Symbol     model.Symbol
	Interval   model.Interval
	Expiration model.Expiration
	Code       string
	Raw        string
}

// Callback data prefixes. Telegram limits callback data to 64 bytes.
const (
	cbStart    = "start"
	cbMenu     = "menu"
	cbPair     = "pair"
	cbTF       = "tf"
	cbExp      = "exp"
	cbWatch    = "watch"
	cbSignal   = "signal"
	cbSettings = "settings"
	cbAdd      = "add"
	cbRemove   = "rm"
	cbSep      = "_"
)

// CallbackData encodes the action for an inline button. Submitted codes and
// unknown actions have no button form and encode as "".
func (a Action) CallbackData() string {
	switch a.Kind {
	case KindStart:
		return cbStart
	case KindMainMenu:
		return cbMenu
	case KindSelectPair:
		return withPayload(cbPair, symbolPayload(a.Symbol))
	case KindSelectTimeframe:
		return withPayload(cbTF, string(a.Interval))
	case KindSelectExpiration:
		if a.Expiration == 0 {
			return cbExp
		}
		return withPayload(cbExp, strconv.Itoa(int(a.Expiration)))
	case KindToggleSymbol:
		return withPayload(cbWatch, symbolPayload(a.Symbol))
	case KindGetSignal:
		return cbSignal
	case KindViewSettings:
		return cbSettings
	case KindAddSymbol:
		return withPayload(cbAdd, symbolPayload(a.Symbol))
	case KindRemoveSymbol:
		return withPayload(cbRemove, symbolPayload(a.Symbol))
	}
	return ""
}

func symbolPayload(s model.Symbol) string {
	if s.IsZero() {
		return ""
	}
	return s.String()
}

func withPayload(prefix, payload string) string {
	if payload == "" {
		return prefix
	}
	return prefix + cbSep + payload
}

var symbolKinds = map[string]Kind{
	cbPair:   KindSelectPair,
	cbWatch:  KindToggleSymbol,
	cbAdd:    KindAddSymbol,
	cbRemove: KindRemoveSymbol,
}

// DecodeCallback turns inline button data back into an Action.
func DecodeCallback(data string) Action {
	prefix, payload, _ := strings.Cut(data, cbSep)
	unknown := Action{Kind: KindUnknown, Raw: data}

	switch prefix {
	case cbStart:
		return Action{Kind: KindStart}
	case cbMenu:
		return Action{Kind: KindMainMenu}
	case cbSignal:
		return Action{Kind: KindGetSignal}
	case cbSettings:
		return Action{Kind: KindViewSettings}
	case cbTF:
		if payload == "" {
			return Action{Kind: KindSelectTimeframe}
		}
		iv, err := model.ParseInterval(payload)
		if err != nil {
			return unknown
		}
		return Action{Kind: KindSelectTimeframe, Interval: iv}
	case cbExp:
		if payload == "" {
			return Action{Kind: KindSelectExpiration}
		}
		n, err := strconv.Atoi(payload)
		if err != nil || !model.Expiration(n).Valid() {
			return unknown
		}
		return Action{Kind: KindSelectExpiration, Expiration: model.Expiration(n)}
	case cbPair, cbWatch, cbAdd, cbRemove:
		kind := symbolKinds[prefix]
		if payload == "" {
			if kind == KindAddSymbol || kind == KindRemoveSymbol {
				return unknown
			}
			return Action{Kind: kind}
		}
		sym, err := model.ParseSymbol(payload)
		if err != nil {
			return unknown
		}
		return Action{Kind: kind, Symbol: sym}
	}
	return unknown
}

// DecodeText turns a chat message into an Action. Slash commands map to
// their actions; any other text is treated as an access code.
func DecodeText(text string) Action {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		if text == "" {
			return Action{Kind: KindUnknown}
		}
		return Action{Kind: KindSubmitCode, Code: text}
	}

	fields := strings.Fields(text)
	cmd := strings.ToLower(fields[0])
	// "/start@SomeBot" in group chats.
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	arg := strings.Join(fields[1:], "")

	switch cmd {
	case "/start":
		return Action{Kind: KindStart}
	case "/menu":
		return Action{Kind: KindMainMenu}
	case "/signal":
		return Action{Kind: KindGetSignal}
	case "/settings":
		return Action{Kind: KindViewSettings}
	case "/pairs":
		return Action{Kind: KindSelectPair}
	case "/watchlist":
		return Action{Kind: KindToggleSymbol}
	case "/timeframe":
		if arg == "" {
			return Action{Kind: KindSelectTimeframe}
		}
		if iv, err := model.ParseInterval(arg); err == nil {
			return Action{Kind: KindSelectTimeframe, Interval: iv}
		}
	case "/add", "/remove":
		sym, err := model.ParseSymbol(arg)
		if err != nil {
			break
		}
		if cmd == "/add" {
			return Action{Kind: KindAddSymbol, Symbol: sym}
		}
		return Action{Kind: KindRemoveSymbol, Symbol: sym}
	}
	return Action{Kind: KindUnknown, Raw: text}
}
