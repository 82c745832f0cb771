package command

import (
	"github.com/cruxifeedsy/cruxifeed-bot/internal/model"
)

func mainMenu(text string) Reply {
	return Reply{
		Text: text,
		Menu: [][]Button{
			{{Label: "📊 Choose Pair", Action: Action{Kind: KindSelectPair}}},
			{{Label: "🚀 Get Signal", Action: Action{Kind: KindGetSignal}}},
			{
				{Label: "⭐ Watchlist", Action: Action{Kind: KindToggleSymbol}},
				{Label: "⚙ Settings", Action: Action{Kind: KindViewSettings}},
			},
		},
	}
}

func (s *Service) pairMenu() Reply {
	rows := make([][]Button, 0, len(s.pairs)+1)
	for _, sym := range s.pairs {
		rows = append(rows, []Button{{Label: sym.Slash(), Action: Action{Kind: KindSelectPair, Symbol: sym}}})
	}
	rows = append(rows, backRow())
	return Reply{Text: "Select Currency Pair:", Menu: rows}
}

// timeframeMenu lays intervals out two per row.
func timeframeMenu() Reply {
	var rows [][]Button
	for i, iv := range model.SupportedIntervals {
		b := Button{Label: string(iv), Action: Action{Kind: KindSelectTimeframe, Interval: iv}}
		if i%2 == 0 {
			rows = append(rows, []Button{b})
		} else {
			rows[len(rows)-1] = append(rows[len(rows)-1], b)
		}
	}
	return Reply{Text: "Select Timeframe:", Menu: rows}
}

func expirationMenu() Reply {
	var rows [][]Button
	for i, exp := range model.SupportedExpirations {
		b := Button{Label: exp.String(), Action: Action{Kind: KindSelectExpiration, Expiration: exp}}
		if i%2 == 0 {
			rows = append(rows, []Button{b})
		} else {
			rows[len(rows)-1] = append(rows[len(rows)-1], b)
		}
	}
	return Reply{Text: "Select Expiration Time:", Menu: rows}
}

// watchlistMenu shows the menu pairs plus any other watched pair, with a
// check mark on the watched ones.
func (s *Service) watchlistMenu(userID int64) Reply {
	sess, _ := s.store.Session(userID)
	watched := make(map[model.Symbol]bool, len(sess.Watchlist))
	for _, sym := range sess.Watchlist {
		watched[sym] = true
	}

	symbols := append([]model.Symbol(nil), s.pairs...)
	listed := make(map[model.Symbol]bool, len(symbols))
	for _, sym := range symbols {
		listed[sym] = true
	}
	for _, sym := range sess.Watchlist {
		if !listed[sym] {
			symbols = append(symbols, sym)
		}
	}

	rows := make([][]Button, 0, len(symbols)+1)
	for _, sym := range symbols {
		label := "▫ " + sym.Slash()
		if watched[sym] {
			label = "✅ " + sym.Slash()
		}
		rows = append(rows, []Button{{Label: label, Action: Action{Kind: KindToggleSymbol, Symbol: sym}}})
	}
	rows = append(rows, backRow())
	return Reply{Text: "Tap a pair to watch or unwatch it:", Menu: rows}
}

func backRow() []Button {
	return []Button{{Label: "← Back to Main Menu", Action: Action{Kind: KindMainMenu}}}
}
