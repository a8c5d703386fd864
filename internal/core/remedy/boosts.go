package remedy

// Boost 天氣加成
type Boost struct {
	Ingredients []string
	Note        string
}

var weatherBoosts = map[Weather]Boost{
	Cold: {
		Ingredients: []string{"ginger", "cinnamon", "turmeric"},
		Note:        "Serve it hot and add warming spices to fight the chill.",
	},
	Hot: {
		Ingredients: []string{"mint", "cucumber", "lime"},
		Note:        "Let it cool and pour over ice to stay refreshed.",
	},
	Rainy: {
		Ingredients: []string{"honey", "lemon", "cloves"},
		Note:        "A warm cup with honey and lemon is comforting on a rainy day.",
	},
}

// WeatherBoost 取得天氣加成，表中沒有的天氣回傳 false
func WeatherBoost(w Weather) (Boost, bool) {
	b, ok := weatherBoosts[w]
	if !ok {
		return Boost{}, false
	}
	return Boost{
		Ingredients: append([]string(nil), b.Ingredients...),
		Note:        b.Note,
	}, true
}
