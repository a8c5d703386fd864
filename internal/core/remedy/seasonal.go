package remedy

import "time"

// Season 季節
type Season string

const (
	Winter Season = "winter"
	Spring Season = "spring"
	Summer Season = "summer"
	Autumn Season = "autumn"
)

var seasonalRemedies = map[Season][]string{
	Winter: {"Masala Chai", "Hot Apple Cider", "Ginger Lemon Tea"},
	Spring: {"Jasmine Green Tea", "Nettle Tea", "Strawberry Smoothie"},
	Summer: {"Iced Hibiscus Tea", "Cold Brew Coffee", "Watermelon Mint Cooler"},
	Autumn: {"Pumpkin Spice Latte", "Rooibos Chai", "Apple Cinnamon Tea"},
}

var funFacts = []string{
	"Tea is the second most consumed beverage in the world after water!",
	"Coffee beans are actually the seeds of a cherry-like fruit.",
	"Peppermint has been used to soothe headaches since ancient Egypt.",
	"Chamomile is a member of the daisy family.",
	"Green tea and black tea come from the same plant, Camellia sinensis.",
	"Honey never spoils when it is stored properly.",
	"Ginger has been traded as a spice for more than 4,000 years.",
	"Turmeric gets its golden color from curcumin.",
}

// SeasonOf 月份對應的季節，12-2 月為冬季
func SeasonOf(m time.Month) Season {
	switch m {
	case time.December, time.January, time.February:
		return Winter
	case time.March, time.April, time.May:
		return Spring
	case time.June, time.July, time.August:
		return Summer
	default:
		return Autumn
	}
}

// SeasonalRemedies 當季推薦，固定三項
func SeasonalRemedies(m time.Month) []string {
	return append([]string(nil), seasonalRemedies[SeasonOf(m)]...)
}

// FunFacts 冷知識清單
func FunFacts() []string {
	return append([]string(nil), funFacts...)
}
