// Package intent 把自由文本 query 解析为结构化的搜索意图：
// 类目提示、排序提示、价格约束、剥离修饰词后的检索文本。
//
// Parse 是纯函数：无副作用、确定性输出（关键词表采用固定顺序的切片而非
// map，避免哈希序导致的不确定匹配）。
package intent

import (
	"regexp"
	"strconv"
	"strings"
)

// 排序提示常量
const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRating    = "rating"
)

// 修饰词类型（Intent.Modifiers 的取值）
const (
	ModifierCategory   = "category"
	ModifierBrand      = "brand"
	ModifierBudget     = "budget"
	ModifierPremium    = "premium"
	ModifierQuality    = "quality"
	ModifierPriceRange = "price_range"
	ModifierPriceMax   = "price_max"
	ModifierPriceMin   = "price_min"
)

// Intent 是 query 的结构化解释。
type Intent struct {
	CleanQuery string   // 剥离价格短语与修饰词后的检索文本；剥空时回退为原始 query
	Category   string   // 类目提示，可为空
	FromBrand  bool     // 类目提示来自品牌词（检索时应保留原始 query，品牌词本身是有效检索文本）
	Sort       string   // "" / price_asc / price_desc / rating
	MinPrice   *float64 // 显式价格下界
	MaxPrice   *float64 // 显式价格上界
	Modifiers  []string // 检出的意图类型，按检出顺序
}

// keywordEntry 保证类目匹配按固定顺序迭代（first match wins）。
type keywordEntry struct {
	keyword  string
	category string
}

// 类目关键词表。顺序即优先级：靠前的类目先匹配。
var categoryKeywords = []keywordEntry{
	// Audio
	{"headphone", "Audio"}, {"headphones", "Audio"},
	{"earphone", "Audio"}, {"earphones", "Audio"}, {"earbuds", "Audio"},
	{"speaker", "Audio"}, {"speakers", "Audio"},
	{"airpods", "Audio"}, {"soundbar", "Audio"},
	// Electronics
	{"phone", "Electronics"}, {"phones", "Electronics"},
	{"mobile", "Electronics"}, {"mobiles", "Electronics"},
	{"smartphone", "Electronics"},
	{"tablet", "Electronics"}, {"tablets", "Electronics"},
	{"tv", "Electronics"}, {"television", "Electronics"},
	// Computers
	{"laptop", "Computers"}, {"laptops", "Computers"},
	{"notebook", "Computers"}, {"computer", "Computers"},
	{"pc", "Computers"}, {"desktop", "Computers"},
	// Photography
	{"camera", "Photography"}, {"cameras", "Photography"},
	{"dslr", "Photography"}, {"lens", "Photography"},
	{"tripod", "Photography"}, {"drone", "Photography"},
	// Accessories
	{"accessory", "Accessories"}, {"accessories", "Accessories"},
	{"case", "Accessories"}, {"charger", "Accessories"},
	{"cable", "Accessories"}, {"mouse", "Accessories"}, {"keyboard", "Accessories"},
	// Gaming
	{"gaming", "Gaming"}, {"game", "Gaming"},
	{"playstation", "Gaming"}, {"console", "Gaming"}, {"controller", "Gaming"},
	// Networking
	{"router", "Networking"}, {"wifi", "Networking"},
	{"modem", "Networking"}, {"network", "Networking"}, {"mesh", "Networking"},
	// Smart Home
	{"smart home", "Smart Home"}, {"alexa", "Smart Home"},
	{"echo", "Smart Home"}, {"nest", "Smart Home"},
	{"bulb", "Smart Home"}, {"smart light", "Smart Home"},
	// Storage
	{"storage", "Storage"}, {"ssd", "Storage"}, {"hdd", "Storage"},
	{"drive", "Storage"}, {"pendrive", "Storage"}, {"memory card", "Storage"},
}

// 品牌关键词表：品牌 -> 其主营类目。类目词未命中时兜底。
var brandKeywords = []keywordEntry{
	{"boat", "Audio"}, {"jbl", "Audio"}, {"sony", "Audio"},
	{"samsung", "Electronics"}, {"apple", "Electronics"},
	{"xiaomi", "Electronics"}, {"oneplus", "Electronics"},
	{"hp", "Computers"}, {"dell", "Computers"},
	{"lenovo", "Computers"}, {"asus", "Computers"},
	{"canon", "Photography"}, {"nikon", "Photography"}, {"dji", "Photography"},
	{"logitech", "Accessories"},
	{"razer", "Gaming"}, {"xbox", "Gaming"},
	{"tp-link", "Networking"}, {"tplink", "Networking"}, {"netgear", "Networking"},
	{"philips", "Smart Home"}, {"amazon", "Smart Home"},
	{"wd", "Storage"},
}

// 价格敏感修饰词。budget -> price_asc；premium -> price_desc。
// 固定优先级：两者同时出现时 premium 覆盖 budget（premium beats budget）；
// quality -> rating 仅在没有任何价格排序提示时生效。
var (
	budgetKeywords  = []string{"cheap", "budget", "affordable", "inexpensive", "low cost", "value"}
	premiumKeywords = []string{"premium", "expensive", "luxury", "high end", "flagship", "pro"}
	qualityKeywords = []string{"best", "top", "highest rated", "popular", "recommended", "great"}
)

// 价格短语的三个正则族。range 优先于单边 under/over
// （"between 100 and 500 under 50" 解析为 min=100, max=500）。
var (
	priceRangePattern = regexp.MustCompile(`(?:between\s+)?\$?\s*(\d+(?:,\d{3})*)\s*(?:to|and|-)\s*\$?\s*(\d+(?:,\d{3})*)`)
	priceUnderPattern = regexp.MustCompile(`(?:under|below|less than|max|upto|up to)\s*\$?\s*(\d+(?:,\d{3})*(?:\.\d{2})?)`)
	priceOverPattern  = regexp.MustCompile(`(?:over|above|more than|min|at least)\s*\$?\s*(\d+(?:,\d{3})*(?:\.\d{2})?)`)
)

// Parse 解析 query 并返回结构化意图。纯函数，同一输入必产生相同输出。
func Parse(query string) Intent {
	normalized := normalize(query)
	out := Intent{}

	// 类目：先查类目词表，未命中再查品牌词表，整词匹配，first match wins
	for _, e := range categoryKeywords {
		if containsPhrase(normalized, e.keyword) {
			out.Category = e.category
			out.Modifiers = append(out.Modifiers, ModifierCategory)
			break
		}
	}
	if out.Category == "" {
		for _, e := range brandKeywords {
			if containsPhrase(normalized, e.keyword) {
				out.Category = e.category
				out.FromBrand = true
				out.Modifiers = append(out.Modifiers, ModifierBrand)
				break
			}
		}
	}

	// 排序提示：budget 与 premium 独立检测，premium 覆盖 budget
	for _, kw := range budgetKeywords {
		if containsPhrase(normalized, kw) {
			out.Sort = SortPriceAsc
			out.Modifiers = append(out.Modifiers, ModifierBudget)
			break
		}
	}
	for _, kw := range premiumKeywords {
		if containsPhrase(normalized, kw) {
			out.Sort = SortPriceDesc
			out.Modifiers = append(out.Modifiers, ModifierPremium)
			break
		}
	}
	// quality -> rating 仅在无价格排序时生效
	if out.Sort == "" {
		for _, kw := range qualityKeywords {
			if containsPhrase(normalized, kw) {
				out.Sort = SortRating
				out.Modifiers = append(out.Modifiers, ModifierQuality)
				break
			}
		}
	}

	// 价格约束：range 优先，命中后不再看单边短语
	if m := priceRangePattern.FindStringSubmatch(normalized); m != nil {
		lo, hi := parsePrice(m[1]), parsePrice(m[2])
		out.MinPrice = &lo
		out.MaxPrice = &hi
		out.Modifiers = append(out.Modifiers, ModifierPriceRange)
	} else {
		if m := priceUnderPattern.FindStringSubmatch(normalized); m != nil {
			hi := parsePrice(m[1])
			out.MaxPrice = &hi
			out.Modifiers = append(out.Modifiers, ModifierPriceMax)
		}
		if m := priceOverPattern.FindStringSubmatch(normalized); m != nil {
			lo := parsePrice(m[1])
			out.MinPrice = &lo
			out.Modifiers = append(out.Modifiers, ModifierPriceMin)
		}
	}

	// 清洗检索文本：剥离价格短语与修饰词，剥空则回退为原始 query
	clean := normalized
	clean = priceRangePattern.ReplaceAllString(clean, "")
	clean = priceUnderPattern.ReplaceAllString(clean, "")
	clean = priceOverPattern.ReplaceAllString(clean, "")
	for _, kw := range budgetKeywords {
		clean = stripPhrase(clean, kw)
	}
	for _, kw := range premiumKeywords {
		clean = stripPhrase(clean, kw)
	}
	for _, kw := range qualityKeywords {
		clean = stripPhrase(clean, kw)
	}
	clean = strings.Join(strings.Fields(clean), " ")
	if clean == "" {
		clean = query
	}
	out.CleanQuery = clean

	return out
}

// normalize 小写化并折叠空白。
func normalize(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// containsPhrase 整词匹配：phrase 必须落在词边界上
// （"pro" 不命中 "protector"，"smart home" 要求两个词连续出现）。
func containsPhrase(text, phrase string) bool {
	padded := " " + text + " "
	return strings.Contains(padded, " "+phrase+" ")
}

// stripPhrase 按词边界移除 phrase 的所有出现。
func stripPhrase(text, phrase string) string {
	padded := " " + text + " "
	for {
		replaced := strings.Replace(padded, " "+phrase+" ", " ", 1)
		if replaced == padded {
			break
		}
		padded = replaced
	}
	return strings.TrimSpace(padded)
}

// parsePrice 解析带千分位逗号的价格字符串。
func parsePrice(s string) float64 {
	v, _ := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	return v
}
