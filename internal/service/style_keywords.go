package service

// styleKeywords 风格关键词白名单（编译期常量集合，不从库里加载，
// 保证打分输入封闭可审查）。候选电影中不在白名单内的关键词一律忽略。
var styleKeywords = map[string]struct{}{
	"neo-noir":               {},
	"film noir":              {},
	"whodunit":               {},
	"nonlinear timeline":     {},
	"psychological thriller": {},
	"psychological horror":   {},
	"mind-bending":           {},
	"unreliable narrator":    {},
	"twist ending":           {},
	"plot twist":             {},
	"time loop":              {},
	"time travel":            {},
	"found footage":          {},
	"mockumentary":           {},
	"slow burn":              {},
	"satire":                 {},
	"dark comedy":            {},
	"black comedy":           {},
	"coming of age":          {},
	"anthology":              {},
	"dystopia":               {},
	"cyberpunk":              {},
	"steampunk":              {},
	"space opera":            {},
	"heist":                  {},
	"revenge":                {},
	"slasher":                {},
	"body horror":            {},
	"surrealism":             {},
	"magical realism":        {},
	"courtroom drama":        {},
	"road movie":             {},
	"buddy cop":              {},
	"one location":           {},
	"real time":              {},
	"ensemble cast":          {},
	"based on true story":    {},
	"epistolary":             {},
	"silent film":            {},
	"minimalist":             {},
}
