package view

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Messages are the localized strings shown by the dashboard.
type Messages struct {
	Title        string
	Refresh      string
	LastUpdate   string
	BestProxy    string
	ProxyList    string
	HeaderURL    string
	HeaderStatus string
	HeaderDelay  string

	Loading      string
	Unknown      string
	NoProxy      string
	NotAvailable string
	NoData       string
	LoadFailed   string
}

const (
	msgTitle        = "Proxy Status"
	msgRefresh      = "Refresh"
	msgLastUpdate   = "Last update:"
	msgBestProxy    = "Best proxy:"
	msgProxyList    = "Proxies"
	msgHeaderURL    = "Proxy URL"
	msgHeaderStatus = "Status"
	msgHeaderDelay  = "Delay (ms)"
	msgLoading      = "Loading..."
	msgUnknown      = "Unknown"
	msgNoProxy      = "No proxy available"
	msgNotAvailable = "N/A"
	msgNoData       = "No data"
	msgLoadFailed   = "Load failed"
)

var supportedLanguages = []language.Tag{
	language.English,
	language.Chinese,
}

var matcher = language.NewMatcher(supportedLanguages)

func init() {
	zh := map[string]string{
		msgTitle:        "自动代理选择器",
		msgRefresh:      "刷新数据",
		msgLastUpdate:   "最后更新时间:",
		msgBestProxy:    "当前最优代理:",
		msgProxyList:    "代理列表",
		msgHeaderURL:    "代理地址",
		msgHeaderStatus: "状态",
		msgHeaderDelay:  "延迟 (ms)",
		msgLoading:      "加载中...",
		msgUnknown:      "未知",
		msgNoProxy:      "无可用代理",
		msgNotAvailable: "N/A",
		msgNoData:       "暂无数据",
		msgLoadFailed:   "加载失败",
	}

	for key, translation := range zh {
		_ = message.SetString(language.Chinese, key, translation)
		_ = message.SetString(language.English, key, key)
	}
}

// NewMessages returns the messages for the closest supported locale.
// Unknown locales fall back to English.
func NewMessages(locale string) Messages {
	_, index := language.MatchStrings(matcher, locale)
	p := message.NewPrinter(supportedLanguages[index])

	return Messages{
		Title:        p.Sprintf(msgTitle),
		Refresh:      p.Sprintf(msgRefresh),
		LastUpdate:   p.Sprintf(msgLastUpdate),
		BestProxy:    p.Sprintf(msgBestProxy),
		ProxyList:    p.Sprintf(msgProxyList),
		HeaderURL:    p.Sprintf(msgHeaderURL),
		HeaderStatus: p.Sprintf(msgHeaderStatus),
		HeaderDelay:  p.Sprintf(msgHeaderDelay),
		Loading:      p.Sprintf(msgLoading),
		Unknown:      p.Sprintf(msgUnknown),
		NoProxy:      p.Sprintf(msgNoProxy),
		NotAvailable: p.Sprintf(msgNotAvailable),
		NoData:       p.Sprintf(msgNoData),
		LoadFailed:   p.Sprintf(msgLoadFailed),
	}
}
