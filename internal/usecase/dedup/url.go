package dedup

import (
	"net/url"
	"sort"
	"strings"
)

// trackingParams — параметры, не влияющие на идентичность контента.
var trackingParams = map[string]struct{}{
	"fbclid":       {},
	"gclid":        {},
	"igshid":       {},
	"ref":          {},
	"si":           {},
	"feature":      {},
	"spm":          {},
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
}

// NormalizeURL приводит URL к канонической форме для проверки дублей:
// https, без www., без трекинговых параметров, с отсортированным query,
// без завершающего слэша и фрагмента. Пустой или неразборный ввод
// возвращается обрезанным как есть.
func NormalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return trimmed
	}

	u.Scheme = "https"
	u.Fragment = ""
	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")
	u.Host = host

	query := u.Query()
	for key := range query {
		if _, tracking := trackingParams[strings.ToLower(key)]; tracking {
			query.Del(key)
		}
	}
	if len(query) == 0 {
		u.RawQuery = ""
	} else {
		keys := make([]string, 0, len(query))
		for key := range query {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var b strings.Builder
		for _, key := range keys {
			values := query[key]
			sort.Strings(values)
			for _, value := range values {
				if b.Len() > 0 {
					b.WriteByte('&')
				}
				b.WriteString(url.QueryEscape(key))
				b.WriteByte('=')
				b.WriteString(url.QueryEscape(value))
			}
		}
		u.RawQuery = b.String()
	}

	u.Path = strings.TrimRight(u.Path, "/")
	return u.String()
}

// videoHosts — хосты, по которым заметка считается видео-контентом.
var videoHosts = []string{
	"youtube.com",
	"youtu.be",
	"vimeo.com",
	"rutube.ru",
}

// IsVideoURL сообщает, указывает ли URL на видеоплатформу.
func IsVideoURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))
	for _, vh := range videoHosts {
		if host == vh || strings.HasSuffix(host, "."+vh) {
			return true
		}
	}
	return false
}
