package statsapi

import (
	"net/url"
	"sort"
	"strconv"

	"github.com/valyala/bytebufferpool"
)

// Params are provider query parameters. Order never matters: the canonical
// form sorts keys so equal parameter sets share a cache entry.
type Params map[string]string

func (p Params) Set(key, value string) Params {
	p[key] = value
	return p
}

func (p Params) SetInt(key string, value int64) Params {
	p[key] = strconv.FormatInt(value, 10)
	return p
}

// Canonical renders the params as a sorted, escaped query string.
func (p Params) Canonical() string {
	if len(p) == 0 {
		return ""
	}
	keys := make([]string, 0, len(p))
	for key := range p {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	for i, key := range keys {
		if i > 0 {
			_ = buf.WriteByte('&')
		}
		_, _ = buf.WriteString(url.QueryEscape(key))
		_ = buf.WriteByte('=')
		_, _ = buf.WriteString(url.QueryEscape(p[key]))
	}
	return buf.String()
}

func cacheKey(endpoint string, params Params) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	_, _ = buf.WriteString(endpoint)
	_ = buf.WriteByte('?')
	_, _ = buf.WriteString(params.Canonical())
	return buf.String()
}
