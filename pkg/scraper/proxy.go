package scraper

import (
	"net"
	"net/url"
	"strconv"

	"github.com/spf13/cast"
)

var proxySchemes = map[int]string{
	0: "http",
	1: "socks4",
	2: "socks5",
	3: "socks4a",
	4: "http1.0",
	5: "socks5h",
}

// Proxy is the proxy descriptor handed to the job, with the numeric scheme id
// replaced by its name.
type Proxy struct {
	Type     string
	Host     string
	Port     int
	Login    string
	Password string
	// Fields is a copy of the raw descriptor with "type" already resolved.
	Fields map[string]any
}

// URL renders the proxy for HTTP clients. "http1.0" maps to the http scheme.
func (p Proxy) URL() *url.URL {
	scheme := p.Type
	if scheme == "http1.0" {
		scheme = "http"
	}
	host := p.Host
	if p.Port > 0 {
		host = net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
	}
	u := &url.URL{Scheme: scheme, Host: host}
	if p.Login != "" {
		if p.Password != "" {
			u.User = url.UserPassword(p.Login, p.Password)
		} else {
			u.User = url.User(p.Login)
		}
	}
	return u
}

func resolveProxy(raw map[string]any) (Proxy, bool) {
	rawType, ok := raw["type"]
	if !ok || rawType == nil {
		return Proxy{}, false
	}
	id, err := cast.ToIntE(rawType)
	if err != nil {
		return Proxy{}, false
	}
	scheme, ok := proxySchemes[id]
	if !ok {
		return Proxy{}, false
	}

	fields := make(map[string]any, len(raw))
	for k, v := range raw {
		fields[k] = v
	}
	fields["type"] = scheme

	return Proxy{
		Type:     scheme,
		Host:     cast.ToString(raw["host"]),
		Port:     cast.ToInt(raw["port"]),
		Login:    cast.ToString(firstSet(raw, "login", "username", "user")),
		Password: cast.ToString(raw["password"]),
		Fields:   fields,
	}, true
}

func firstSet(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}
