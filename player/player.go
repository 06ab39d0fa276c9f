// Package player turns admin-entered streaming servers into iframe sources.
//
// A server URL is either a plain http(s) link or a pasted embed snippet
// such as <iframe src="...">. Pages never echo the snippet; they render
// their own iframe around the resolved source.
package player

import (
	"errors"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/moonlightbl/moonlight/catalog"
)

// ErrNoSource is returned when a server has no usable http(s) source.
var ErrNoSource = errors.New("player: no usable source")

// Embed is a resolved, safe-to-render player.
type Embed struct {
	Src       string `json:"src"`
	Name      string `json:"name"`
	Quality   string `json:"quality,omitempty"`
	Audio     string `json:"audio,omitempty"`
	Subtitles string `json:"subtitles,omitempty"`
}

// Resolve extracts the player source of sv.
func Resolve(sv catalog.Server) (Embed, error) {
	src, err := source(sv.URL)
	if err != nil {
		return Embed{}, err
	}
	name := strings.TrimSpace(sv.Name)
	if name == "" {
		if u, err := url.Parse(src); err == nil {
			name = u.Hostname()
		}
	}
	return Embed{
		Src:       src,
		Name:      name,
		Quality:   sv.Quality,
		Audio:     sv.Audio,
		Subtitles: sv.Subtitles,
	}, nil
}

// ResolveAll resolves the active servers of a content or episode in
// display order, skipping the ones without a usable source.
func ResolveAll(servers []catalog.Server) []Embed {
	active := ActiveServers(servers)
	out := make([]Embed, 0, len(active))
	for _, sv := range active {
		if e, err := Resolve(sv); err == nil {
			out = append(out, e)
		}
	}
	return out
}

// ActiveServers returns the active servers sorted by Order, then Name.
func ActiveServers(servers []catalog.Server) []catalog.Server {
	out := make([]catalog.Server, 0, len(servers))
	for _, sv := range servers {
		if sv.IsActive {
			out = append(out, sv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func source(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrNoSource
	}
	if !strings.HasPrefix(raw, "<") {
		return checkURL(raw)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", err
	}
	var src string
	doc.Find("iframe[src], embed[src], video[src], source[src]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		v, _ := sel.Attr("src")
		if s, err := checkURL(v); err == nil {
			src = s
			return false
		}
		return true
	})
	if src == "" {
		return "", ErrNoSource
	}
	return src, nil
}

// checkURL accepts absolute http(s) URLs. Protocol-relative URLs become https.
func checkURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", ErrNoSource
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrNoSource
	}
	return u.String(), nil
}
