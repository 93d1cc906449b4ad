// Package extract pulls playable media URLs out of feed payloads of
// unknown depth.
package extract

import (
	"wbvideo/pkg/jsonvalue"
)

// Pattern names the key path that marks a qualifying object:
//
//	{ListKey: [ {InfoKey: {URLKey: "<url>"}}, ... ]}
//
// Only the first element of the list is inspected.
type Pattern struct {
	ListKey string
	InfoKey string
	URLKey  string
}

// DefaultPattern matches the feed's video entries
var DefaultPattern = Pattern{
	ListKey: "playback_list",
	InfoKey: "play_info",
	URLKey:  "url",
}

// PlaybackURLs returns the URL of every qualifying object in v using
// DefaultPattern
func PlaybackURLs(v *jsonvalue.Value) []string {
	return DefaultPattern.URLs(v)
}

// URLs walks v depth-first and returns one URL per qualifying object, in
// document order. An object is checked before its own members are visited,
// so a qualifying object nested inside another one is reported after it.
func (p Pattern) URLs(v *jsonvalue.Value) []string {
	var urls []string
	jsonvalue.Walk(v, func(node *jsonvalue.Value) {
		if url, ok := p.match(node); ok {
			urls = append(urls, url)
		}
	})
	return urls
}

func (p Pattern) match(node *jsonvalue.Value) (string, bool) {
	if !node.IsObject() {
		return "", false
	}
	list, ok := node.Get(p.ListKey)
	if !ok || !list.IsArray() || !list.Truthy() {
		return "", false
	}
	info, ok := list.Index(0).Get(p.InfoKey)
	if !ok || !info.Truthy() {
		return "", false
	}
	field, ok := info.Get(p.URLKey)
	if !ok {
		return "", false
	}
	url, ok := field.Str()
	if !ok || url == "" {
		return "", false
	}
	return url, true
}
