// Package models defines data structures for the ingestion pipeline and read API.
package models

import "time"

// ArticleRecord is a normalized article as stored in the news table.
type ArticleRecord struct {
	PublishedAtUTC  *time.Time `json:"publishedAtUtc"`
	NewsID          string     `json:"newsId"`
	Title           string     `json:"title"`
	TitleWithRuby   string     `json:"titleWithRuby"`
	Outline         string     `json:"outline"`
	OutlineWithRuby string     `json:"outlineWithRuby"`
	URL             string     `json:"url"`
	Body            string     `json:"body"`
	BodyWithoutHTML string     `json:"bodyWithoutHtml"`
	ImageURL        string     `json:"imageUrl"`
	AudioStreamURL  string     `json:"m3u8Url"`
}

// ArticleMeta is one raw catalog entry as published by the upstream news list.
type ArticleMeta struct {
	NewsID          string `json:"news_id"`
	Title           string `json:"title"`
	TitleWithRuby   string `json:"title_with_ruby"`
	OutlineWithRuby string `json:"outline_with_ruby"`
	PrearrangedTime string `json:"news_prearranged_time"`
	EasyImageURI    string `json:"news_easy_image_uri"`
	WebImageURI     string `json:"news_web_image_uri"`
	EasyVoiceURI    string `json:"news_easy_voice_uri"`
	WebURL          string `json:"news_web_url"`
}

// ImageURL returns the easy-news image, falling back to the regular web image.
func (m ArticleMeta) ImageURL() string {
	if m.EasyImageURI != "" {
		return m.EasyImageURI
	}

	return m.WebImageURI
}
