package normalizer

import (
	"errors"
	"strings"
	"testing"
	"time"

	"nhkeasy/internal/config"
	"nhkeasy/internal/logger"
	"nhkeasy/internal/models"
)

func newTestProcessor() *Processor {
	return NewProcessor(config.Default().Upstream, logger.Discard())
}

func TestProcessor_Process(t *testing.T) {
	p := newTestProcessor()

	meta := models.ArticleMeta{
		NewsID:          "k10012345",
		Title:           "大雨",
		TitleWithRuby:   "<ruby>大雨<rt>おおあめ</rt></ruby>",
		OutlineWithRuby: "<ruby>九州<rt>きゅうしゅう</rt></ruby>で大雨",
		PrearrangedTime: "2025-12-03 19:30:00",
		WebImageURI:     "https://www3.nhk.or.jp/news/html/20251203/K10012345_1.jpg",
		EasyVoiceURI:    "ne2025120311111_abc.m4a",
	}

	rec, err := p.Process(meta, articlePage)
	if err != nil {
		t.Fatalf("Process returned unexpected error: %v", err)
	}

	if rec.NewsID != "k10012345" || rec.Title != "大雨" {
		t.Errorf("identity fields not copied: %+v", rec)
	}

	if rec.Outline != "九州で大雨" {
		t.Errorf("Outline = %q", rec.Outline)
	}

	if rec.URL != "https://news.web.nhk/news/easy/k10012345/k10012345.html" {
		t.Errorf("URL = %q", rec.URL)
	}

	if rec.ImageURL != meta.WebImageURI {
		t.Errorf("ImageURL should fall back to the web image, got %q", rec.ImageURL)
	}

	if rec.AudioStreamURL != "https://vod-stream.nhk.jp/news/easy_audio/ne2025120311111_abc/index.m3u8" {
		t.Errorf("AudioStreamURL = %q", rec.AudioStreamURL)
	}

	if len(strings.Split(rec.BodyWithoutHTML, "\n")) != 2 {
		t.Errorf("expected 2 plain-text lines, got %q", rec.BodyWithoutHTML)
	}

	want := time.Date(2025, 12, 3, 10, 30, 0, 0, time.UTC)
	if rec.PublishedAtUTC == nil || !rec.PublishedAtUTC.Equal(want) {
		t.Errorf("PublishedAtUTC = %v, want %v", rec.PublishedAtUTC, want)
	}
}

func TestProcessor_Process_BadTimestampIsNotFatal(t *testing.T) {
	p := newTestProcessor()

	rec, err := p.Process(models.ArticleMeta{NewsID: "k1", PrearrangedTime: "soon"}, articlePage)
	if err != nil {
		t.Fatalf("Process returned unexpected error: %v", err)
	}

	if rec.PublishedAtUTC != nil {
		t.Errorf("expected nil timestamp, got %v", rec.PublishedAtUTC)
	}

	if rec.AudioStreamURL != "" {
		t.Errorf("expected empty audio URL without a voice id, got %q", rec.AudioStreamURL)
	}
}

func TestProcessor_Process_MissingBody(t *testing.T) {
	p := newTestProcessor()

	rec, err := p.Process(models.ArticleMeta{NewsID: "k1"}, "<html><body></body></html>")
	if !errors.Is(err, ErrBodyNotFound) {
		t.Errorf("expected ErrBodyNotFound, got %v", err)
	}

	if rec != nil {
		t.Error("Process expected nil result for missing body")
	}
}

func TestProcessor_Process_ValidationError(t *testing.T) {
	p := newTestProcessor()

	rec, err := p.Process(models.ArticleMeta{}, articlePage)
	if !errors.Is(err, ErrMissingNewsID) {
		t.Errorf("expected ErrMissingNewsID, got %v", err)
	}

	if rec != nil {
		t.Error("Process expected nil result for invalid input")
	}
}
