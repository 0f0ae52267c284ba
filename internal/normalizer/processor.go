// Package normalizer turns upstream catalog entries and article pages into ArticleRecords.
package normalizer

import (
	"fmt"

	"nhkeasy/internal/config"
	"nhkeasy/internal/logger"
	"nhkeasy/internal/models"
	"nhkeasy/pkg/utils"
)

// Processor handles validation and transformation of one article.
type Processor struct {
	validator   *Validator
	transformer *Transformer
	upstream    config.UpstreamConfig
	logger      *logger.Logger
}

// NewProcessor creates a new processor instance.
func NewProcessor(upstream config.UpstreamConfig, log *logger.Logger) *Processor {
	return &Processor{
		validator:   NewValidator(),
		transformer: NewTransformer(),
		upstream:    upstream,
		logger:      log,
	}
}

// Validate checks a catalog entry before its page is fetched.
func (p *Processor) Validate(meta models.ArticleMeta) error {
	return p.validator.Validate(meta)
}

// Process builds the normalized record for meta from its article page.
// A page without a body container returns ErrBodyNotFound. An unparseable
// publish time is logged and leaves PublishedAtUTC nil.
func (p *Processor) Process(meta models.ArticleMeta, page string) (*models.ArticleRecord, error) {
	if err := p.validator.Validate(meta); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	body, err := p.transformer.ExtractBody(page)
	if err != nil {
		return nil, err
	}

	plain := p.transformer.PlainText(body)

	annotated, err := p.transformer.AnnotatedHTML(body)
	if err != nil {
		return nil, fmt.Errorf("transformation failed: %w", err)
	}

	publishedAt, err := p.transformer.ParseSourceTime(meta.PrearrangedTime)
	if err != nil {
		p.logger.Warn("Could not parse datetime", "news_id", meta.NewsID, "error", err)
	}

	return &models.ArticleRecord{
		NewsID:          meta.NewsID,
		Title:           meta.Title,
		TitleWithRuby:   meta.TitleWithRuby,
		Outline:         p.transformer.FragmentText(meta.OutlineWithRuby),
		OutlineWithRuby: meta.OutlineWithRuby,
		URL:             p.upstream.ArticleURL(meta.NewsID),
		Body:            annotated,
		BodyWithoutHTML: plain,
		ImageURL:        meta.ImageURL(),
		AudioStreamURL:  p.AudioURL(meta.EasyVoiceURI),
		PublishedAtUTC:  publishedAt,
	}, nil
}

// AudioURL derives the HLS stream URL from a voice resource identifier.
// An empty identifier yields an empty URL.
func (p *Processor) AudioURL(voiceURI string) string {
	if voiceURI == "" {
		return ""
	}

	return p.upstream.AudioURL(utils.BaseName(voiceURI))
}
