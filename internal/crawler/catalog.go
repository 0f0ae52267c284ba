package crawler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"nhkeasy/internal/models"
)

// ErrCatalogFetch indicates the news list could not be fetched or decoded.
var ErrCatalogFetch = errors.New("failed to fetch news list")

// ParseCatalog decodes the news list. The upstream returns either a bare
// date-keyed mapping or a sequence whose first element is that mapping.
func ParseCatalog(data []byte) (models.Catalog, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrCatalogFetch)
	}

	if trimmed[0] == '[' {
		var wrapped []models.Catalog
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCatalogFetch, err)
		}

		if len(wrapped) == 0 || wrapped[0] == nil {
			return models.Catalog{}, nil
		}

		return wrapped[0], nil
	}

	catalog := models.Catalog{}
	if err := json.Unmarshal(trimmed, &catalog); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogFetch, err)
	}

	return catalog, nil
}
