package platformmodule

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	catalogerrors "github.com/mantonx/mediacat/internal/errors"
	"github.com/mantonx/mediacat/internal/logger"
	"github.com/mantonx/mediacat/internal/models"
)

const dailymotionAPIBase = "https://api.dailymotion.com"

// DailymotionProvider integrates remotely hosted videos. The platform's
// delivery catalog is immutable once published, so a record with any
// resolved source never needs another fetch.
type DailymotionProvider struct {
	apiBase string
	token   string
	client  *http.Client
	log     hclog.Logger
}

// NewDailymotionProvider creates a provider using the given API token.
func NewDailymotionProvider(token string) *DailymotionProvider {
	return &DailymotionProvider{
		apiBase: dailymotionAPIBase,
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     logger.Named("platform-dailymotion"),
	}
}

// Type implements Provider.
func (p *DailymotionProvider) Type() string { return "dailymotion" }

// SingleFetch implements Provider.
func (p *DailymotionProvider) SingleFetch() bool { return true }

// dailymotionVideo is the subset of the video resource the catalog reads.
type dailymotionVideo struct {
	Published bool              `json:"published"`
	Qualities map[string][]struct {
		URL  string `json:"url"`
		Type string `json:"type"`
	} `json:"qualities"`
}

// GetMediaInfo fetches the published qualities of each video. When
// expectedHeight is non-zero only that quality (and below) is kept.
func (p *DailymotionProvider) GetMediaInfo(ctx context.Context, mediaIDs []string, expectedHeight int) (*Info, error) {
	info := &Info{Available: true}
	for _, id := range mediaIDs {
		var video dailymotionVideo
		query := "?fields=published,qualities"
		if err := p.call(ctx, http.MethodGet, "/video/"+url.PathEscape(id)+query, nil, &video); err != nil {
			return nil, err
		}
		if !video.Published {
			info.Available = false
		}

		source := models.Source{}
		for quality, renditions := range video.Qualities {
			height := qualityHeight(quality)
			if expectedHeight > 0 && height > expectedHeight {
				continue
			}
			for _, r := range renditions {
				source.Files = append(source.Files, models.SourceFile{
					Link:     r.URL,
					MimeType: r.Type,
					Height:   height,
				})
			}
		}
		info.Sources = append(info.Sources, source)
	}
	return info, nil
}

// Remove deletes the videos from the platform.
func (p *DailymotionProvider) Remove(ctx context.Context, mediaIDs []string) error {
	for _, id := range mediaIDs {
		if err := p.call(ctx, http.MethodDelete, "/video/"+url.PathEscape(id), nil, nil); err != nil {
			return err
		}
	}
	return nil
}

// Update pushes title and description changes upstream. The platform
// protects published videos from edits; force republishes them anyway.
func (p *DailymotionProvider) Update(ctx context.Context, record *models.Media, changes *models.MediaUpdate, force bool) error {
	form := url.Values{}
	if changes.Title != nil {
		form.Set("title", *changes.Title)
	}
	if changes.Description != nil {
		form.Set("description", *changes.Description)
	}
	if force {
		form.Set("published", "true")
	}
	if len(form) == 0 {
		return nil
	}
	for _, id := range record.MediaID {
		if err := p.call(ctx, http.MethodPost, "/video/"+url.PathEscape(id), form, nil); err != nil {
			return err
		}
	}
	return nil
}

func (p *DailymotionProvider) call(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req, err := http.NewRequestWithContext(ctx, method, p.apiBase+path, body)
	if err != nil {
		return catalogerrors.Upstream("platform.dailymotion", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return catalogerrors.Upstream("platform.dailymotion", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return catalogerrors.Upstream("platform.dailymotion",
			fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return catalogerrors.Upstream("platform.dailymotion", err)
		}
	}
	return nil
}

// qualityHeight maps the platform's quality labels to rendition heights.
func qualityHeight(quality string) int {
	switch quality {
	case "240":
		return 240
	case "380":
		return 380
	case "480":
		return 480
	case "720":
		return 720
	case "1080":
		return 1080
	default:
		return 0
	}
}
