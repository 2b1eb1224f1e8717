package platformmodule

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-hclog"

	catalogerrors "github.com/mantonx/mediacat/internal/errors"
	"github.com/mantonx/mediacat/internal/logger"
	"github.com/mantonx/mediacat/internal/models"
)

// WowzaProvider talks to the streaming server's management API. Its media
// ids are application stream names; resolved links are adaptive manifest
// paths relative to the streaming server.
type WowzaProvider struct {
	apiBase string
	client  *http.Client
	log     hclog.Logger
}

// NewWowzaProvider creates a provider against the given management API base.
func NewWowzaProvider(apiBase string) *WowzaProvider {
	return &WowzaProvider{
		apiBase: apiBase,
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     logger.Named("platform-wowza"),
	}
}

// Type implements Provider.
func (p *WowzaProvider) Type() string { return "wowza" }

// SingleFetch implements Provider: renditions appear incrementally while the
// server packages them, so each media id resolves independently.
func (p *WowzaProvider) SingleFetch() bool { return false }

// wowzaStreamInfo is the management API response for one stream.
type wowzaStreamInfo struct {
	Available bool `json:"available"`
	Manifests []struct {
		Path     string `json:"path"`
		MimeType string `json:"mimeType"`
		Height   int    `json:"height"`
	} `json:"manifests"`
}

// GetMediaInfo fetches one source per stream name. expectedHeight, when
// non-zero, drops manifests above that rendition height.
func (p *WowzaProvider) GetMediaInfo(ctx context.Context, mediaIDs []string, expectedHeight int) (*Info, error) {
	info := &Info{Available: true}
	for _, id := range mediaIDs {
		var stream wowzaStreamInfo
		if err := p.getJSON(ctx, "/v2/streams/"+url.PathEscape(id), &stream); err != nil {
			return nil, err
		}
		if !stream.Available {
			info.Available = false
		}

		source := models.Source{}
		for _, m := range stream.Manifests {
			if expectedHeight > 0 && m.Height > expectedHeight {
				continue
			}
			source.Adaptive = append(source.Adaptive, models.AdaptiveSource{
				Link:     m.Path,
				MimeType: m.MimeType,
				Height:   m.Height,
			})
		}
		info.Sources = append(info.Sources, source)
	}
	return info, nil
}

// Remove deletes the streams from the server.
func (p *WowzaProvider) Remove(ctx context.Context, mediaIDs []string) error {
	for _, id := range mediaIDs {
		if err := p.do(ctx, http.MethodDelete, "/v2/streams/"+url.PathEscape(id), nil); err != nil {
			return err
		}
	}
	return nil
}

// Update pushes the record title to the stream metadata. The streaming
// server has no edit protection, so force is ignored.
func (p *WowzaProvider) Update(ctx context.Context, record *models.Media, changes *models.MediaUpdate, _ bool) error {
	if changes.Title == nil {
		return nil
	}
	body := map[string]string{"title": *changes.Title}
	for _, id := range record.MediaID {
		if err := p.do(ctx, http.MethodPatch, "/v2/streams/"+url.PathEscape(id), body); err != nil {
			return err
		}
	}
	return nil
}

func (p *WowzaProvider) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBase+path, nil)
	if err != nil {
		return catalogerrors.Upstream("platform.wowza", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return catalogerrors.Upstream("platform.wowza", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return catalogerrors.Upstream("platform.wowza",
			fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return catalogerrors.Upstream("platform.wowza", err)
	}
	return nil
}

func (p *WowzaProvider) do(ctx context.Context, method, path string, body interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return catalogerrors.Upstream("platform.wowza", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, p.apiBase+path, &buf)
	if err != nil {
		return catalogerrors.Upstream("platform.wowza", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return catalogerrors.Upstream("platform.wowza", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest && resp.StatusCode != http.StatusNotFound {
		return catalogerrors.Upstream("platform.wowza",
			fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path))
	}
	return nil
}
