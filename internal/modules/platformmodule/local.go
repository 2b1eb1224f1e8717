package platformmodule

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	catalogerrors "github.com/mantonx/mediacat/internal/errors"
	"github.com/mantonx/mediacat/internal/logger"
	"github.com/mantonx/mediacat/internal/models"
)

// LocalProvider serves media straight off the asset filesystem: its media
// ids are file paths relative to the source directory, and the produced
// links are the same relative paths, resolved against the CDN at read time.
type LocalProvider struct {
	sourceDir string
	log       hclog.Logger
}

// NewLocalProvider creates a provider rooted at the local source directory.
func NewLocalProvider(sourceDir string) *LocalProvider {
	return &LocalProvider{
		sourceDir: sourceDir,
		log:       logger.Named("platform-local"),
	}
}

// Type implements Provider.
func (p *LocalProvider) Type() string { return "local" }

// SingleFetch implements Provider: every file resolves to its own source.
func (p *LocalProvider) SingleFetch() bool { return false }

// GetMediaInfo stats each file and produces one flat source per media id.
// The record is available only when every file exists.
func (p *LocalProvider) GetMediaInfo(_ context.Context, mediaIDs []string, _ int) (*Info, error) {
	info := &Info{Available: true}
	for _, id := range mediaIDs {
		full, err := p.resolve(id)
		if err != nil {
			return nil, err
		}
		stat, err := os.Stat(full)
		if err != nil {
			if os.IsNotExist(err) {
				p.log.Warn("local source file missing", "file", id)
				info.Available = false
				continue
			}
			return nil, catalogerrors.Upstream("platform.local.get_media_info", err)
		}
		info.Sources = append(info.Sources, models.Source{
			Files: []models.SourceFile{{
				Link:     path.Join("sources", id),
				MimeType: mime.TypeByExtension(filepath.Ext(id)),
				Size:     stat.Size(),
			}},
		})
	}
	return info, nil
}

// Remove deletes the source files. Files already gone are not an error.
func (p *LocalProvider) Remove(_ context.Context, mediaIDs []string) error {
	for _, id := range mediaIDs {
		full, err := p.resolve(id)
		if err != nil {
			return err
		}
		if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
			return catalogerrors.Upstream("platform.local.remove", err)
		}
	}
	return nil
}

// Update is a no-op: local files carry no platform-side metadata.
func (p *LocalProvider) Update(_ context.Context, _ *models.Media, _ *models.MediaUpdate, _ bool) error {
	return nil
}

// resolve maps a media id to an absolute path, refusing ids that escape the
// source directory.
func (p *LocalProvider) resolve(id string) (string, error) {
	full := filepath.Join(p.sourceDir, filepath.FromSlash(id))
	rel, err := filepath.Rel(p.sourceDir, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", catalogerrors.New(catalogerrors.ErrorTypeValidation, "platform.local",
			fmt.Errorf("media id escapes source directory: %s", id))
	}
	return full, nil
}
