package deliverymodule

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mantonx/mediacat/internal/models"
)

func TestResolveThumbnail(t *testing.T) {
	r := NewResolver("https://cdn/", "")

	tests := []struct {
		name     string
		stored   string
		expected string
	}{
		{"relative path", "42/thumb.jpg", "https://cdn/42/thumb.jpg"},
		{"one leading slash stripped", "/42/thumb.jpg", "https://cdn/42/thumb.jpg"},
		{"empty stays empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &models.Media{Thumbnail: tt.stored}
			r.Resolve(m)
			assert.Equal(t, tt.expected, m.Thumbnail)
		})
	}
}

func TestResolveTimecodesBothRenditions(t *testing.T) {
	r := NewResolver("https://cdn/", "")

	m := &models.Media{
		Timecodes: []models.Timecode{{
			Time: 5,
			Image: models.TimecodeImage{
				Small: models.SmallImage{URL: "42/tc/small-5.jpg", Width: 160, Height: 90},
				Large: "/42/tc/large-5.jpg",
			},
		}},
	}
	r.Resolve(m)

	assert.Equal(t, "https://cdn/42/tc/small-5.jpg", m.Timecodes[0].Image.Small.URL)
	assert.Equal(t, 160, m.Timecodes[0].Image.Small.Width)
	assert.Equal(t, "https://cdn/42/tc/large-5.jpg", m.Timecodes[0].Image.Large)
}

func TestResolveLocalSourceFiles(t *testing.T) {
	r := NewResolver("https://cdn/", "https://stream")

	m := &models.Media{
		Type: "local",
		Sources: []models.Source{{
			Files: []models.SourceFile{{Link: "sources/clip.mp4"}},
		}},
	}
	r.Resolve(m)
	assert.Equal(t, "https://cdn/sources/clip.mp4", m.Sources[0].Files[0].Link)
}

func TestResolveWowzaAdaptiveRawConcatenation(t *testing.T) {
	r := NewResolver("https://cdn/", "https://stream.example.com")

	m := &models.Media{
		Type: "wowza",
		Sources: []models.Source{{
			Adaptive: []models.AdaptiveSource{{Link: "/vod/clip/playlist.m3u8"}},
		}},
	}
	r.Resolve(m)
	// No slash normalization: base and link concatenate as configured.
	assert.Equal(t, "https://stream.example.com/vod/clip/playlist.m3u8", m.Sources[0].Adaptive[0].Link)
}

func TestResolveUnknownTypeLeavesSourcesAlone(t *testing.T) {
	r := NewResolver("https://cdn/", "https://stream/")

	m := &models.Media{
		Type: "dailymotion",
		Sources: []models.Source{{
			Files:    []models.SourceFile{{Link: "https://dmcdn.example/clip.mp4"}},
			Adaptive: []models.AdaptiveSource{{Link: "https://dmcdn.example/clip.m3u8"}},
		}},
	}
	r.Resolve(m)
	assert.Equal(t, "https://dmcdn.example/clip.mp4", m.Sources[0].Files[0].Link)
	assert.Equal(t, "https://dmcdn.example/clip.m3u8", m.Sources[0].Adaptive[0].Link)
}

func TestResolvePoints(t *testing.T) {
	r := NewResolver("https://cdn/", "")

	withFile := &models.PointOfInterest{File: &models.PointFile{URL: "media/42/direct/a.png"}}
	withoutFile := &models.PointOfInterest{}
	r.ResolvePoints(withFile, withoutFile, nil)

	assert.Equal(t, "https://cdn/media/42/direct/a.png", withFile.File.URL)
	assert.Nil(t, withoutFile.File)
}

func TestResolveCutAttachments(t *testing.T) {
	r := NewResolver("https://cdn/", "")

	m := &models.Media{
		Cut: []models.PointOfInterest{
			{Value: 1000, File: &models.PointFile{URL: "media/42/uploads/marker.vtt"}},
		},
	}
	r.Resolve(m)
	assert.Equal(t, "https://cdn/media/42/uploads/marker.vtt", m.Cut[0].File.URL)
}

func TestSetBasesTakesEffect(t *testing.T) {
	r := NewResolver("https://old-cdn/", "https://old-stream")
	r.SetBases("https://new-cdn/", "https://new-stream")

	m := &models.Media{Thumbnail: "42/thumb.jpg"}
	r.Resolve(m)
	assert.Equal(t, "https://new-cdn/42/thumb.jpg", m.Thumbnail)
}
