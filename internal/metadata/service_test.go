package metadata

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func newTestService(t *testing.T, body string) *Service {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-tool")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write tool script: %v", err)
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewService(path, 30*time.Second, logger)
}

func TestVideo(t *testing.T) {
	svc := newTestService(t, `cat <<'EOF'
{
  "id": "abc123",
  "title": "A Test Clip",
  "channel": "Test Channel",
  "duration_string": "10:05",
  "view_count": 1234567,
  "thumbnail": "https://example.com/fallback.jpg",
  "subtitles": {"en": [], "de": []},
  "formats": [
    {"format_id": "sb0", "format_note": "storyboard", "vcodec": "none", "acodec": "none", "video_ext": "none", "audio_ext": "none"},
    {"format_id": "248", "format_note": "1080p", "vcodec": "vp9", "acodec": "none", "video_ext": "webm", "filesize_approx": 94000000},
    {"format_id": "137", "format_note": "1080p", "vcodec": "avc1", "acodec": "none", "video_ext": "mp4", "filesize_approx": 104857600},
    {"format_id": "22", "format_note": "720p", "vcodec": "avc1", "acodec": "mp4a", "video_ext": "mp4", "filesize_approx": 52428800},
    {"format_id": "140", "format_note": "medium", "vcodec": "none", "acodec": "mp4a.40.2", "video_ext": "none", "audio_ext": "m4a", "abr": 129.5, "filesize_approx": 3145728}
  ]
}
EOF`)

	info, err := svc.Video(context.Background(), "https://youtu.be/abc123")
	if err != nil {
		t.Fatalf("Video() error = %v", err)
	}

	if info.ID != "abc123" || info.Title != "A Test Clip" || info.Channel != "Test Channel" {
		t.Errorf("identity fields = %+v", info)
	}
	if info.Duration != "10:05" {
		t.Errorf("Duration = %q", info.Duration)
	}
	if info.ViewCount != "1.2M" {
		t.Errorf("ViewCount = %q", info.ViewCount)
	}
	if info.Thumbnail != "https://i.ytimg.com/vi/abc123/maxresdefault.jpg" {
		t.Errorf("Thumbnail = %q", info.Thumbnail)
	}
	if len(info.Subtitles) != 2 || info.Subtitles[0] != "de" || info.Subtitles[1] != "en" {
		t.Errorf("Subtitles = %v", info.Subtitles)
	}

	// Duplicate 1080p entries collapse to the larger one.
	if len(info.VideoFormats) != 2 {
		t.Fatalf("VideoFormats = %+v", info.VideoFormats)
	}
	for _, f := range info.VideoFormats {
		if f.Label == "1080p" && f.ID != "137" {
			t.Errorf("1080p resolved to format %s", f.ID)
		}
	}

	if len(info.AudioFormats) != 1 {
		t.Fatalf("AudioFormats = %+v", info.AudioFormats)
	}
	audio := info.AudioFormats[0]
	if audio.ID != "140" || audio.Label != "m4a 128kbps" || audio.Size != "3.0MiB" {
		t.Errorf("audio format = %+v", audio)
	}
}

func TestPlaylist(t *testing.T) {
	svc := newTestService(t, `cat <<'EOF'
{"id": "vid1", "title": "First", "channel": "Test Channel", "playlist_index": 1, "playlist_title": "My Mix", "duration_string": "3:21", "view_count": 1500}
this line is not json
{"id": "vid2", "title": "Second", "channel": "Test Channel", "playlist_index": 2, "playlist_title": "My Mix", "duration_string": "4:44", "view_count": 999}
EOF`)

	info, err := svc.Playlist(context.Background(), "https://example.com/playlist?list=PL1")
	if err != nil {
		t.Fatalf("Playlist() error = %v", err)
	}

	if info.Title != "My Mix" || info.Channel != "Test Channel" {
		t.Errorf("playlist header = %+v", info)
	}
	if info.VideoCount != 2 || len(info.Videos) != 2 {
		t.Fatalf("VideoCount = %d, Videos = %+v", info.VideoCount, info.Videos)
	}

	first := info.Videos[0]
	if first.ID != "vid1" || first.Index != 1 || first.ViewCount != "1.5K" {
		t.Errorf("first entry = %+v", first)
	}
	if first.Thumbnail != "https://i.ytimg.com/vi/vid1/mqdefault.jpg" {
		t.Errorf("first thumbnail = %q", first.Thumbnail)
	}
	if info.Videos[1].ViewCount != "999" {
		t.Errorf("second entry = %+v", info.Videos[1])
	}
}

func TestPlaylistEmpty(t *testing.T) {
	svc := newTestService(t, `exit 0`)
	if _, err := svc.Playlist(context.Background(), "https://example.com/playlist?list=PL1"); err == nil {
		t.Fatal("Playlist() succeeded on empty output")
	}
}

func TestVideoToolFailure(t *testing.T) {
	svc := newTestService(t, `
echo "ERROR: Private video" >&2
exit 1`)

	_, err := svc.Video(context.Background(), "https://youtu.be/abc123")
	if err == nil {
		t.Fatal("Video() succeeded on tool failure")
	}
	if !strings.Contains(err.Error(), "ERROR: Private video") {
		t.Errorf("error = %v, want tool diagnostics", err)
	}
}
