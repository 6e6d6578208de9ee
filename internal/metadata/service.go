// Package metadata looks up video and playlist details through the fetch
// tool's JSON output, trimmed down to what the caller needs to pick a format.
package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultTimeout = 60 * time.Second

type Service struct {
	binary  string
	timeout time.Duration
	logger  *logrus.Logger
}

func NewService(binary string, timeout time.Duration, logger *logrus.Logger) *Service {
	if binary == "" {
		binary = "yt-dlp"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{binary: binary, timeout: timeout, logger: logger}
}

// VideoInfo is the trimmed metadata surface for a single video.
type VideoInfo struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Channel      string         `json:"author"`
	Duration     string         `json:"duration"`
	ViewCount    string         `json:"viewCount"`
	Thumbnail    string         `json:"thumbnail"`
	Subtitles    []string       `json:"subtitles"`
	VideoFormats []FormatOption `json:"videoFormats"`
	AudioFormats []FormatOption `json:"audioFormats"`
}

// FormatOption is one selectable format with a human-readable size.
type FormatOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Size  string `json:"size"`
}

// PlaylistInfo summarizes a playlist and its entries.
type PlaylistInfo struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Channel    string          `json:"author"`
	VideoCount int             `json:"videoCount"`
	Thumbnail  string          `json:"thumbnail"`
	Videos     []PlaylistEntry `json:"videos"`
}

type PlaylistEntry struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Channel   string `json:"author"`
	Index     int    `json:"index"`
	Duration  string `json:"duration"`
	ViewCount string `json:"viewCount"`
	Thumbnail string `json:"thumbnail"`
}

type rawFormat struct {
	FormatID       string  `json:"format_id"`
	FormatNote     string  `json:"format_note"`
	Resolution     string  `json:"resolution"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	VideoExt       string  `json:"video_ext"`
	AudioExt       string  `json:"audio_ext"`
	ABR            float64 `json:"abr"`
	FilesizeApprox int64   `json:"filesize_approx"`
}

type rawVideo struct {
	ID             string                       `json:"id"`
	Title          string                       `json:"title"`
	Channel        string                       `json:"channel"`
	DurationString string                       `json:"duration_string"`
	ViewCount      int64                        `json:"view_count"`
	Thumbnail      string                       `json:"thumbnail"`
	Subtitles      map[string][]json.RawMessage `json:"subtitles"`
	Formats        []rawFormat                  `json:"formats"`
}

type rawEntry struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Channel        string `json:"channel"`
	PlaylistIndex  int    `json:"playlist_index"`
	PlaylistTitle  string `json:"playlist_title"`
	DurationString string `json:"duration_string"`
	ViewCount      int64  `json:"view_count"`
}

// Video fetches and trims metadata for a single video.
func (s *Service) Video(ctx context.Context, url string) (*VideoInfo, error) {
	out, err := s.dump(ctx, "--dump-json", "--no-warnings", "--", url)
	if err != nil {
		return nil, err
	}

	var raw rawVideo
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, fmt.Errorf("decode video metadata: %w", err)
	}

	info := &VideoInfo{
		ID:           raw.ID,
		Title:        raw.Title,
		Channel:      raw.Channel,
		Duration:     raw.DurationString,
		ViewCount:    formatViewCount(raw.ViewCount),
		Thumbnail:    thumbnailURL(raw.ID, raw.Thumbnail),
		Subtitles:    subtitleLanguages(raw.Subtitles),
		VideoFormats: videoFormats(raw.Formats),
		AudioFormats: audioFormats(raw.Formats),
	}
	return info, nil
}

// Playlist fetches flat playlist metadata as JSON lines and aggregates it.
func (s *Service) Playlist(ctx context.Context, url string) (*PlaylistInfo, error) {
	out, err := s.dump(ctx, "--dump-json", "--flat-playlist", "--no-warnings", "--", url)
	if err != nil {
		return nil, err
	}

	var entries []rawEntry
	for _, line := range bytes.Split(bytes.TrimSpace(out), []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var entry rawEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			// A malformed line should not sink the whole playlist.
			s.logger.Warnf("skip malformed playlist entry: %v", err)
			continue
		}
		if entry.ID == "" {
			continue
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("playlist contains no entries")
	}

	info := &PlaylistInfo{
		ID:         url,
		Title:      entries[0].PlaylistTitle,
		Channel:    entries[0].Channel,
		VideoCount: len(entries),
		Thumbnail:  thumbnailURL(entries[0].ID, ""),
		Videos:     make([]PlaylistEntry, len(entries)),
	}
	for i, entry := range entries {
		info.Videos[i] = PlaylistEntry{
			ID:        entry.ID,
			Title:     entry.Title,
			Channel:   entry.Channel,
			Index:     entry.PlaylistIndex,
			Duration:  entry.DurationString,
			ViewCount: formatViewCount(entry.ViewCount),
			Thumbnail: fmt.Sprintf("https://i.ytimg.com/vi/%s/mqdefault.jpg", entry.ID),
		}
	}
	return info, nil
}

func (s *Service) dump(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("fetch metadata: %s", msg)
	}
	return stdout.Bytes(), nil
}

func thumbnailURL(id, fallback string) string {
	if id != "" {
		return fmt.Sprintf("https://i.ytimg.com/vi/%s/maxresdefault.jpg", id)
	}
	return fallback
}

func subtitleLanguages(subs map[string][]json.RawMessage) []string {
	langs := make([]string, 0, len(subs))
	for lang := range subs {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

func videoFormats(formats []rawFormat) []FormatOption {
	best := map[string]rawFormat{}
	for _, f := range formats {
		if f.VCodec == "none" || f.FormatNote == "" {
			continue
		}
		switch f.VideoExt {
		case "mp4", "mkv", "webm":
		default:
			continue
		}
		if cur, ok := best[f.FormatNote]; !ok || f.FilesizeApprox > cur.FilesizeApprox {
			best[f.FormatNote] = f
		}
	}
	out := make([]FormatOption, 0, len(best))
	for label, f := range best {
		out = append(out, FormatOption{ID: f.FormatID, Label: label, Size: formatSize(f.FilesizeApprox)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label > out[j].Label })
	return out
}

func audioFormats(formats []rawFormat) []FormatOption {
	best := map[string]rawFormat{}
	for _, f := range formats {
		if f.ACodec == "none" {
			continue
		}
		switch f.AudioExt {
		case "mp3", "m4a", "webm":
		default:
			continue
		}
		label := fmt.Sprintf("%s %dkbps", f.AudioExt, nearestABR(f.ABR))
		if cur, ok := best[label]; !ok || f.FilesizeApprox > cur.FilesizeApprox {
			best[label] = f
		}
	}
	out := make([]FormatOption, 0, len(best))
	for label, f := range best {
		out = append(out, FormatOption{ID: f.FormatID, Label: label, Size: formatSize(f.FilesizeApprox)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label > out[j].Label })
	return out
}

// nearestABR snaps an average bitrate to the closest common preset.
func nearestABR(abr float64) int {
	presets := []int{64, 128, 192, 256, 320}
	nearest := presets[0]
	for _, p := range presets[1:] {
		if abs(float64(p)-abr) < abs(float64(nearest)-abr) {
			nearest = p
		}
	}
	return nearest
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
