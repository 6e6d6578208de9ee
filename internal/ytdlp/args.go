package ytdlp

import (
	"strings"

	"ytfetch/internal/domain"
)

// BatchOutputPattern is the tool-native template for per-item filenames inside
// a batch working directory.
const BatchOutputPattern = "%(playlist_index)s - %(title)s.%(ext)s"

// BuildArgs assembles the fetch tool invocation for a request. It is pure and
// deterministic; identifiers always follow an explicit "--" separator so a
// leading dash cannot be interpreted as an option.
func BuildArgs(identifiers []string, formatID, outputTemplate string, opts domain.Options) []string {
	args := []string{
		"--progress", "--newline",
		"-f", formatID,
		"-o", outputTemplate,
		"--no-warnings", "--ignore-errors",
	}

	if strings.Contains(formatID, "+") {
		args = append(args, "--merge-output-format", "mp4")
	} else if opts.IsAudioOnly {
		args = append(args, "--extract-audio", "--audio-format", "mp3")
	}

	if opts.EmbedThumbnail {
		args = append(args, "--embed-thumbnail")
	}
	if opts.EmbedChapter {
		args = append(args, "--embed-chapters")
	}
	if opts.EmbedMetadata {
		args = append(args, "--embed-metadata")
	}
	if opts.EmbedSubtitle && opts.SubtitleLanguage != "" {
		args = append(args, "--embed-subs", "--sub-langs", opts.SubtitleLanguage)
	}

	args = append(args, "--")
	args = append(args, identifiers...)
	return args
}
