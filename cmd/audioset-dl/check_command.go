package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ytget/audioset-dl/internal/config"
	"github.com/ytget/audioset-dl/internal/platform"
)

// ErrMissingTools is returned by check when a required binary is unavailable.
var ErrMissingTools = errors.New("required tools are missing")

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report whether yt-dlp, ffmpeg, sox and ffprobe are available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := platform.LookupTools(requiredTools(ctx.settings))
			fmt.Fprintln(cmd.OutOrStdout(), renderToolTable(statuses))

			if missing := platform.MissingTools(statuses); len(missing) > 0 {
				return fmt.Errorf("%w: %s", ErrMissingTools, strings.Join(missing, ", "))
			}
			return nil
		},
	}
}

// requiredTools lists the programs a fetch runs; ffprobe only matters when
// durations are probed.
func requiredTools(settings config.Settings) []platform.Tool {
	return []platform.Tool{
		{Name: "yt-dlp", Command: settings.Tools.YTDLP, Purpose: "Downloads clip sections"},
		{Name: "ffmpeg", Command: settings.Tools.FFmpeg, Purpose: "Section cutting and resampling"},
		{Name: "sox", Command: settings.Tools.Sox, Purpose: "Requantizes to the target bit depth"},
		{Name: "ffprobe", Command: settings.Tools.FFprobe, Purpose: "Duration probing", Optional: !settings.Audio.ProbeDuration},
	}
}

func renderToolTable(statuses []platform.ToolStatus) string {
	rows := make([][]string, 0, len(statuses))
	for _, status := range statuses {
		state, detail := "ok", status.Path
		if !status.Available() {
			state = "missing"
			if status.Optional {
				state = "missing (optional)"
			}
			detail = status.Err.Error()
		}
		rows = append(rows, []string{status.Name, state, detail, status.Purpose})
	}
	return renderTable([]string{"Tool", "Status", "Path", "Used for"}, rows)
}
