package assemble

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"clipforge/internal/services"
	"clipforge/internal/state"
)

var commandContext = exec.CommandContext

func runFFmpeg(ctx context.Context, binary string, args ...string) error {
	cmd := commandContext(ctx, binary, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return services.Wrap(services.ErrExternalTool, string(state.StageAssemble), "ffmpeg",
			fmt.Sprintf("%s %s: %s", binary, strings.Join(args, " "), strings.TrimSpace(string(output))), err)
	}
	return nil
}

// probeDuration returns a media file's duration in seconds via ffprobe.
func probeDuration(ctx context.Context, binary, path string) (float64, error) {
	cmd := commandContext(ctx, binary,
		"-v", "quiet",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path)
	output, err := cmd.Output()
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, string(state.StageAssemble), "probe", "ffprobe duration", err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil || duration <= 0 {
		return 0, services.Wrap(services.ErrExternalTool, string(state.StageAssemble), "probe",
			fmt.Sprintf("unusable duration %q for %s", strings.TrimSpace(string(output)), path), err)
	}
	return duration, nil
}

// escapeFilterPath makes a filesystem path safe inside an ffmpeg filter
// argument such as ass=filename.
func escapeFilterPath(path string) string {
	return strings.NewReplacer(`\`, `/`, `:`, `\:`, `'`, `\'`).Replace(path)
}
