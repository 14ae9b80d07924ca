package download

import (
	"fmt"
	"log/slog"
	"time"
)

// LogProgress is a ProgressListener logging transfer progress at
// most once per second. Use one per transfer.
type LogProgress struct {
	logger    *slog.Logger
	startTime time.Time
	lastLog   time.Time
}

// NewLogProgress returns a LogProgress writing to logger.
func NewLogProgress(logger *slog.Logger) *LogProgress {
	return &LogProgress{logger: logger, startTime: time.Now()}
}

func (lp *LogProgress) OnTransferProgress(_, transferred, total int64, name string) {
	if time.Since(lp.lastLog) >= time.Second {
		lp.lastLog = time.Now()
		lp.log("transferring", name, transferred, total)
	}

	if total >= 0 && transferred == total {
		lp.log("transfer complete", name, transferred, total)
	}
}

func (lp *LogProgress) log(msg, name string, transferred, total int64) {
	elapsed := time.Since(lp.startTime)

	progress := "unknown"
	if total > 0 {
		progress = fmt.Sprintf("%.1f%%", float64(transferred)/float64(total)*100)
	}

	attrs := []any{
		"name", name,
		"progress", progress,
		"elapsed", elapsed.Round(time.Millisecond),
		"transferred", transferred,
		"total", total,
		"mbps", fmt.Sprintf("%.2f", float64(transferred)/elapsed.Seconds()/(1024*1024)),
	}

	lp.logger.Info(msg, attrs...)
}
