package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/nerdneilsfield/doc-forge/pkg/providers/stats"
)

// printStats 输出本次运行的补全调用统计
func printStats(w io.Writer, recorder *stats.Recorder) {
	title := color.New(color.FgCyan, color.Bold)
	title.Fprintln(w, "📊 Completion Statistics")
	title.Fprintln(w, strings.Repeat("=", 50))
	recorder.WriteTable(w)

	var failures []string
	for _, ps := range recorder.Snapshot() {
		for errType, n := range ps.ErrorTypes {
			failures = append(failures, fmt.Sprintf("%s/%s: %d", ps.Purpose, errType, n))
		}
	}
	if len(failures) > 0 {
		color.New(color.FgRed, color.Bold).Fprintln(w, "❌ Errors")
		for _, f := range failures {
			fmt.Fprintf(w, "  %s\n", f)
		}
	}
}
