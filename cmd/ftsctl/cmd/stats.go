package cmd

import (
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ftsengine/ftsengine"
	"github.com/ftsengine/ftsengine/internal/ui"
)

func newStatsCmd() *cobra.Command {
	var (
		watch        bool
		pollInterval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "stats <index>",
		Short: "Show an index's document, shard, and snapshot counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index := ftsengine.IndexName(args[0])

			if watch {
				return runStatsWatch(cmd, index, pollInterval)
			}

			ctx := cmd.Context()
			eng, err := openEngineForIndex(ctx, index)
			if err != nil {
				return err
			}
			info, err := statusInfo(eng, index)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			r := ui.NewStatusRenderer(out, ui.DetectNoColor())
			return r.Render(info)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "Poll and redraw live in a terminal UI")
	cmd.Flags().DurationVar(&pollInterval, "interval", time.Second, "Poll interval for --watch")
	return cmd
}

func statusInfo(eng *ftsengine.Engine, index ftsengine.IndexName) (ui.StatusInfo, error) {
	stats, err := eng.Stats(index)
	if err != nil {
		return ui.StatusInfo{}, err
	}
	shards := make([]ui.ShardStat, len(stats.ShardDocs))
	for i, c := range stats.ShardDocs {
		shards[i] = ui.ShardStat{ID: i, DocCount: int64(c)}
	}

	snapCount := 0
	if manifests, err := eng.Snapshots().List(index); err == nil {
		snapCount = len(manifests)
	}

	return ui.StatusInfo{
		IndexName:     string(index),
		DocCount:      int64(stats.DocCount),
		ShardCount:    stats.ShardCount,
		Shards:        shards,
		Tokens:        stats.Tokens,
		MemoryUsage:   int64(stats.MemoryUsage),
		SnapshotCount: snapCount,
	}, nil
}

// statsWatchModel is a bubbletea program that polls an Engine's Stats on a
// ticker and renders the index's live totals plus a sparkline of its total
// document count over time. It shows no per-shard rows.
type statsWatchModel struct {
	index    ftsengine.IndexName
	interval time.Duration
	styles   ui.Styles
	spark    *ui.Sparkline

	info ui.StatusInfo
	err  error
}

type statsTickMsg struct {
	info ui.StatusInfo
	err  error
}

func runStatsWatch(cmd *cobra.Command, index ftsengine.IndexName, interval time.Duration) error {
	ctx := cmd.Context()
	eng, err := openEngineForIndex(ctx, index)
	if err != nil {
		return err
	}

	model := statsWatchModel{
		index:    index,
		interval: interval,
		styles:   ui.GetStyles(ui.DetectNoColor()),
		spark:    ui.NewSparkline(60),
	}

	program := tea.NewProgram(model, tea.WithContext(ctx))
	go func() {
		for {
			info, err := statusInfo(eng, index)
			program.Send(statsTickMsg{info: info, err: err})
			select {
			case <-ctx.Done():
				return
			case <-time.After(interval):
			}
		}
	}()

	_, err = program.Run()
	return err
}

func (m statsWatchModel) Init() tea.Cmd { return nil }

func (m statsWatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" || msg.String() == "esc" {
			return m, tea.Quit
		}
	case statsTickMsg:
		m.info = msg.info
		m.err = msg.err
		if msg.err == nil {
			m.spark.Add(float64(msg.info.DocCount))
		}
	}
	return m, nil
}

func (m statsWatchModel) View() string {
	if m.err != nil {
		return m.styles.Error.Render(m.err.Error()) + "\n"
	}

	header := m.styles.Header.Render("Index: "+m.info.IndexName) + "\n\n"
	body := ""
	body += "  Documents: " + strconv.FormatInt(m.info.DocCount, 10) + "\n"
	body += "  Shards:    " + strconv.Itoa(m.info.ShardCount) + "\n"
	body += "  Tokens:    " + strconv.Itoa(m.info.Tokens) + "\n"
	body += "  Memory:    " + ui.FormatBytes(m.info.MemoryUsage) + "\n"
	body += "  Snapshots: " + strconv.Itoa(m.info.SnapshotCount) + "\n\n"
	body += "  " + m.styles.Sparkline.Render(m.spark.Render()) + "\n\n"
	body += m.styles.Dim.Render("press q to exit") + "\n"

	return header + body
}
