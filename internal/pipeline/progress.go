package pipeline

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/ytget/audioset-dl/internal/model"
)

// Progress receives run progress. Increment is called from worker goroutines.
type Progress interface {
	Start(total int)
	Increment(status model.TaskStatus)
	Done()
}

type noopProgress struct{}

func (noopProgress) Start(int)                  {}
func (noopProgress) Increment(model.TaskStatus) {}
func (noopProgress) Done()                      {}

// BarProgress renders a terminal progress bar.
type BarProgress struct {
	out    io.Writer
	p      *mpb.Progress
	bar    *mpb.Bar
	failed atomic.Int64
}

// NewBarProgress creates a bar writing to out.
func NewBarProgress(out io.Writer) *BarProgress {
	return &BarProgress{out: out}
}

// Start draws an empty bar for total clips.
func (b *BarProgress) Start(total int) {
	b.p = mpb.New(mpb.WithOutput(b.out), mpb.WithWidth(64))
	b.bar = b.p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name("Clips: "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.Any(func(decor.Statistics) string {
				if n := b.failed.Load(); n > 0 {
					return fmt.Sprintf("  failed %d", n)
				}
				return ""
			}),
			decor.Name("  "),
			decor.AverageETA(decor.ET_STYLE_GO),
		),
	)
}

// Increment advances the bar by one clip.
func (b *BarProgress) Increment(status model.TaskStatus) {
	if b.bar == nil {
		return
	}
	if status == model.TaskStatusError {
		b.failed.Add(1)
	}
	b.bar.Increment()
}

// Done finishes the bar, aborting it when the run was cut short.
func (b *BarProgress) Done() {
	if b.p == nil {
		return
	}
	if !b.bar.Completed() {
		b.bar.Abort(false)
	}
	b.p.Wait()
}
