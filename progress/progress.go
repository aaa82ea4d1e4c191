package progress

import (
	"sync"
	"time"

	"github.com/pterm/pterm"

	"github.com/dkhv/vk-archive-extract/stats"
)

// Bar manages a progress bar for tracking conversation processing.
type Bar struct {
	pb      *pterm.ProgressbarPrinter
	total   int
	mu      sync.Mutex
	enabled bool
}

// New creates a new progress bar if logLevel is "info".
func New(total int, logLevel string) *Bar {
	enabled := logLevel == "info"

	bar := &Bar{
		total:   total,
		enabled: enabled,
	}

	if enabled {
		pb, _ := pterm.DefaultProgressbar.
			WithTotal(total).
			WithTitle("Processing conversations").
			Start()

		bar.pb = pb

		pterm.Info.Printf("Conversations in archive: %d\n", total)
		pterm.Println()
	}

	return bar
}

// Update advances the progress bar based on the event type.
func (b *Bar) Update(evt stats.Event) {
	if !b.enabled || b.pb == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch evt.Type {
	case stats.EventTypeConversation:
		b.pb.Increment()

		if evt.Conversation != "" {
			title := evt.Conversation
			if len(title) > 40 {
				title = title[:37] + "..."
			}
			b.pb.UpdateTitle("Processing: " + title)
		}
	case stats.EventTypeWarning:
		if evt.Err != nil {
			pterm.Warning.Printf("Warning: %v\n", evt.Err)
		}
	case stats.EventTypeFailed:
		// Show error messages above the progress bar.
		if evt.Err != nil {
			pterm.Error.Printf("Error: %v\n", evt.Err)
		}
	}
}

// Stop finalizes the progress bar.
func (b *Bar) Stop() {
	if !b.enabled || b.pb == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pb.Current < b.total {
		b.pb.Current = b.total
	}

	b.pb.Stop()
}

// PrintSummary prints the final counters after the bar has stopped.
func (b *Bar) PrintSummary(summary stats.Summary, duration time.Duration) {
	if !b.enabled {
		return
	}

	pterm.Println()
	pterm.DefaultSection.Println("Extraction Summary")
	pterm.Info.Printf("Duration: %v\n", duration)
	pterm.Info.Printf("Conversations: %d\n", summary.Conversations)
	pterm.Info.Printf("Messages scanned: %d\n", summary.Messages)
	pterm.Info.Printf("Attachments scanned: %d\n", summary.Attachments)
	pterm.Info.Printf("Extracted: %d\n", summary.Extracted)
	if summary.DryRunExtracted > 0 {
		pterm.Info.Printf("Dry-run extracted: %d\n", summary.DryRunExtracted)
	}
	pterm.Info.Printf("Skipped (filtered %d, blocklisted %d): %d\n", summary.Filtered, summary.Blocked, summary.Skipped())
	pterm.Info.Printf("Failed: %d\n", summary.Failed)
	if summary.LastError != nil {
		pterm.Error.Printf("Last error: %v\n", summary.LastError)
	} else {
		pterm.Success.Println("Extraction complete!")
	}
}
