// Package runner drives the extraction pipeline: walk the archive
// index, then for each conversation read its pages, filter the
// attachments and materialize the accepted ones. Everything runs
// sequentially; only a missing archive aborts the run.
package runner

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/dkhv/vk-archive-extract/archive"
	"github.com/dkhv/vk-archive-extract/config"
	"github.com/dkhv/vk-archive-extract/extract"
	"github.com/dkhv/vk-archive-extract/filter"
	"github.com/dkhv/vk-archive-extract/model"
	"github.com/dkhv/vk-archive-extract/progress"
	"github.com/dkhv/vk-archive-extract/state"
	"github.com/dkhv/vk-archive-extract/stats"
)

type Runner struct {
	cfg       config.Config
	logger    *slog.Logger
	reader    archive.Reader
	filter    *filter.Filter
	extractor *extract.Materializer
	collector *stats.Collector
}

func New(cfg config.Config, logger *slog.Logger) (*Runner, error) {
	extractor, err := extract.NewMaterializer(extract.Options{
		OutputDir: cfg.OutputDir,
		DryRun:    cfg.DryRun,
	}, state.NewPathTracker(), logger)
	if err != nil {
		return nil, fmt.Errorf("materializer: %w", err)
	}

	return &Runner{
		cfg:    cfg,
		logger: logger,
		reader: archive.NewReader(logger),
		filter: filter.New(filter.Options{
			DownloadBots:  cfg.DownloadBots,
			DownloadVoice: cfg.DownloadVoice,
		}, nil),
		extractor: extractor,
		collector: stats.NewCollector(),
	}, nil
}

// Run executes the pipeline and returns the final summary. The error is
// non-nil only for fatal conditions (archive missing or unreadable);
// per-conversation and per-attachment failures are recorded and logged.
func (r *Runner) Run() (stats.Summary, error) {
	started := time.Now()

	conversations, err := archive.Walk(r.cfg.ArchivePath, r.logger)
	if err != nil {
		return r.collector.Snapshot(), err
	}

	bar := progress.New(len(conversations), r.cfg.LogLevel)

	for _, conv := range conversations {
		r.record(bar, stats.Event{
			Stage:        stats.StageArchive,
			Type:         stats.EventTypeConversation,
			Conversation: conv.Name,
		})
		r.processConversation(bar, conv)
	}

	bar.Stop()

	summary := r.collector.Snapshot()
	r.logger.Info("extraction summary", append(summary.LogAttrs(), "duration", time.Since(started))...)
	bar.PrintSummary(summary, time.Since(started))

	return summary, nil
}

func (r *Runner) processConversation(bar *progress.Bar, conv model.Conversation) {
	pages, err := archive.Pages(r.cfg.ArchivePath, conv)
	if err != nil {
		r.record(bar, stats.Event{
			Stage:        stats.StageArchive,
			Type:         stats.EventTypeWarning,
			Conversation: conv.Name,
			Err:          fmt.Errorf("conversation %q: %w", conv.Name, err),
		})
		r.logger.Warn("skipping conversation", "name", conv.Name, "err", err)
		return
	}

	for _, page := range pages {
		r.record(bar, stats.Event{Stage: stats.StageArchive, Type: stats.EventTypePage, Conversation: conv.Name})

		messages, err := r.reader.ReadPage(page)
		if err != nil {
			r.record(bar, stats.Event{
				Stage:        stats.StageArchive,
				Type:         stats.EventTypeWarning,
				Conversation: conv.Name,
				Err:          fmt.Errorf("page %s: %w", page, err),
			})
			r.logger.Warn("skipping page", "page", page, "err", err)
			continue
		}

		pageDir := filepath.Dir(page)
		for _, msg := range messages {
			r.record(bar, stats.Event{Stage: stats.StageArchive, Type: stats.EventTypeMessage, Conversation: conv.Name})

			for _, att := range msg.Attachments {
				r.processAttachment(bar, conv, att, pageDir)
			}
		}
	}
}

func (r *Runner) processAttachment(bar *progress.Bar, conv model.Conversation, att model.Attachment, pageDir string) {
	r.record(bar, stats.Event{Stage: stats.StageArchive, Type: stats.EventTypeAttachment, Conversation: conv.Name, Ref: att.Ref})

	verdict := r.filter.Decide(att, conv.Kind)
	switch verdict {
	case filter.VerdictExtract:
	case filter.VerdictBlocklisted:
		r.record(bar, stats.Event{
			Stage:        stats.StageArchive,
			Type:         stats.EventTypeBlocked,
			Conversation: conv.Name,
			Ref:          att.Ref,
			Detail:       verdict.String(),
		})
		r.logger.Debug("blocked attachment", "conversation", conv.Name, "ref", att.Ref)
		return
	default:
		r.record(bar, stats.Event{
			Stage:        stats.StageArchive,
			Type:         stats.EventTypeFiltered,
			Conversation: conv.Name,
			Ref:          att.Ref,
			Detail:       verdict.String(),
		})
		r.logger.Debug("filtered attachment", "conversation", conv.Name, "ref", att.Ref, "reason", verdict.String())
		return
	}

	dest, err := r.extractor.Materialize(att, conv, pageDir)
	if err != nil {
		r.record(bar, stats.Event{
			Stage:        stats.StageCopy,
			Type:         stats.EventTypeFailed,
			Conversation: conv.Name,
			Ref:          att.Ref,
			Err:          err,
		})
		r.logger.Error("attachment copy failed", "conversation", conv.Name, "ref", att.Ref, "err", err)
		return
	}

	eventType := stats.EventTypeExtracted
	if r.cfg.DryRun {
		eventType = stats.EventTypeDryRunExtracted
	}
	r.record(bar, stats.Event{
		Stage:        stats.StageCopy,
		Type:         eventType,
		Conversation: conv.Name,
		Ref:          att.Ref,
		Detail:       dest,
	})
}

func (r *Runner) record(bar *progress.Bar, evt stats.Event) {
	r.collector.Record(evt)
	if bar != nil {
		bar.Update(evt)
	}
}
