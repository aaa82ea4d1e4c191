package cmd

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dkhv/vk-archive-extract/archive"
	"github.com/dkhv/vk-archive-extract/model"
	"github.com/dkhv/vk-archive-extract/stats"
)

// NewStatsCmd returns the archive-stats subcommand: a read-only
// inventory of the archive, counting conversations per kind and
// attachments per type without extracting anything.
func NewStatsCmd() *cobra.Command {
	var (
		reportDir string
		topN      int
	)

	statsCmd := &cobra.Command{
		Use:   "archive-stats [messages dir]",
		Short: "Analyse the archive and show attachment statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archivePath := args[0]

			fmt.Println("Analyzing archive:", archivePath)

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

			conversations, err := archive.Walk(archivePath, logger)
			if err != nil {
				return err
			}

			reader := archive.NewReader(logger)

			kindCounts := make(map[string]int)
			typeCounts := make(map[string]int)
			perConversation := make(map[string]int)
			messageCount := 0

			for _, conv := range conversations {
				kindCounts[string(conv.Kind)]++

				pages, err := archive.Pages(archivePath, conv)
				if err != nil {
					logger.Warn("skipping conversation", "name", conv.Name, "err", err)
					continue
				}

				for _, page := range pages {
					messages, err := reader.ReadPage(page)
					if err != nil {
						logger.Warn("skipping page", "page", page, "err", err)
						continue
					}

					for _, msg := range messages {
						messageCount++
						for _, att := range msg.Attachments {
							typeCounts[string(att.Type)]++
							perConversation[conv.Name]++
						}
					}
				}
			}

			fmt.Printf("\nConversations: %d, messages: %d\n\n", len(conversations), messageCount)

			fmt.Println("Conversations by kind:")
			printCounts(kindCounts, []string{
				string(model.KindPersonal), string(model.KindGroup), string(model.KindBot),
			})

			fmt.Println("\nAttachments by type:")
			printCounts(typeCounts, []string{
				string(model.TypePhoto), string(model.TypeVoice), string(model.TypeVideo),
				string(model.TypeDocument), string(model.TypeOther),
			})

			fmt.Printf("\nTop %d conversations by attachment count:\n", topN)
			stats.PrettyPrintTop(perConversation, topN)

			if reportDir != "" {
				if err := saveCSVReport(perConversation, reportDir); err != nil {
					return fmt.Errorf("error saving CSV report: %w", err)
				}
				fmt.Printf("\nReport saved to directory: %s\n", reportDir)
			}

			return nil
		},
	}

	statsCmd.Flags().StringVarP(&reportDir, "output", "o", "", "Output directory for the CSV report (no report when empty)")
	statsCmd.Flags().IntVarP(&topN, "top", "t", 10, "Number of top conversations to display")

	return statsCmd
}

func printCounts(counts map[string]int, order []string) {
	for _, key := range order {
		if counts[key] > 0 {
			fmt.Printf("  %s: %d\n", key, counts[key])
		}
	}
}

func saveCSVReport(perConversation map[string]int, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	filePath := filepath.Join(dir, "report_attachments.csv")
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write([]string{"Conversation", "Attachments"}); err != nil {
		return err
	}

	type pair struct {
		Key   string
		Value int
	}
	var pairs []pair
	for k, v := range perConversation {
		pairs = append(pairs, pair{k, v})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Value != pairs[j].Value {
			return pairs[i].Value > pairs[j].Value
		}
		return pairs[i].Key < pairs[j].Key
	})

	for _, p := range pairs {
		if err := writer.Write([]string{p.Key, strconv.Itoa(p.Value)}); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
