package stats

import (
	"fmt"
	"sort"
	"sync"
)

type Stage string

const (
	StageArchive Stage = "archive"
	StageCopy    Stage = "copy"
)

type EventType string

const (
	EventTypeConversation    EventType = "conversation"
	EventTypePage            EventType = "page"
	EventTypeMessage         EventType = "message"
	EventTypeAttachment      EventType = "attachment"
	EventTypeExtracted       EventType = "extracted"
	EventTypeDryRunExtracted EventType = "dry_run_extracted"
	EventTypeFiltered        EventType = "filtered"
	EventTypeBlocked         EventType = "blocked"
	EventTypeWarning         EventType = "warning"
	EventTypeFailed          EventType = "failed"
)

type Event struct {
	Stage        Stage
	Type         EventType
	Conversation string
	Ref          string
	Err          error
	Detail       string
}

type Summary struct {
	Conversations   int
	Pages           int
	Messages        int
	Attachments     int
	Extracted       int
	DryRunExtracted int
	Filtered        int
	Blocked         int
	Warnings        int
	Failed          int
	LastError       error
}

func (s Summary) LogAttrs() []any {
	attrs := []any{
		"conversations", s.Conversations,
		"pages", s.Pages,
		"messages", s.Messages,
		"attachments", s.Attachments,
		"extracted", s.Extracted,
		"dryRunExtracted", s.DryRunExtracted,
		"filtered", s.Filtered,
		"blocked", s.Blocked,
		"warnings", s.Warnings,
		"failed", s.Failed,
	}
	if s.LastError != nil {
		attrs = append(attrs, "lastError", s.LastError.Error())
	}
	return attrs
}

// Skipped is everything scanned but deliberately not extracted.
func (s Summary) Skipped() int {
	return s.Filtered + s.Blocked
}

// Collector aggregates events into a Summary. Record is applied
// synchronously by the pipeline.
type Collector struct {
	mu      sync.Mutex
	summary Summary
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Record(evt Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch evt.Type {
	case EventTypeConversation:
		c.summary.Conversations++
	case EventTypePage:
		c.summary.Pages++
	case EventTypeMessage:
		c.summary.Messages++
	case EventTypeAttachment:
		c.summary.Attachments++
	case EventTypeExtracted:
		c.summary.Extracted++
	case EventTypeDryRunExtracted:
		c.summary.DryRunExtracted++
	case EventTypeFiltered:
		c.summary.Filtered++
	case EventTypeBlocked:
		c.summary.Blocked++
	case EventTypeWarning:
		c.summary.Warnings++
	case EventTypeFailed:
		c.summary.Failed++
		if evt.Err != nil {
			c.summary.LastError = evt.Err
		}
	}
}

func (c *Collector) Snapshot() Summary {
	c.mu.Lock()
	summary := c.summary
	c.mu.Unlock()
	return summary
}

// PrettyPrintTop prints the top N most frequent items in a map.
func PrettyPrintTop(m map[string]int, limit int) {
	type pair struct {
		Key   string
		Value int
	}

	var pairs []pair
	for k, v := range m {
		pairs = append(pairs, pair{k, v})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Value != pairs[j].Value {
			return pairs[i].Value > pairs[j].Value
		}
		return pairs[i].Key < pairs[j].Key
	})

	for i := 0; i < limit && i < len(pairs); i++ {
		fmt.Printf("%d. %s (%d)\n", i+1, pairs[i].Key, pairs[i].Value)
	}
}
