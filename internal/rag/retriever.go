package rag

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/agdesk/agdesk/internal/embedding"
	"github.com/agdesk/agdesk/internal/model"
	"github.com/agdesk/agdesk/internal/vectorstore"
)

const (
	vectorTopK     = 50
	keywordTopK    = 5
	maxResults     = 20
	scoreThreshold = 0.5

	blockSeparator = "\n\n---\n\n"
)

var modelFilterPattern = regexp.MustCompile(`(?i)model:\s*([^\s,]+)`)

// ExtractModelFilter scans a user utterance for the "model: <token>"
// convention. The token is uppercased and returned as an exact-match filter
// expression, or "" when the pattern is absent.
func ExtractModelFilter(utterance string) string {
	m := modelFilterPattern.FindStringSubmatch(utterance)
	if m == nil {
		return ""
	}
	return fmt.Sprintf(`model = %q`, strings.ToUpper(m[1]))
}

// Retriever turns one user utterance into a formatted context block: query
// embedding (with lexical fallback), similarity search, score filtering and
// stable rendering of each hit.
type Retriever struct {
	adapter *embedding.Adapter
	store   vectorstore.Store
}

func NewRetriever(adapter *embedding.Adapter, store vectorstore.Store) *Retriever {
	return &Retriever{adapter: adapter, store: store}
}

// Retrieve returns the assembled context string. An empty string means the
// knowledge base had nothing relevant; search errors propagate.
func (r *Retriever) Retrieve(ctx context.Context, utterance string) (string, error) {
	logger := logutil.GetLogger(ctx)
	filter := ExtractModelFilter(utterance)

	vec, err := r.adapter.Embed(ctx, utterance)
	if err != nil {
		return "", err
	}

	var matches []vectorstore.Match
	if vec == nil {
		logger.Info("query embedding unavailable, using keyword search")
		matches, err = r.store.Query(ctx, vectorstore.QueryRequest{
			Data:            utterance,
			TopK:            keywordTopK,
			IncludeMetadata: true,
		})
		if err != nil {
			return "", err
		}
	} else {
		matches, err = r.store.Query(ctx, vectorstore.QueryRequest{
			Vector:          vec,
			TopK:            vectorTopK,
			IncludeMetadata: true,
			Filter:          filter,
		})
		if err != nil {
			return "", err
		}
		matches = filterByScore(matches)
		logger.Debug("similarity search done",
			zap.String("filter", filter),
			zap.Int("kept", len(matches)),
		)
	}

	return FormatMatches(matches), nil
}

// filterByScore drops weak hits and keeps the strongest maxResults in
// descending score order. The keyword fallback path skips this entirely.
func filterByScore(matches []vectorstore.Match) []vectorstore.Match {
	kept := make([]vectorstore.Match, 0, len(matches))
	for _, m := range matches {
		if m.Score >= scoreThreshold {
			kept = append(kept, m)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})
	if len(kept) > maxResults {
		kept = kept[:maxResults]
	}
	return kept
}

// FormatMatches renders each hit as a fixed multi-line block. Missing fields
// render explicit placeholders so the generation step always sees the same
// shape; blocks are joined with a fixed separator.
func FormatMatches(matches []vectorstore.Match) string {
	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, formatMatch(m))
	}
	return strings.Join(blocks, blockSeparator)
}

func formatMatch(m vectorstore.Match) string {
	score := ""
	if m.Score != 0 {
		score = fmt.Sprintf(" (similarity: %.2f)", m.Score)
	}
	meta, err := model.DecodeChunkMetadata(m.Metadata)
	if err != nil || meta == nil {
		return fmt.Sprintf("Source: Unknown%s\nNo content available", score)
	}

	equipModel := meta.Model
	if equipModel == "" {
		equipModel = "Unknown"
	}
	part := meta.OriginalData
	if part == nil {
		part = &model.PartRecord{}
	}
	lines := []string{
		"Model: " + equipModel,
		"Description: " + orPlaceholder(part.Description, "Not specified"),
		"Part Number: " + orPlaceholder(part.PartNumber, "Not specified"),
		"Quantity: " + orPlaceholder(part.Quantity, "Not specified"),
		"Remarks: " + orPlaceholder(part.Remarks, "None"),
		"Details: " + orPlaceholder(part.Breadcrumb, "Not available"),
	}
	return fmt.Sprintf("Source: %s%s\n%s", equipModel, score, strings.Join(lines, "\n"))
}

func orPlaceholder(value, placeholder string) string {
	if value == "" {
		return placeholder
	}
	return value
}
