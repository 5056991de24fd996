package models

import (
	"fmt"
	"slices"
	"strings"
	"time"

	ttlworker "github.com/FloatTech/ttl"

	"github.com/daikurogo/ipywidgets/types"
)

// BatchHistoryTTL is how long a committed batch summary stays queryable.
var BatchHistoryTTL = 30 * time.Minute

var batchHistory = ttlworker.NewCache[string, types.BatchSummary](BatchHistoryTTL)

func batchKey(modelID string, counter int64) string {
	return fmt.Sprintf("%s/%d", modelID, counter)
}

func RecordBatch(summary types.BatchSummary) {
	batchHistory.Set(batchKey(summary.ModelID, summary.Counter), summary)
}

// LookupBatch finds the batch whose commit left counter at the given value.
func LookupBatch(modelID string, counter int64) (types.BatchSummary, bool) {
	summary := batchHistory.Get(batchKey(modelID, counter))
	if summary.ModelID == "" {
		return types.BatchSummary{}, false
	}
	return summary, true
}

// ListBatches returns the remembered batches of a control, oldest first.
func ListBatches(modelID string) []types.BatchSummary {
	prefix := modelID + "/"
	var out []types.BatchSummary
	_ = batchHistory.Range(func(k string, v types.BatchSummary) error {
		if strings.HasPrefix(k, prefix) {
			out = append(out, v)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b types.BatchSummary) int {
		switch {
		case a.Counter < b.Counter:
			return -1
		case a.Counter > b.Counter:
			return 1
		}
		return 0
	})
	return out
}

func ForgetBatches(modelID string) {
	for _, b := range ListBatches(modelID) {
		batchHistory.Delete(batchKey(modelID, b.Counter))
	}
}
