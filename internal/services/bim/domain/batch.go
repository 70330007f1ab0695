package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/louisbranch/bimbridge/internal/host"
)

// maxBatchItems bounds creation batches.
const maxBatchItems = 200

// FailedItem is one element or input item that could not be processed.
type FailedItem struct {
	ElementID int64  `json:"elementId,omitempty"`
	Index     *int   `json:"index,omitempty"`
	Reason    string `json:"reason"`
}

// BatchOutcome reports a batch where items succeed or fail independently.
// Successful items are committed even when others fail.
type BatchOutcome struct {
	Action             string        `json:"action"`
	Total              int           `json:"total"`
	SuccessfulElements []int64       `json:"successfulElements"`
	FailedElements     []FailedItem  `json:"failedElements"`
	Elements           []ElementInfo `json:"elements,omitempty"`
}

func newBatch(action string, total int) *BatchOutcome {
	return &BatchOutcome{
		Action:             action,
		Total:              total,
		SuccessfulElements: []int64{},
		FailedElements:     []FailedItem{},
	}
}

func (b *BatchOutcome) succeed(id host.ElementID) {
	b.SuccessfulElements = append(b.SuccessfulElements, int64(id))
}

func (b *BatchOutcome) failElement(id host.ElementID, reason string) {
	b.FailedElements = append(b.FailedElements, FailedItem{ElementID: int64(id), Reason: reason})
}

func (b *BatchOutcome) failIndex(index int, reason string) {
	i := index
	b.FailedElements = append(b.FailedElements, FailedItem{Index: &i, Reason: reason})
}

// Succeeded reports whether no item failed.
func (b BatchOutcome) Succeeded() bool { return len(b.FailedElements) == 0 }

// Summary describes the batch for the result message.
func (b BatchOutcome) Summary() string {
	if b.Succeeded() {
		return fmt.Sprintf("%s: %d of %d succeeded", b.Action, len(b.SuccessfulElements), b.Total)
	}
	return fmt.Sprintf("%s: %d of %d succeeded, %d failed", b.Action, len(b.SuccessfulElements), b.Total, len(b.FailedElements))
}

// unmarshalItems accepts a bare array, an object holding the array under
// key, or a single item object.
func unmarshalItems[T any](data []byte, key string, out *[]T) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, out)
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return err
	}
	if items, ok := wrapper[key]; ok {
		return json.Unmarshal(items, out)
	}
	if len(wrapper) == 0 {
		*out = nil
		return nil
	}
	var single T
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*out = []T{single}
	return nil
}

func validateCount(field string, n int) error {
	if n == 0 {
		return fmt.Errorf("%s must contain at least one item", field)
	}
	if n > maxBatchItems {
		return fmt.Errorf("%s may contain at most %d items, got %d", field, maxBatchItems, n)
	}
	return nil
}
