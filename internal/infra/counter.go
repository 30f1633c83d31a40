package infra

import (
	"os"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// CallCounter tracks the total number of external API calls across runs.
// The count is persisted as a single JSON object {"total_calls": N} which is
// read on startup and overwritten after every tracked call. Persistence is
// best-effort: writes are not atomic and a lost update is acceptable.
type CallCounter struct {
	mu    sync.Mutex
	path  string
	total int64
}

type counterFile struct {
	TotalCalls int64 `json:"total_calls"`
}

// NewCallCounter loads the counter from path, starting at zero when the file
// is missing or unreadable.
func NewCallCounter(path string) *CallCounter {
	c := &CallCounter{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	var f counterFile
	if err := json.Unmarshal(data, &f); err != nil {
		return c
	}
	c.total = f.TotalCalls
	return c
}

// Track records one external call and persists the new total.
func (c *CallCounter) Track() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total++
	c.persist()
	return c.total
}

// Total returns the current total without recording a call.
func (c *CallCounter) Total() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// persist writes the current total. Must be called with mu held.
func (c *CallCounter) persist() {
	if c.path == "" {
		return
	}
	data, err := json.Marshal(counterFile{TotalCalls: c.total})
	if err != nil {
		return
	}
	_ = os.WriteFile(c.path, data, 0o644)
}
