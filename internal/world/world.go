// Package world holds the per-scenario state shared by step definitions and
// adapters: variables, default headers, the cleanup queue and the most
// recent HTTP response.
package world

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// RunIDVar is the variable under which every World exposes its run ID.
const RunIDVar = "runId"

// CleanupItem is a queued reversal request. Path is already interpolated.
type CleanupItem struct {
	Method  string
	Path    string
	Headers map[string]string
}

// Response is an HTTP response as seen through the API port.
type Response struct {
	Status      int
	Text        string
	JSON        any
	Headers     http.Header
	ContentType string
}

// World is the mutable state container for one scenario. It is owned by a
// single scenario goroutine and needs no locking.
type World struct {
	Vars        map[string]string
	Headers     map[string]string
	SkipCleanup bool
	Last        *Response
	RunID       string

	cleanup []CleanupItem
}

// New returns an empty World with a fresh run ID stored in Vars[RunIDVar].
func New() *World {
	id := "run" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return &World{
		Vars:    map[string]string{RunIDVar: id},
		Headers: map[string]string{},
		RunID:   id,
	}
}

// Set stores a variable, replacing any previous value.
func (w *World) Set(name, value string) {
	w.Vars[name] = value
}

// Get returns a variable and whether it was set.
func (w *World) Get(name string) (string, bool) {
	v, ok := w.Vars[name]
	return v, ok
}

// CleanupMethod reports whether method may reverse a resource. Only DELETE,
// POST, PATCH and PUT are accepted.
func CleanupMethod(method string) bool {
	switch method {
	case http.MethodDelete, http.MethodPost, http.MethodPatch, http.MethodPut:
		return true
	}
	return false
}

// Register appends item to the cleanup queue unless an item with the same
// method and path is already queued or the method is not a CleanupMethod.
// An empty method means DELETE. It reports whether the item was added.
func (w *World) Register(item CleanupItem) bool {
	item.Method = strings.ToUpper(strings.TrimSpace(item.Method))
	if item.Method == "" {
		item.Method = http.MethodDelete
	}
	if !CleanupMethod(item.Method) {
		return false
	}
	for _, existing := range w.cleanup {
		if existing.Method == item.Method && existing.Path == item.Path {
			return false
		}
	}
	if len(item.Headers) > 0 {
		h := make(map[string]string, len(item.Headers))
		for k, v := range item.Headers {
			h[k] = v
		}
		item.Headers = h
	}
	w.cleanup = append(w.cleanup, item)
	return true
}

// CleanupQueue returns a copy of the queue in registration order.
func (w *World) CleanupQueue() []CleanupItem {
	out := make([]CleanupItem, len(w.cleanup))
	copy(out, w.cleanup)
	return out
}
