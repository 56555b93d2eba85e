package world

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SeedsRunID(t *testing.T) {
	w := New()

	assert.Regexp(t, regexp.MustCompile(`^run[0-9a-f]{12}$`), w.RunID)
	got, ok := w.Get(RunIDVar)
	require.True(t, ok)
	assert.Equal(t, w.RunID, got)
	assert.NotEqual(t, w.RunID, New().RunID)
}

func TestRegister_DeduplicatesMethodAndPath(t *testing.T) {
	w := New()

	assert.True(t, w.Register(CleanupItem{Method: "DELETE", Path: "/users/1"}))
	assert.False(t, w.Register(CleanupItem{Method: "delete", Path: "/users/1"}))
	assert.True(t, w.Register(CleanupItem{Method: "POST", Path: "/users/1"}))
	assert.True(t, w.Register(CleanupItem{Method: "DELETE", Path: "/users/2"}))

	q := w.CleanupQueue()
	require.Len(t, q, 3)
	assert.Equal(t, "/users/1", q[0].Path)
	assert.Equal(t, "POST", q[1].Method)
	assert.Equal(t, "/users/2", q[2].Path)
}

func TestRegister_DefaultsMethodAndCopiesHeaders(t *testing.T) {
	w := New()
	headers := map[string]string{"X-Tenant": "a"}

	w.Register(CleanupItem{Path: "/teams/9", Headers: headers})
	headers["X-Tenant"] = "mutated"

	q := w.CleanupQueue()
	require.Len(t, q, 1)
	assert.Equal(t, "DELETE", q[0].Method)
	assert.Equal(t, "a", q[0].Headers["X-Tenant"])
}

func TestRegister_RejectsNonCleanupMethods(t *testing.T) {
	w := New()

	for _, method := range []string{"GET", "head", "OPTIONS", "TRACE", "CONNECT"} {
		assert.False(t, w.Register(CleanupItem{Method: method, Path: "/users/1"}), method)
	}
	assert.Empty(t, w.CleanupQueue())

	for _, method := range []string{"delete", " PUT ", "Patch", "POST"} {
		assert.True(t, w.Register(CleanupItem{Method: method, Path: "/users/" + method}), method)
	}
	assert.Len(t, w.CleanupQueue(), 4)
}

func TestCleanupQueue_ReturnsCopy(t *testing.T) {
	w := New()
	w.Register(CleanupItem{Method: "DELETE", Path: "/a"})

	q := w.CleanupQueue()
	q[0].Path = "/changed"

	assert.Equal(t, "/a", w.CleanupQueue()[0].Path)
}
