package list

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendPreservesInsertionOrder(t *testing.T) {
	l := New[string]()
	l.Append("H")
	l.Append("T1")
	l.Append("T2")
	l.Append("E")

	assert.Equal(t, 4, l.Len())
	assert.Equal(t, []string{"H", "T1", "T2", "E"}, l.All())
}

func TestEmptyList(t *testing.T) {
	l := New[int]()
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.All())
}
