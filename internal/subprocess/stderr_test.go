package subprocess

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStderrTail_KeepsMostRecentLines(t *testing.T) {
	tail := newStderrTail(10)

	tail.add("aaaa")
	tail.add("bbbb")
	tail.add("cccc")

	require.Equal(t, "bbbb\ncccc", tail.String())
}

func TestStderrTail_TruncatesHugeLine(t *testing.T) {
	tail := newStderrTail(8)

	tail.add("old")
	tail.add(strings.Repeat("x", 20) + "END")

	require.Equal(t, "xxxxxEND", tail.String())
}

func TestStderrTail_Empty(t *testing.T) {
	require.Empty(t, newStderrTail(8).String())
}
