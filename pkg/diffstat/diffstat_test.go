package diffstat_test

import (
	"bytes"
	"testing"

	"github.com/sgaunet/repohost/pkg/diffstat"
	"github.com/sgaunet/repohost/testing/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	stats, err := diffstat.Summarize(fixtures.UnifiedDiff())
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, diffstat.FileStat{Path: "README.md", Change: diffstat.Modified, Additions: 2, Deletions: 1}, stats[0])
	assert.Equal(t, diffstat.FileStat{Path: "docs/guide.md", Change: diffstat.Added, Additions: 2}, stats[1])

	add, del := diffstat.Totals(stats)
	assert.Equal(t, 4, add)
	assert.Equal(t, 1, del)
}

func TestSummarize_Deleted(t *testing.T) {
	raw := "diff --git a/old.txt b/old.txt\n" +
		"deleted file mode 100644\n" +
		"index e69de29..0000000\n" +
		"--- a/old.txt\n" +
		"+++ /dev/null\n" +
		"@@ -1,2 +0,0 @@\n" +
		"-one\n" +
		"-two\n"

	stats, err := diffstat.Summarize(raw)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, diffstat.FileStat{Path: "old.txt", Change: diffstat.Deleted, Deletions: 2}, stats[0])
}

func TestSummarize_DashedContentLines(t *testing.T) {
	raw := "diff --git a/q.sql b/q.sql\n" +
		"index 1111111..2222222 100644\n" +
		"--- a/q.sql\n" +
		"+++ b/q.sql\n" +
		"@@ -1,3 +1,4 @@\n" +
		" select 1;\n" +
		"--- old comment\n" +
		"+++ new comment\n" +
		"+++ b/other.sql\n" +
		" select 2;\n" +
		"diff --git a/old.txt b/old.txt\n" +
		"deleted file mode 100644\n" +
		"index 3333333..0000000\n" +
		"--- a/old.txt\n" +
		"+++ /dev/null\n" +
		"@@ -1,2 +0,0 @@\n" +
		"--- /dev/null\n" +
		"-two\n"

	stats, err := diffstat.Summarize(raw)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, diffstat.FileStat{Path: "q.sql", Change: diffstat.Modified, Additions: 2, Deletions: 1}, stats[0])
	assert.Equal(t, diffstat.FileStat{Path: "old.txt", Change: diffstat.Deleted, Deletions: 2}, stats[1])
}

func TestSummarize_NoNewlineMarker(t *testing.T) {
	raw := "diff --git a/a.txt b/a.txt\n" +
		"--- a/a.txt\n" +
		"+++ b/a.txt\n" +
		"@@ -1 +1 @@\n" +
		"-one\n" +
		"\\ No newline at end of file\n" +
		"+uno\n" +
		"\\ No newline at end of file\n"

	stats, err := diffstat.Summarize(raw)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, diffstat.FileStat{Path: "a.txt", Change: diffstat.Modified, Additions: 1, Deletions: 1}, stats[0])
}

func TestSummarize_Empty(t *testing.T) {
	stats, err := diffstat.Summarize("  \n")
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestRender(t *testing.T) {
	stats, err := diffstat.Summarize(fixtures.UnifiedDiff())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, diffstat.Render(&buf, stats))

	out := buf.String()
	assert.Contains(t, out, "File")
	assert.Contains(t, out, "README.md")
	assert.Contains(t, out, "docs/guide.md")
	assert.Contains(t, out, "added")
	assert.Contains(t, out, "|")
	assert.Contains(t, out, "2 files changed, 4 insertions(+), 1 deletions(-)")
}

func TestRender_NoChanges(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, diffstat.Render(&buf, nil))
	assert.Equal(t, "No changes.\n", buf.String())
}
