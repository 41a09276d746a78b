// Package fixtures provides common test data structures for testing.
package fixtures

import (
	"github.com/sgaunet/repohost/pkg/host"
	"github.com/sgaunet/repohost/pkg/reconcile"
)

// Test constants for host fixtures.
const (
	DefaultOwner      = "owner"
	DefaultRepository = "repo"
	FeatureSHA        = "def456"
	MainSHA           = "abc123"
	MergeSHA          = "0123456789abcdef0123456789abcdef01234567"
)

// Coordinate returns the default test repository coordinate.
func Coordinate() host.Coordinate {
	return host.Coordinate{Owner: DefaultOwner, Repository: DefaultRepository}
}

// FeatureBranch returns a source branch resolved to FeatureSHA.
func FeatureBranch() host.BranchRef {
	return host.BranchRef{Name: "feature", CommitSHA: FeatureSHA}
}

// MainBranch returns a destination branch resolved to MainSHA.
func MainBranch() host.BranchRef {
	return host.BranchRef{Name: "main", CommitSHA: MainSHA}
}

// MergeRequest returns a request merging feature into destination.
func MergeRequest(destination string) reconcile.MergeRequest {
	return reconcile.MergeRequest{
		Coordinate:  Coordinate(),
		Source:      "feature",
		Destination: destination,
		Message:     "Merge feature into " + destination,
	}
}

// SuccessfulMerge returns a merge result with a merge commit.
func SuccessfulMerge() host.MergeResult {
	return host.MergeResult{
		SHA: MergeSHA,
		URL: "https://github.com/owner/repo/commit/" + MergeSHA,
	}
}

// UnifiedDiff returns a two-file unified diff: one modified file, one new file.
func UnifiedDiff() string {
	return `diff --git a/README.md b/README.md
index 3b18e51..a3c1e7f 100644
--- a/README.md
+++ b/README.md
@@ -1,3 +1,4 @@
 # repo
-old line
+new line
+another line
 end
diff --git a/docs/guide.md b/docs/guide.md
new file mode 100644
index 0000000..e69de29
--- /dev/null
+++ b/docs/guide.md
@@ -0,0 +1,2 @@
+# Guide
+hello
`
}
