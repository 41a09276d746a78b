package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sgaunet/repohost/internal/timeutil"
	"github.com/sgaunet/repohost/internal/ui"
	"github.com/sgaunet/repohost/pkg/diffstat"
	"github.com/sgaunet/repohost/pkg/host"
	"github.com/sgaunet/repohost/pkg/platform"
	"github.com/sgaunet/repohost/pkg/reconcile"
	"github.com/spf13/cobra"
)

const stdinName = "-"

var (
	errStdinNeedsYes = errors.New("--yes is required when the content is read from stdin")
	errAborted       = errors.New("aborted")
)

var reconcileOpts struct {
	source  string
	dest    string
	message string
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Create the destination branch, or merge the source into it",
	Long: `reconcile looks up the source and destination branches. A missing
destination is created at the source head; an existing one gets the source
merged into it. Any other lookup failure stops before writing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runReconcile(cmd.Context(), cmd.OutOrStdout())
	},
}

var ensureOpts struct {
	source string
	branch string
}

var ensureBranchCmd = &cobra.Command{
	Use:   "ensure-branch",
	Short: "Create a branch from the source head unless it already exists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runEnsureBranch(cmd.Context(), cmd.OutOrStdout())
	},
}

var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Read or write a single file in the remote repository",
}

var fileGetOpts struct {
	ref    string
	output string
}

var fileGetCmd = &cobra.Command{
	Use:   "get PATH",
	Short: "Print a file at a ref",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFileGet(cmd.Context(), cmd.OutOrStdout(), args[0])
	},
}

var filePutOpts struct {
	branch  string
	message string
	from    string
	yes     bool
}

var filePutCmd = &cobra.Command{
	Use:   "put PATH",
	Short: "Create or update a file with one commit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFilePut(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), args[0])
	},
}

var diffOpts struct {
	raw bool
}

var diffCmd = &cobra.Command{
	Use:   "diff [BASE [HEAD]]",
	Short: "Summarize the changes between two refs",
	Long: `diff compares HEAD against BASE on the host. BASE defaults to the
default branch of the clone and HEAD to the current branch.`,
	Args: cobra.MaximumNArgs(2), //nolint:mnd // base and head
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDiff(cmd.Context(), cmd.OutOrStdout(), args)
	},
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileOpts.source, "source", "", "Source branch (default current branch)")
	reconcileCmd.Flags().StringVar(&reconcileOpts.dest, "dest", "", "Destination branch (default the default branch)")
	reconcileCmd.Flags().StringVarP(&reconcileOpts.message, "message", "m", "", "Merge commit message")

	ensureBranchCmd.Flags().StringVar(&ensureOpts.source, "source", "", "Branch to start from (default the default branch)")
	ensureBranchCmd.Flags().StringVar(&ensureOpts.branch, "branch", "", "Branch to create")
	_ = ensureBranchCmd.MarkFlagRequired("branch")

	fileGetCmd.Flags().StringVar(&fileGetOpts.ref, "ref", "", "Branch, tag or commit (default the default branch)")
	fileGetCmd.Flags().StringVarP(&fileGetOpts.output, "output", "o", "", "Write to a file instead of stdout")

	filePutCmd.Flags().StringVar(&filePutOpts.branch, "branch", "", "Branch to commit to (default current branch)")
	filePutCmd.Flags().StringVarP(&filePutOpts.message, "message", "m", "", "Commit message (default \"Update PATH\")")
	filePutCmd.Flags().StringVar(&filePutOpts.from, "from", stdinName, "Local file with the new content, - for stdin")
	filePutCmd.Flags().BoolVarP(&filePutOpts.yes, "yes", "y", false, "Do not ask for confirmation")

	fileCmd.AddCommand(fileGetCmd, filePutCmd)

	diffCmd.Flags().BoolVar(&diffOpts.raw, "raw", false, "Print the unified diff instead of the summary")
}

// connect opens a session and builds the host client for it.
func connect(ctx context.Context) (*session, host.Client, error) {
	s, err := openSession(ctx)
	if err != nil {
		return nil, nil, err
	}
	client, err := platform.NewClient(s.cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s client: %w", s.cfg.Platform, err)
	}
	return s, client, nil
}

func runReconcile(ctx context.Context, out io.Writer) error {
	start := time.Now()
	s, client, err := connect(ctx)
	if err != nil {
		return err
	}

	source, err := s.currentBranch(reconcileOpts.source, "source")
	if err != nil {
		return err
	}
	dest, err := s.defaultBranch(reconcileOpts.dest, "dest")
	if err != nil {
		return err
	}

	r := reconcile.New(client)
	r.SetLogger(log)
	log.Info(fmt.Sprintf("Reconciling %s into %s on %s %s", source, dest, client.PlatformName(), s.coord))
	outcome := r.Reconcile(ctx, reconcile.MergeRequest{
		Coordinate:  s.coord,
		Source:      source,
		Destination: dest,
		Message:     reconcileOpts.message,
	})
	return report(out, outcome, start)
}

func runEnsureBranch(ctx context.Context, out io.Writer) error {
	start := time.Now()
	s, client, err := connect(ctx)
	if err != nil {
		return err
	}

	source, err := s.defaultBranch(ensureOpts.source, "source")
	if err != nil {
		return err
	}

	r := reconcile.New(client)
	r.SetLogger(log)
	log.Info(fmt.Sprintf("Ensuring branch %s exists in %s", ensureOpts.branch, s.coord))
	return report(out, r.EnsureBranchExists(ctx, s.coord, source, ensureOpts.branch), start)
}

// report prints a successful outcome on out, or returns the failure with its reason.
func report(out io.Writer, outcome reconcile.Outcome, start time.Time) error {
	if !outcome.OK() {
		log.Error(fmt.Sprintf("Reconciliation failed after %s", timeutil.Since(start)))
		return fmt.Errorf("%s: %w", outcome.Reason, outcome.Err())
	}

	_, _ = fmt.Fprintln(out, outcome.String())
	if outcome.Merge.URL != "" {
		_, _ = fmt.Fprintln(out, outcome.Merge.URL)
	}
	if outcome.Merge.Detail != "" {
		log.Info(outcome.Merge.Detail)
	}
	log.Info("Completed in " + timeutil.Since(start))
	return nil
}

func runFileGet(ctx context.Context, out io.Writer, path string) error {
	s, client, err := connect(ctx)
	if err != nil {
		return err
	}

	file, err := client.GetFile(ctx, s.coord, path, fileGetOpts.ref)
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", path, err)
	}
	log.Debug(fmt.Sprintf("Fetched %s (%d bytes, blob %s)", file.Path, len(file.Content), file.SHA))

	if fileGetOpts.output != "" {
		if err := os.WriteFile(fileGetOpts.output, file.Content, 0o600); err != nil { //nolint:mnd // owner-only
			return fmt.Errorf("failed to write %s: %w", fileGetOpts.output, err)
		}
		log.Info(fmt.Sprintf("Wrote %s to %s", path, fileGetOpts.output))
		return nil
	}
	_, err = out.Write(file.Content)
	return err
}

func runFilePut(ctx context.Context, in io.Reader, out io.Writer, path string) error {
	if filePutOpts.from == stdinName && !filePutOpts.yes {
		return errStdinNeedsYes
	}

	s, client, err := connect(ctx)
	if err != nil {
		return err
	}
	branch, err := s.currentBranch(filePutOpts.branch, "branch")
	if err != nil {
		return err
	}

	content, err := readContent(in, filePutOpts.from)
	if err != nil {
		return err
	}

	if !filePutOpts.yes {
		ok, err := ui.NewPrompter().Confirm(
			fmt.Sprintf("Commit %s (%d bytes) to %s on %s?", path, len(content), branch, s.coord), false)
		if err != nil {
			return err
		}
		if !ok {
			return errAborted
		}
	}

	message := filePutOpts.message
	if message == "" {
		message = "Update " + path
	}

	commit, err := client.UpdateFile(ctx, s.coord, host.FileUpdate{
		Path:    path,
		Branch:  branch,
		Content: content,
		Message: message,
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	verb := "Updated"
	if commit.Created {
		verb = "Created"
	}
	_, _ = fmt.Fprintf(out, "%s %s on %s at %s\n", verb, commit.Path, commit.Branch, commit.CommitSHA)
	return nil
}

func readContent(in io.Reader, from string) ([]byte, error) {
	if from == stdinName {
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	// #nosec G304 - the user names the file to upload
	data, err := os.ReadFile(from)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", from, err)
	}
	return data, nil
}

func runDiff(ctx context.Context, out io.Writer, args []string) error {
	s, client, err := connect(ctx)
	if err != nil {
		return err
	}

	var baseFlag, headFlag string
	if len(args) > 0 {
		baseFlag = args[0]
	}
	if len(args) > 1 {
		headFlag = args[1]
	}
	base, err := s.defaultBranch(baseFlag, "base")
	if err != nil {
		return err
	}
	head, err := s.currentBranch(headFlag, "head")
	if err != nil {
		return err
	}

	diff, err := client.CompareDiff(ctx, s.coord, base, head)
	if err != nil {
		return fmt.Errorf("failed to compare %s...%s: %w", base, head, err)
	}
	if diffOpts.raw {
		_, err = io.WriteString(out, diff.Raw)
		return err
	}

	stats, err := diffstat.Summarize(diff.Raw)
	if err != nil {
		return err
	}
	return diffstat.Render(out, stats)
}
