// Package mocks provides call-tracking test doubles for repohost interfaces.
package mocks

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sgaunet/repohost/pkg/host"
)

// MethodCall represents a tracked method call with its parameters.
type MethodCall struct {
	Method string
	Args   map[string]any
	Seq    int
	At     time.Time
}

// HostClient is a mock implementation of host.Client with call tracking.
// Branches behaves like a tiny remote: CreateRef adds to it, so a second
// reconciliation against the same mock observes the created branch.
type HostClient struct {
	mu    sync.Mutex
	calls []MethodCall

	// Remote state
	Branches map[string]host.BranchRef

	// Configurable responses
	LookupErrors        map[string]error // per-branch lookup failure, checked first
	CreateRefError      error
	MergeBranchResponse host.MergeResult
	MergeBranchError    error
	GetFileResponse     host.File
	GetFileError        error
	UpdateFileResponse  host.FileCommit
	UpdateFileError     error
	CompareDiffResponse host.Diff
	CompareDiffError    error
	PlatformNameValue   string
}

// NewHostClient creates a mock host client with the given existing branches.
func NewHostClient(branches ...host.BranchRef) *HostClient {
	m := &HostClient{
		calls:             make([]MethodCall, 0),
		Branches:          make(map[string]host.BranchRef),
		LookupErrors:      make(map[string]error),
		PlatformNameValue: "MockHost",
	}
	for _, b := range branches {
		m.Branches[b.Name] = b
	}
	return m
}

// notFoundError returns the error a real adapter produces for a missing branch.
func notFoundError() error {
	return host.NewError(host.OpLookupBranch, 404, errors.New("404 Not Found"))
}

// LookupBranch implements host.Client.
func (m *HostClient) LookupBranch(ctx context.Context, coord host.Coordinate, branch string) (host.BranchRef, error) {
	m.trackCall("LookupBranch", map[string]any{
		"coordinate": coord,
		"branch":     branch,
	})
	if err := ctx.Err(); err != nil {
		return host.BranchRef{}, &host.Error{Op: host.OpLookupBranch, Kind: host.KindHost, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.LookupErrors[branch]; ok {
		return host.BranchRef{}, err
	}
	if ref, ok := m.Branches[branch]; ok {
		return ref, nil
	}
	return host.BranchRef{}, notFoundError()
}

// CreateRef implements host.Client.
func (m *HostClient) CreateRef(_ context.Context, coord host.Coordinate, ref, sha string) (host.BranchRef, error) {
	m.trackCall("CreateRef", map[string]any{
		"coordinate": coord,
		"ref":        ref,
		"sha":        sha,
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateRefError != nil {
		return host.BranchRef{}, m.CreateRefError
	}
	created := host.BranchRef{Name: strings.TrimPrefix(ref, host.HeadsPrefix), CommitSHA: sha}
	m.Branches[created.Name] = created
	return created, nil
}

// MergeBranch implements host.Client.
func (m *HostClient) MergeBranch(_ context.Context, coord host.Coordinate, spec host.MergeSpec) (host.MergeResult, error) {
	m.trackCall("MergeBranch", map[string]any{
		"coordinate": coord,
		"base":       spec.Base,
		"head":       spec.Head,
		"message":    spec.Message,
	})
	return m.MergeBranchResponse, m.MergeBranchError
}

// GetFile implements host.Client.
func (m *HostClient) GetFile(_ context.Context, coord host.Coordinate, path, ref string) (host.File, error) {
	m.trackCall("GetFile", map[string]any{
		"coordinate": coord,
		"path":       path,
		"ref":        ref,
	})
	return m.GetFileResponse, m.GetFileError
}

// UpdateFile implements host.Client.
func (m *HostClient) UpdateFile(_ context.Context, coord host.Coordinate, update host.FileUpdate) (host.FileCommit, error) {
	m.trackCall("UpdateFile", map[string]any{
		"coordinate": coord,
		"path":       update.Path,
		"branch":     update.Branch,
		"message":    update.Message,
		"content":    string(update.Content),
	})
	return m.UpdateFileResponse, m.UpdateFileError
}

// CompareDiff implements host.Client.
func (m *HostClient) CompareDiff(_ context.Context, coord host.Coordinate, base, head string) (host.Diff, error) {
	m.trackCall("CompareDiff", map[string]any{
		"coordinate": coord,
		"base":       base,
		"head":       head,
	})
	return m.CompareDiffResponse, m.CompareDiffError
}

// PlatformName implements host.Client.
func (m *HostClient) PlatformName() string {
	return m.PlatformNameValue
}

// GetCalls returns all tracked method calls in call order.
func (m *HostClient) GetCalls() []MethodCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MethodCall{}, m.calls...)
}

// GetCallCount returns the number of times a method was called.
func (m *HostClient) GetCallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, call := range m.calls {
		if call.Method == method {
			count++
		}
	}
	return count
}

// GetLastCall returns the last call to the specified method, or nil if not called.
func (m *HostClient) GetLastCall(method string) *MethodCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.calls) - 1; i >= 0; i-- {
		if m.calls[i].Method == method {
			return &m.calls[i]
		}
	}
	return nil
}

// MutatingCallCount returns the number of CreateRef and MergeBranch calls.
func (m *HostClient) MutatingCallCount() int {
	return m.GetCallCount("CreateRef") + m.GetCallCount("MergeBranch")
}

// trackCall records a method call with its arguments.
func (m *HostClient) trackCall(method string, args map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MethodCall{
		Method: method,
		Args:   args,
		Seq:    len(m.calls),
		At:     time.Now(),
	})
}

// Ensure HostClient implements host.Client interface.
var _ host.Client = (*HostClient)(nil)
