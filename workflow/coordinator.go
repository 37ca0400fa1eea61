/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package workflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"text/template"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"chainguard.dev/prproposer/applier"
	"chainguard.dev/prproposer/changeset"
	"chainguard.dev/prproposer/gateway"
)

// TracerName names the tracer runs are recorded on.
const TracerName = "chainguard.dev/prproposer/workflow"

// DefaultBranchPrefix is prepended to the issue number to name the working branch.
const DefaultBranchPrefix = "agent-fix-issue-"

// Gateway is the subset of *gateway.Gateway used by a run.
type Gateway interface {
	applier.Writer
	Resolve(ctx context.Context, id string) (gateway.RepositoryHandle, error)
	FetchIssue(ctx context.Context, repo gateway.RepositoryHandle, number int) (gateway.IssueRef, error)
	ListFiles(ctx context.Context, repo gateway.RepositoryHandle) []gateway.FileEntry
	CreateBranch(ctx context.Context, repo gateway.RepositoryHandle, base, name string) (gateway.BranchRef, error)
	OpenPullRequest(ctx context.Context, repo gateway.RepositoryHandle, pr gateway.NewPullRequest) (gateway.PullRequestRef, error)
}

// Generator produces a change set and names the backend that produced it.
type Generator interface {
	Generate(ctx context.Context, issue gateway.IssueRef, files []gateway.FileEntry) (changeset.ChangeSet, string, error)
}

// Coordinator runs workflows against a shared Gateway.
type Coordinator struct {
	gw            Gateway
	gen           Generator
	applier       *applier.Applier
	registry      *Registry
	metrics       *Metrics
	tracer        trace.Tracer
	branchPrefix  string
	titleTemplate *template.Template
	bodyTemplate  *template.Template
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithBranchPrefix sets the working branch prefix.
func WithBranchPrefix(prefix string) Option {
	return func(c *Coordinator) { c.branchPrefix = prefix }
}

// WithRegistry records runs in r.
func WithRegistry(r *Registry) Option {
	return func(c *Coordinator) { c.registry = r }
}

// WithMetrics records runs on m.
func WithMetrics(m *Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithTracer overrides the OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(c *Coordinator) { c.tracer = t }
}

// WithTitleTemplate overrides DefaultTitleTemplate.
func WithTitleTemplate(t *template.Template) Option {
	return func(c *Coordinator) { c.titleTemplate = t }
}

// WithBodyTemplate overrides DefaultBodyTemplate.
func WithBodyTemplate(t *template.Template) Option {
	return func(c *Coordinator) { c.bodyTemplate = t }
}

// New returns a Coordinator.
func New(gw Gateway, gen Generator, opts ...Option) (*Coordinator, error) {
	if gw == nil {
		return nil, errors.New("gateway is required")
	}
	if gen == nil {
		return nil, errors.New("generator is required")
	}
	c := &Coordinator{
		gw:            gw,
		gen:           gen,
		applier:       applier.New(gw),
		tracer:        otel.Tracer(TracerName, trace.WithInstrumentationVersion("1.0.0")),
		branchPrefix:  DefaultBranchPrefix,
		titleTemplate: DefaultTitleTemplate,
		bodyTemplate:  DefaultBodyTemplate,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.branchPrefix == "" {
		return nil, errors.New("branch prefix cannot be empty")
	}
	if c.titleTemplate == nil || c.bodyTemplate == nil {
		return nil, errors.New("title and body templates are required")
	}
	if c.registry == nil {
		c.registry = NewRegistry(DefaultHistory)
	}
	return c, nil
}

// Registry returns the run registry.
func (c *Coordinator) Registry() *Registry { return c.registry }

// BranchName is the working branch for issue.
func (c *Coordinator) BranchName(issue int) string {
	return c.branchPrefix + strconv.Itoa(issue)
}

type run struct {
	c        *Coordinator
	req      Request
	res      Result
	repo     gateway.RepositoryHandle
	issue    gateway.IssueRef
	files    []gateway.FileEntry
	changes  changeset.ChangeSet
	branch   gateway.BranchRef
	progress func(string)
}

// Run executes one workflow to completion. Failures are reported in the
// returned Result.
func (c *Coordinator) Run(ctx context.Context, req Request) Result {
	r := &run{
		c:   c,
		req: req,
		res: Result{
			RunID:      uuid.NewString(),
			Repository: req.Repository,
			Issue:      req.IssueNumber,
			Stage:      Idle,
			Started:    time.Now(),
		},
		progress: req.Progress,
	}
	if r.progress == nil {
		r.progress = func(string) {}
	}

	ctx, span := c.tracer.Start(ctx, "workflow.run", trace.WithAttributes(
		attribute.String("run_id", r.res.RunID),
		attribute.String("repository", req.Repository),
		attribute.Int("issue", req.IssueNumber),
	))
	defer span.End()

	log := clog.FromContext(ctx).With("run_id", r.res.RunID, "repository", req.Repository, "issue", req.IssueNumber)
	ctx = clog.WithLogger(ctx, log)

	c.registry.begin(r.res)
	c.metrics.begin()
	log.Info("Starting workflow")

	err := r.execute(ctx)

	r.res.Duration = time.Since(r.res.Started)
	c.registry.finish(r.res)
	c.metrics.finish(r.res)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.With("stage", r.res.Stage.String(), "error", err).Warn("Workflow failed")
		r.progress(fmt.Sprintf("Failed at %s: %v", r.res.Stage, errors.Unwrap(err)))
		return r.res
	}
	log.With("pull_request", r.res.PullRequest.URL, "duration", r.res.Duration).Info("Workflow finished")
	r.progress("Pull request opened: " + r.res.PullRequest.URL)
	return r.res
}

func (r *run) execute(ctx context.Context) error {
	steps := []struct {
		stage   Stage
		message func() string
		fn      func(context.Context) error
	}{{
		stage:   IssueFetched,
		message: func() string { return fmt.Sprintf("Fetching issue #%d from %s", r.req.IssueNumber, r.req.Repository) },
		fn:      r.fetchIssue,
	}, {
		stage:   FilesListed,
		message: func() string { return fmt.Sprintf("Issue #%d found: %s. Listing repository files", r.issue.Number, r.issue.Title) },
		fn:      r.listFiles,
	}, {
		stage:   ChangeSetGenerated,
		message: func() string { return fmt.Sprintf("Asking the backend chain for a change set (%d paths in context)", len(r.files)) },
		fn:      r.generate,
	}, {
		stage:   BranchCreated,
		message: func() string { return "Creating branch " + r.c.BranchName(r.issue.Number) },
		fn:      r.createBranch,
	}, {
		stage:   ChangesApplied,
		message: func() string { return fmt.Sprintf("Committing %d change(s) to %s", len(r.changes), r.branch.Name) },
		fn:      r.apply,
	}, {
		stage:   PullRequestOpened,
		message: func() string { return "Changes committed, opening pull request" },
		fn:      r.openPullRequest,
	}}

	for _, s := range steps {
		r.progress(s.message())
		if err := r.step(ctx, s.stage, s.fn); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) step(ctx context.Context, stage Stage, fn func(context.Context) error) error {
	ctx, span := r.c.tracer.Start(ctx, "workflow."+stage.String())
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	r.c.metrics.stage(stage, time.Since(start), err)

	r.res.Stage = stage
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.res.Err = &StageError{Stage: stage, Err: err}
		return r.res.Err
	}
	r.c.registry.update(r.res)
	return nil
}

func (r *run) fetchIssue(ctx context.Context) error {
	repo, err := r.c.gw.Resolve(ctx, r.req.Repository)
	if err != nil {
		return err
	}
	r.repo = repo
	issue, err := r.c.gw.FetchIssue(ctx, repo, r.req.IssueNumber)
	if err != nil {
		return err
	}
	r.issue = issue
	return nil
}

func (r *run) listFiles(ctx context.Context) error {
	r.files = r.c.gw.ListFiles(ctx, r.repo)
	return nil
}

func (r *run) generate(ctx context.Context) error {
	cs, backend, err := r.c.gen.Generate(ctx, r.issue, r.files)
	if err != nil {
		return err
	}
	r.changes = cs
	r.res.Backend = backend
	r.res.ChangeCount = len(cs)
	return nil
}

func (r *run) createBranch(ctx context.Context) error {
	branch, err := r.c.gw.CreateBranch(ctx, r.repo, r.repo.DefaultBranch, r.c.BranchName(r.issue.Number))
	if err != nil {
		return err
	}
	r.branch = branch
	r.res.Branch = branch.Name
	return nil
}

func (r *run) apply(ctx context.Context) error {
	n, err := r.c.applier.Apply(ctx, r.repo, r.branch, r.issue.Number, r.changes)
	r.res.Applied = n
	return err
}

func (r *run) openPullRequest(ctx context.Context) error {
	data := PRData{Issue: r.issue, Backend: r.res.Backend, Branch: r.branch.Name, Changes: r.changes}
	title, err := render(r.c.titleTemplate, data)
	if err != nil {
		return err
	}
	body, err := render(r.c.bodyTemplate, data)
	if err != nil {
		return err
	}
	pr, err := r.c.gw.OpenPullRequest(ctx, r.repo, gateway.NewPullRequest{
		Title: title,
		Body:  body,
		Head:  r.branch.Name,
		Base:  r.branch.BaseName,
	})
	if err != nil {
		return err
	}
	r.res.PullRequest = pr
	return nil
}
