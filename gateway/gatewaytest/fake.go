/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package gatewaytest provides an in-memory GitHub REST server covering the
// endpoints used by package gateway.
package gatewaytest

import (
	"crypto/sha1" //nolint:gosec // blob ids only
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-github/v84/github"
)

// Issue is a seeded issue.
type Issue struct {
	Title string
	Body  string
}

// Write records a contents mutation accepted by the server.
type Write struct {
	Method  string
	Branch  string
	Path    string
	SHA     string
	Content string
}

// PullRequest records an opened pull request.
type PullRequest struct {
	Number int
	Title  string
	Body   string
	Head   string
	Base   string
}

// Server is a fake GitHub API for a single repository.
type Server struct {
	Owner         string
	Repo          string
	DefaultBranch string

	mu sync.Mutex

	issues   map[int]Issue
	branches map[string]string
	commits  map[string]map[string]string
	parents  map[string]string
	seq      int

	// Failure injection.
	treeStatus     int
	contentsStatus int
	pullStatus     int
	pullMessage    string
	rateLimited    int

	writes       []Write
	pulls        []PullRequest
	refCreates   int
	rateLimitHit int

	srv *httptest.Server
}

// New starts a fake server for owner/repo with files on the default branch "main".
func New(t testing.TB, owner, repo string, files map[string]string) *Server {
	t.Helper()
	s := &Server{
		Owner:         owner,
		Repo:          repo,
		DefaultBranch: "main",
		issues:        map[int]Issue{},
		branches:      map[string]string{},
		commits:       map[string]map[string]string{},
		parents:       map[string]string{},
	}
	snapshot := make(map[string]string, len(files))
	for k, v := range files {
		snapshot[k] = v
	}
	s.branches["main"] = s.commit("", snapshot)
	s.srv = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.srv.Close)
	return s
}

// URL is the REST root of the server.
func (s *Server) URL() string { return s.srv.URL }

// Client returns a go-github client pointed at the server.
func (s *Server) Client() *github.Client {
	c := github.NewClient(s.srv.Client())
	u, _ := url.Parse(s.srv.URL + "/")
	c.BaseURL = u
	c.UploadURL = u
	return c
}

// AddIssue seeds an issue.
func (s *Server) AddIssue(number int, issue Issue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issues[number] = issue
}

// AddBranch creates branch from the current tip of the default branch.
func (s *Server) AddBranch(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.branches[name] = s.branches[s.DefaultBranch]
}

// SetFile commits content to path on branch, bypassing the API.
func (s *Server) SetFile(branch, p, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tip := s.branches[branch]
	files := clone(s.commits[tip])
	files[p] = content
	s.branches[branch] = s.commit(tip, files)
}

// FailTree makes recursive tree requests fail with status.
func (s *Server) FailTree(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.treeStatus = status
}

// FailDirectoryListing makes directory contents requests fail with status.
func (s *Server) FailDirectoryListing(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contentsStatus = status
}

// FailPulls makes pull request creation fail with status and message.
func (s *Server) FailPulls(status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pullStatus, s.pullMessage = status, message
}

// RateLimitNext rejects the next n requests as rate limited with a reset in the past.
func (s *Server) RateLimitNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rateLimited = n
}

// RateLimitHits returns how many requests were rejected as rate limited.
func (s *Server) RateLimitHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rateLimitHit
}

// Writes returns the accepted contents mutations in order.
func (s *Server) Writes() []Write {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.writes)
}

// Pulls returns the opened pull requests.
func (s *Server) Pulls() []PullRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.pulls)
}

// RefCreates returns how many branches were created through the API.
func (s *Server) RefCreates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refCreates
}

// File returns the content of p on branch.
func (s *Server) File(branch, p string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sha, ok := s.branches[branch]
	if !ok {
		return "", false
	}
	c, ok := s.commits[sha][p]
	return c, ok
}

// HasBranch reports whether branch exists.
func (s *Server) HasBranch(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.branches[name]
	return ok
}

// BlobSHA is the blob id the server reports for content.
func BlobSHA(content string) string {
	sum := sha1.Sum([]byte("blob " + strconv.Itoa(len(content)) + "\x00" + content)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// Head returns the commit branch points at.
func (s *Server) Head(branch string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.branches[branch]
}

func (s *Server) commit(parent string, files map[string]string) string {
	s.seq++
	sum := sha1.Sum([]byte(fmt.Sprintf("commit-%d", s.seq))) //nolint:gosec
	sha := hex.EncodeToString(sum[:])
	s.commits[sha] = files
	if parent != "" {
		s.parents[sha] = parent
	}
	return sha
}

// mergeBase is the newest ancestor of head that is also an ancestor of base.
func (s *Server) mergeBase(base, head string) (string, bool) {
	seen := map[string]bool{}
	for c := base; c != ""; c = s.parents[c] {
		seen[c] = true
	}
	for c := head; c != ""; c = s.parents[c] {
		if seen[c] {
			return c, true
		}
	}
	return "", false
}

func (s *Server) commitish(ref string) (string, bool) {
	if sha, ok := s.branches[ref]; ok {
		return sha, true
	}
	_, ok := s.commits[ref]
	return ref, ok
}

func clone(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rateLimited > 0 {
		s.rateLimited--
		s.rateLimitHit++
		w.Header().Set("X-RateLimit-Limit", "5000")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(-time.Second).Unix(), 10))
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "API rate limit exceeded"})
		return
	}

	if r.URL.Path == "/rate_limit" && r.Method == http.MethodGet {
		s.getRateLimit(w)
		return
	}

	prefix := "/repos/" + s.Owner + "/" + s.Repo
	if r.URL.Path != prefix && !strings.HasPrefix(r.URL.Path, prefix+"/") {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	rest := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, prefix), "/")

	switch {
	case rest == "" && r.Method == http.MethodGet:
		s.getRepo(w)
	case strings.HasPrefix(rest, "issues/") && r.Method == http.MethodGet:
		s.getIssue(w, strings.TrimPrefix(rest, "issues/"))
	case strings.HasPrefix(rest, "git/trees/") && r.Method == http.MethodGet:
		s.getTree(w, strings.TrimPrefix(rest, "git/trees/"))
	case strings.HasPrefix(rest, "git/ref/heads/") && r.Method == http.MethodGet:
		s.getRef(w, strings.TrimPrefix(rest, "git/ref/heads/"))
	case strings.HasPrefix(rest, "git/refs/heads/") && r.Method == http.MethodGet:
		s.getRef(w, strings.TrimPrefix(rest, "git/refs/heads/"))
	case rest == "git/refs" && r.Method == http.MethodPost:
		s.createRef(w, r)
	case (rest == "contents" || strings.HasPrefix(rest, "contents/")) && r.Method == http.MethodGet:
		s.getContents(w, r, strings.TrimPrefix(strings.TrimPrefix(rest, "contents"), "/"))
	case strings.HasPrefix(rest, "contents/") && (r.Method == http.MethodPut || r.Method == http.MethodDelete):
		s.writeContents(w, r, strings.TrimPrefix(rest, "contents/"))
	case strings.HasPrefix(rest, "compare/") && r.Method == http.MethodGet:
		s.compare(w, strings.TrimPrefix(rest, "compare/"))
	case rest == "pulls" && r.Method == http.MethodPost:
		s.createPull(w, r)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
	}
}

func (s *Server) getRepo(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":             s.Repo,
		"full_name":        s.Owner + "/" + s.Repo,
		"default_branch":   s.DefaultBranch,
		"owner":            map[string]string{"login": s.Owner},
		"private":          false,
		"stargazers_count": 7,
		"forks_count":      2,
		"html_url":         fmt.Sprintf("https://github.com/%s/%s", s.Owner, s.Repo),
	})
}

func (s *Server) getIssue(w http.ResponseWriter, num string) {
	n, err := strconv.Atoi(num)
	issue, ok := s.issues[n]
	if err != nil || !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"number":   n,
		"title":    issue.Title,
		"body":     issue.Body,
		"html_url": fmt.Sprintf("https://github.com/%s/%s/issues/%d", s.Owner, s.Repo, n),
	})
}

func (s *Server) resolve(ref string) (map[string]string, bool) {
	if ref == "" {
		ref = s.DefaultBranch
	}
	if sha, ok := s.branches[ref]; ok {
		return s.commits[sha], true
	}
	files, ok := s.commits[ref]
	return files, ok
}

func (s *Server) getTree(w http.ResponseWriter, ref string) {
	if s.treeStatus != 0 {
		writeJSON(w, s.treeStatus, map[string]string{"message": "tree unavailable"})
		return
	}
	files, ok := s.resolve(ref)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	dirs := map[string]bool{}
	var entries []map[string]string
	for p, c := range files {
		entries = append(entries, map[string]string{"path": p, "type": "blob", "sha": BlobSHA(c)})
		for d := path.Dir(p); d != "."; d = path.Dir(d) {
			dirs[d] = true
		}
	}
	for d := range dirs {
		entries = append(entries, map[string]string{"path": d, "type": "tree"})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sha": ref, "tree": entries, "truncated": false})
}

func (s *Server) getRef(w http.ResponseWriter, branch string) {
	sha, ok := s.branches[branch]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ref":    "refs/heads/" + branch,
		"object": map[string]string{"sha": sha, "type": "commit"},
	})
}

func (s *Server) createRef(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Ref string `json:"ref"`
		SHA string `json:"sha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	name := strings.TrimPrefix(body.Ref, "refs/heads/")
	if _, ok := s.branches[name]; ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Reference already exists"})
		return
	}
	if _, ok := s.commits[body.SHA]; !ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Object does not exist"})
		return
	}
	s.branches[name] = body.SHA
	s.refCreates++
	writeJSON(w, http.StatusCreated, map[string]any{
		"ref":    body.Ref,
		"object": map[string]string{"sha": body.SHA, "type": "commit"},
	})
}

func (s *Server) getContents(w http.ResponseWriter, r *http.Request, p string) {
	files, ok := s.resolve(r.URL.Query().Get("ref"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "No commit found for the ref"})
		return
	}
	p = strings.Trim(p, "/")
	if c, ok := files[p]; ok {
		writeJSON(w, http.StatusOK, map[string]any{
			"type":     "file",
			"encoding": "base64",
			"path":     p,
			"name":     path.Base(p),
			"sha":      BlobSHA(c),
			"content":  []byte(c),
		})
		return
	}

	if s.contentsStatus != 0 {
		writeJSON(w, s.contentsStatus, map[string]string{"message": "contents unavailable"})
		return
	}
	prefix := ""
	if p != "" {
		prefix = p + "/"
	}
	seen := map[string]bool{}
	var listing []map[string]string
	for fp := range files {
		if !strings.HasPrefix(fp, prefix) {
			continue
		}
		child, _, isDir := strings.Cut(strings.TrimPrefix(fp, prefix), "/")
		full := prefix + child
		if seen[full] {
			continue
		}
		seen[full] = true
		typ := "file"
		if isDir {
			typ = "dir"
		}
		listing = append(listing, map[string]string{"type": typ, "path": full, "name": child})
	}
	if listing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) writeContents(w http.ResponseWriter, r *http.Request, p string) {
	var body struct {
		Message string  `json:"message"`
		Content []byte  `json:"content"`
		SHA     *string `json:"sha"`
		Branch  *string `json:"branch"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	branch := s.DefaultBranch
	if body.Branch != nil {
		branch = *body.Branch
	}
	tip, ok := s.branches[branch]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Branch not found"})
		return
	}
	files := clone(s.commits[tip])
	current, exists := files[p]
	sent := ""
	if body.SHA != nil {
		sent = *body.SHA
	}

	switch {
	case r.Method == http.MethodDelete && !exists:
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	case exists && sent == "":
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": `Invalid request. "sha" wasn't supplied.`})
		return
	case exists && sent != BlobSHA(current):
		writeJSON(w, http.StatusConflict, map[string]string{"message": fmt.Sprintf("%s does not match %s", p, sent)})
		return
	}

	if r.Method == http.MethodDelete {
		delete(files, p)
	} else {
		files[p] = string(body.Content)
	}
	s.branches[branch] = s.commit(tip, files)
	s.writes = append(s.writes, Write{
		Method:  r.Method,
		Branch:  branch,
		Path:    p,
		SHA:     sent,
		Content: string(body.Content),
	})

	status := http.StatusOK
	if !exists {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{
		"content": map[string]string{"path": p},
		"commit":  map[string]string{"sha": s.branches[branch], "message": body.Message},
	})
}

func (s *Server) createPull(w http.ResponseWriter, r *http.Request) {
	if s.pullStatus != 0 {
		writeJSON(w, s.pullStatus, map[string]any{
			"message": "Validation Failed",
			"errors":  []map[string]string{{"resource": "PullRequest", "code": "custom", "message": s.pullMessage}},
		})
		return
	}
	var body struct {
		Title string `json:"title"`
		Body  string `json:"body"`
		Head  string `json:"head"`
		Base  string `json:"base"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	n := len(s.pulls) + 1
	s.pulls = append(s.pulls, PullRequest{Number: n, Title: body.Title, Body: body.Body, Head: body.Head, Base: body.Base})
	writeJSON(w, http.StatusCreated, map[string]any{
		"number":   n,
		"title":    body.Title,
		"html_url": fmt.Sprintf("https://github.com/%s/%s/pull/%d", s.Owner, s.Repo, n),
	})
}

func (s *Server) compare(w http.ResponseWriter, refs string) {
	baseRef, headRef, ok := strings.Cut(refs, "...")
	base, okBase := s.commitish(baseRef)
	head, okHead := s.commitish(headRef)
	if !ok || !okBase || !okHead {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	mb, ok := s.mergeBase(base, head)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "No common ancestor"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"base_commit":       map[string]string{"sha": base},
		"merge_base_commit": map[string]string{"sha": mb},
	})
}

func (s *Server) getRateLimit(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]any{
		"resources": map[string]any{
			"core": map[string]any{"limit": 5000, "remaining": 4999, "used": 1, "reset": RateLimitReset.Unix()},
		},
	})
}

// RateLimitReset is the core reset time reported by the rate_limit endpoint.
var RateLimitReset = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
