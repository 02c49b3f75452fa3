package helpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stacklok/vicius-manifest-server/internal/github"
)

// FakeGitHub serves the release endpoints of the GitHub REST API from memory
type FakeGitHub struct {
	server *httptest.Server

	mu       sync.Mutex
	releases map[string][]github.Release
	status   map[string]int

	requests atomic.Int64
}

// NewFakeGitHub starts a fake GitHub API. Call Close when done.
func NewFakeGitHub() *FakeGitHub {
	f := &FakeGitHub{
		releases: make(map[string][]github.Release),
		status:   make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/{owner}/{repo}/releases/latest", f.latest)
	mux.HandleFunc("GET /repos/{owner}/{repo}/releases", f.list)
	f.server = httptest.NewServer(mux)
	return f
}

// URL returns the base URL to configure as upstream.baseUrl
func (f *FakeGitHub) URL() string {
	return f.server.URL
}

// Close stops the server
func (f *FakeGitHub) Close() {
	f.server.Close()
}

// Requests returns how many requests the fake has answered
func (f *FakeGitHub) Requests() int64 {
	return f.requests.Load()
}

// SetReleases replaces the releases of a repository, newest first
func (f *FakeGitHub) SetReleases(owner, repo string, releases ...github.Release) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases[owner+"/"+repo] = releases
}

// FailWith makes every request for a repository answer with status
func (f *FakeGitHub) FailWith(owner, repo string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[owner+"/"+repo] = status
}

func (f *FakeGitHub) lookup(w http.ResponseWriter, r *http.Request) ([]github.Release, bool) {
	f.requests.Add(1)

	key := r.PathValue("owner") + "/" + r.PathValue("repo")

	f.mu.Lock()
	status := f.status[key]
	releases, ok := f.releases[key]
	f.mu.Unlock()

	if status != 0 {
		http.Error(w, `{"message":"injected failure"}`, status)
		return nil, false
	}
	if !ok {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
		return nil, false
	}
	return releases, true
}

func (f *FakeGitHub) latest(w http.ResponseWriter, r *http.Request) {
	releases, ok := f.lookup(w, r)
	if !ok {
		return
	}
	for _, rel := range releases {
		if !rel.Draft && !rel.Prerelease {
			writeJSON(w, rel)
			return
		}
	}
	http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
}

func (f *FakeGitHub) list(w http.ResponseWriter, r *http.Request) {
	releases, ok := f.lookup(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("page") != "1" {
		releases = []github.Release{}
	}
	writeJSON(w, releases)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// NewRelease builds a release with one asset per architecture
func NewRelease(owner, repo, tag string, created time.Time, architectures ...string) github.Release {
	rel := github.Release{
		ID:        created.Unix(),
		Name:      fmt.Sprintf("%s %s", repo, tag),
		TagName:   tag,
		Body:      "<!-- build metadata -->\r\n## Changes\n* Fixes",
		CreatedAt: created,
		HTMLURL:   fmt.Sprintf("https://github.com/%s/%s/releases/tag/%s", owner, repo, tag),
	}
	version := strings.TrimLeft(tag, "abcdefghijklmnopqrstuvwxyz-")
	for _, arch := range architectures {
		name := fmt.Sprintf("%s_%s_%s.exe", repo, version, arch)
		rel.Assets = append(rel.Assets, github.Asset{
			Name:               name,
			BrowserDownloadURL: fmt.Sprintf("https://github.com/%s/%s/releases/download/%s/%s", owner, repo, tag, name),
			Size:               1024,
			ContentType:        "application/x-msdownload",
		})
	}
	return rel
}
