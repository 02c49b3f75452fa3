package github

import "time"

// Release is the subset of the GitHub release payload used to build manifests.
type Release struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	TagName     string     `json:"tag_name"`
	Body        string     `json:"body"`
	Draft       bool       `json:"draft"`
	Prerelease  bool       `json:"prerelease"`
	CreatedAt   time.Time  `json:"created_at"`
	PublishedAt *time.Time `json:"published_at"`
	HTMLURL     string     `json:"html_url"`
	Assets      []Asset    `json:"assets"`
}

// Asset is the subset of the GitHub release asset payload used to build manifests.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
	ContentType        string `json:"content_type"`
}

// Clone returns a deep copy of r.
func (r *Release) Clone() *Release {
	if r == nil {
		return nil
	}
	out := *r
	if r.PublishedAt != nil {
		t := *r.PublishedAt
		out.PublishedAt = &t
	}
	if r.Assets != nil {
		out.Assets = make([]Asset, len(r.Assets))
		copy(out.Assets, r.Assets)
	}
	return &out
}
