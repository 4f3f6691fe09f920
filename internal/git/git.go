package git

import (
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Info describes the checkout a repository was scanned from
type Info struct {
	Branch    string `json:"branch,omitempty" yaml:"branch,omitempty"`
	Commit    string `json:"commit,omitempty" yaml:"commit,omitempty"`
	IsDirty   bool   `json:"is_dirty" yaml:"is_dirty"`
	RemoteURL string `json:"remote_url,omitempty" yaml:"remote_url,omitempty"`
}

// GetInfo returns checkout information for path, or nil outside a git repository.
// Parent directories are searched for the .git directory.
func GetInfo(path string) *Info {
	info, _ := GetInfoWithRoot(path)
	return info
}

// GetInfoWithRoot also returns the worktree root of the repository
func GetInfoWithRoot(path string) (*Info, string) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, ""
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, ""
	}
	root := worktree.Filesystem.Root()

	info := &Info{}
	head, err := repo.Head()
	if err == nil {
		info.Commit = head.Hash().String()[:7]
		if head.Name().IsBranch() {
			info.Branch = head.Name().Short()
		} else {
			info.Branch = "HEAD" // detached
		}
	}

	// Status walks the whole worktree
	if status, err := worktree.Status(); err == nil {
		info.IsDirty = !status.IsClean()
	}

	if cfg, err := repo.Config(); err == nil {
		if origin := cfg.Remotes["origin"]; origin != nil && len(origin.URLs) > 0 {
			info.RemoteURL = sanitizeRemoteURL(origin.URLs[0])
		}
	}

	return info, root
}

// sanitizeRemoteURL drops credentials embedded in HTTP(S) remotes.
// Reports end up in CI logs and must not leak tokens.
func sanitizeRemoteURL(remote string) string {
	if !strings.HasPrefix(remote, "http://") && !strings.HasPrefix(remote, "https://") {
		return remote
	}
	u, err := url.Parse(remote)
	if err != nil || u.User == nil {
		return remote
	}
	u.User = nil
	return u.String()
}
