package github

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/google/go-github/v81/github"

	"github.com/bull/docqa/internal/parser"
)

// FetchedFile is a document fetched from GitHub.
type FetchedFile struct {
	Path string // relative to the fetcher base path
	Data []byte
	SHA  string // Git blob SHA
	URL  string // raw download URL
}

// Fetcher lists and downloads documents under one directory of a repository.
type Fetcher struct {
	client   *Client
	owner    string
	repo     string
	basePath string
	ref      string
}

// NewFetcher creates a new document fetcher. An empty ref means the default branch.
func NewFetcher(client *Client, owner, repo, basePath, ref string) *Fetcher {
	return &Fetcher{
		client:   client,
		owner:    owner,
		repo:     repo,
		basePath: basePath,
		ref:      ref,
	}
}

func (f *Fetcher) contentOptions() *github.RepositoryContentGetOptions {
	if f.ref == "" {
		return nil
	}
	return &github.RepositoryContentGetOptions{Ref: f.ref}
}

// ListFiles recursively lists every file the parser supports, relative to the base path.
func (f *Fetcher) ListFiles(ctx context.Context) ([]string, error) {
	return f.listRecursive(ctx, f.basePath, "")
}

func (f *Fetcher) listRecursive(ctx context.Context, fullPath, relativePath string) ([]string, error) {
	var files []string

	_, dirContents, _, err := f.client.Repositories.GetContents(ctx, f.owner, f.repo, fullPath, f.contentOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to get contents of %s: %w", fullPath, err)
	}

	for _, item := range dirContents {
		name := item.GetName()
		if name == "" {
			continue
		}
		itemRelPath := path.Join(relativePath, name)

		switch item.GetType() {
		case "file":
			if parser.Supported(name) {
				files = append(files, itemRelPath)
			}
		case "dir":
			sub, err := f.listRecursive(ctx, path.Join(fullPath, name), itemRelPath)
			if err != nil {
				return nil, err
			}
			files = append(files, sub...)
		}
	}

	return files, nil
}

// FetchFile downloads one file. Files too large for the contents API are
// streamed from the download endpoint instead.
func (f *Fetcher) FetchFile(ctx context.Context, relativePath string) (*FetchedFile, error) {
	fullPath := path.Join(f.basePath, relativePath)

	fileContent, _, _, err := f.client.Repositories.GetContents(ctx, f.owner, f.repo, fullPath, f.contentOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to get content of %s: %w", fullPath, err)
	}
	if fileContent == nil {
		return nil, fmt.Errorf("%s is not a file", fullPath)
	}

	var data []byte
	if fileContent.GetEncoding() == "base64" {
		content, err := fileContent.GetContent()
		if err != nil {
			return nil, fmt.Errorf("failed to decode content of %s: %w", fullPath, err)
		}
		data = []byte(content)
	} else {
		rc, _, err := f.client.Repositories.DownloadContents(ctx, f.owner, f.repo, fullPath, f.contentOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", fullPath, err)
		}
		defer rc.Close()
		if data, err = io.ReadAll(rc); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fullPath, err)
		}
	}

	return &FetchedFile{
		Path: relativePath,
		Data: data,
		SHA:  fileContent.GetSHA(),
		URL:  fileContent.GetDownloadURL(),
	}, nil
}

// LatestCommitSHA retrieves the SHA of the most recent commit touching the base path.
func (f *Fetcher) LatestCommitSHA(ctx context.Context) (string, error) {
	commits, _, err := f.client.Repositories.ListCommits(ctx, f.owner, f.repo, &github.CommitsListOptions{
		SHA:         f.ref,
		Path:        f.basePath,
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return "", fmt.Errorf("failed to get latest commit: %w", err)
	}

	if len(commits) == 0 {
		return "", fmt.Errorf("no commits found for path %s", f.basePath)
	}

	return commits[0].GetSHA(), nil
}

// Fetch returns the raw bytes of one file listed by ListFiles.
func (f *Fetcher) Fetch(ctx context.Context, relativePath string) ([]byte, error) {
	file, err := f.FetchFile(ctx, relativePath)
	if err != nil {
		return nil, err
	}
	return file.Data, nil
}
