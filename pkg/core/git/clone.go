// Package git clones source repositories into the sentinel workspace.
package git

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	gogithttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/rs/zerolog"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/errors"
)

// Cloner fetches a repository into a local directory.
type Cloner interface {
	Clone(ctx context.Context, url, targetDir string) (string, error)
}

// CloneOptions tune how a repository is fetched.
type CloneOptions struct {
	Branch    string
	Depth     int
	AuthToken string
	Timeout   time.Duration
}

// GoGitCloner clones with go-git, so no git binary is required.
type GoGitCloner struct {
	logger  zerolog.Logger
	options CloneOptions
}

// NewCloner returns a go-git backed Cloner.
func NewCloner(logger zerolog.Logger, options CloneOptions) *GoGitCloner {
	return &GoGitCloner{
		logger:  logger.With().Str("component", "git_cloner").Logger(),
		options: options,
	}
}

// Clone fetches url into targetDir, which must be empty or absent.
func (c *GoGitCloner) Clone(ctx context.Context, url, targetDir string) (string, error) {
	startTime := time.Now()

	if err := validateCloneInputs(url, targetDir); err != nil {
		return "", errors.New(errors.CodeCloneFailed, "git", "invalid clone request", err)
	}

	if c.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.options.Timeout)
		defer cancel()
	}

	opts := &gogit.CloneOptions{
		URL:   url,
		Depth: c.options.Depth,
	}
	if c.options.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(c.options.Branch)
		opts.SingleBranch = true
	}
	if c.options.AuthToken != "" {
		opts.Auth = &gogithttp.BasicAuth{
			Username: "git", // ignored for token auth
			Password: c.options.AuthToken,
		}
	}

	c.logger.Info().
		Str("repo_url", url).
		Str("target_dir", targetDir).
		Str("branch", c.options.Branch).
		Msg("Starting git clone")

	repo, err := gogit.PlainCloneContext(ctx, targetDir, false, opts)
	if err != nil {
		c.logger.Error().Err(err).Str("repo_url", url).Msg("Git clone failed")
		_ = os.RemoveAll(targetDir)
		return "", errors.New(errors.CodeCloneFailed, "git",
			fmt.Sprintf("clone %s failed (%s)", url, categorizeError(err)), err)
	}

	event := c.logger.Info().
		Str("repo_url", url).
		Str("repo_path", targetDir).
		Dur("duration", time.Since(startTime))
	if head, err := repo.Head(); err == nil {
		event = event.Str("commit", head.Hash().String())
	}
	event.Msg("Git clone completed")

	return targetDir, nil
}

func validateCloneInputs(url, targetDir string) error {
	if url == "" {
		return fmt.Errorf("repository URL is required")
	}
	if targetDir == "" {
		return fmt.Errorf("target directory is required")
	}
	if !strings.Contains(url, "://") && !strings.Contains(url, "@") && !strings.HasPrefix(url, "/") {
		return fmt.Errorf("repository URL appears to be invalid: %s", url)
	}
	return nil
}

func categorizeError(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "authentication"), strings.Contains(msg, "authorization"),
		strings.Contains(msg, "permission denied"), strings.Contains(msg, "unauthorized"):
		return "auth_error"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline"),
		strings.Contains(msg, "connection"), strings.Contains(msg, "network"):
		return "network_error"
	case strings.Contains(msg, "not found"), strings.Contains(msg, "does not exist"),
		strings.Contains(msg, "empty"):
		return "invalid_repo"
	default:
		return "clone_error"
	}
}
