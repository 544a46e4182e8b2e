// Package gitinfo reads the current branch of the repository that holds a
// notes file, without running git.
package gitinfo

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var errNoRepo = errors.New("not a git repository")

// Branch returns the checked-out branch for path, "detached:<sha>" for a
// detached HEAD, or "" when path is not inside a repository.
func Branch(path string) string {
	gitDir, _, err := locate(path)
	if err != nil {
		return ""
	}
	branch, err := head(gitDir)
	if err != nil {
		return ""
	}
	return branch
}

// Root returns the work tree root for path, or "".
func Root(path string) string {
	_, root, err := locate(path)
	if err != nil {
		return ""
	}
	return root
}

// locate walks up from path looking for .git, which is either a directory
// or a file pointing at one (worktrees and submodules).
func locate(path string) (gitDir, root string, err error) {
	dir, err := filepath.Abs(path)
	if err != nil {
		return "", "", err
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		candidate := filepath.Join(dir, ".git")
		if info, err := os.Stat(candidate); err == nil {
			if info.IsDir() {
				return candidate, dir, nil
			}
			if target, err := readGitFile(candidate); err == nil {
				if !filepath.IsAbs(target) {
					target = filepath.Join(dir, target)
				}
				return target, dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", "", errNoRepo
		}
		dir = parent
	}
}

func readGitFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	line := strings.TrimSpace(string(data))
	target, ok := strings.CutPrefix(line, "gitdir:")
	if !ok {
		return "", errNoRepo
	}
	return strings.TrimSpace(target), nil
}

func head(gitDir string) (string, error) {
	f, err := os.Open(filepath.Join(gitDir, "HEAD"))
	if err != nil {
		return "", err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return "", errors.New("empty HEAD")
	}
	line := strings.TrimSpace(sc.Text())
	if ref, ok := strings.CutPrefix(line, "ref:"); ok {
		ref = strings.TrimSpace(ref)
		return strings.TrimPrefix(ref, "refs/heads/"), nil
	}
	if len(line) >= 7 {
		return "detached:" + line[:7], nil
	}
	return "detached", nil
}
