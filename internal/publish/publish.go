// Package publish writes the todo list and the admin dashboard to markdown
// files.
package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"itask-cli/internal/admin"
	"itask-cli/internal/model"
)

const (
	TodosFile     = "todos.md"
	DashboardFile = "dashboard.md"
)

type WriteOptions struct {
	Overwrite bool
	Render    RenderOptions
}

type WriteResult struct {
	Written []string `json:"written"`
}

func WriteTodos(items []model.Todo, toDir string, opt WriteOptions) (WriteResult, error) {
	dir, err := outDir(toDir)
	if err != nil {
		return WriteResult{}, err
	}
	p := filepath.Join(dir, TodosFile)
	if err := writeFile(p, []byte(RenderTodosMarkdown(items, opt.Render)), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Written: []string{p}}, nil
}

func WriteDashboard(snap admin.Snapshot, toDir string, opt WriteOptions) (WriteResult, error) {
	dir, err := outDir(toDir)
	if err != nil {
		return WriteResult{}, err
	}
	md, err := RenderDashboardMarkdown(snap, opt.Render)
	if err != nil {
		return WriteResult{}, err
	}
	p := filepath.Join(dir, DashboardFile)
	if err := writeFile(p, []byte(md), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Written: []string{p}}, nil
}

func outDir(toDir string) (string, error) {
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return "", errors.New("missing --to")
	}
	toDir = filepath.Clean(toDir)
	if err := os.MkdirAll(toDir, 0o755); err != nil {
		return "", err
	}
	return toDir, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
