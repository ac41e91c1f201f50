package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"mercator-hq/tailsim/pkg/sampling"
	"mercator-hq/tailsim/pkg/sampling/engine"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// policyFile is the on-disk layout of a policy file.
type policyFile struct {
	Policies []sampling.PolicyCfg `yaml:"policies"`
}

// FileSource loads policies from YAML or JSON files on disk.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource creates a new file-based policy source.
// The path can be either a single file or a directory.
// If it's a directory, all .yaml, .yml and .json files are loaded in
// lexical order.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{
		path:   path,
		logger: logger,
	}
}

// Path returns the configured file or directory.
func (s *FileSource) Path() string {
	return s.path
}

// LoadPolicies loads all policies from the configured path.
func (s *FileSource) LoadPolicies(ctx context.Context) ([]sampling.PolicyCfg, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path %q: %w", s.path, err)
	}

	var cfgs []sampling.PolicyCfg

	if info.IsDir() {
		cfgs, err = s.loadDirectory(ctx)
	} else {
		cfgs, err = s.loadFile(s.path)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("loaded policies from source",
		"path", s.path,
		"policy_count", len(cfgs),
	)

	return cfgs, nil
}

// loadDirectory loads all policy files from a directory. One broken file
// fails the whole load.
func (s *FileSource) loadDirectory(ctx context.Context) ([]sampling.PolicyCfg, error) {
	entries, err := os.ReadDir(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %q: %w", s.path, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isPolicyFile(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var cfgs []sampling.PolicyCfg
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fileCfgs, err := s.loadFile(filepath.Join(s.path, name))
		if err != nil {
			return nil, err
		}
		cfgs = append(cfgs, fileCfgs...)
	}

	return cfgs, nil
}

// loadFile loads a single policy file.
func (s *FileSource) loadFile(path string) ([]sampling.PolicyCfg, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %q: %w", path, err)
	}

	cfgs, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse policy file %q: %w", path, err)
	}

	s.logger.Debug("loaded policy file",
		"path", path,
		"policy_count", len(cfgs),
	)

	return cfgs, nil
}

// Decode decodes a policy document. JSON documents are valid YAML and are
// decoded the same way.
func Decode(data []byte) ([]sampling.PolicyCfg, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(trimmed, &node); err != nil {
		return nil, err
	}

	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		var cfgs []sampling.PolicyCfg
		if err := node.Decode(&cfgs); err != nil {
			return nil, err
		}
		return cfgs, nil
	}

	var file policyFile
	if err := node.Decode(&file); err != nil {
		return nil, err
	}
	return file.Policies, nil
}

// Watch watches the configured path and sends an event for every change to
// a policy file. The channel is closed when the context is cancelled.
//
// For a single file the parent directory is watched, so editors that
// replace the file on save are still observed.
func (s *FileSource) Watch(ctx context.Context) (<-chan engine.PolicyEvent, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path %q: %w", s.path, err)
	}

	dir, target := s.path, ""
	if !info.IsDir() {
		dir, target = filepath.Dir(s.path), filepath.Clean(s.path)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	eventCh := make(chan engine.PolicyEvent)

	go func() {
		defer close(eventCh)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if target != "" && filepath.Clean(ev.Name) != target {
					continue
				}
				if target == "" && !isPolicyFile(ev.Name) {
					continue
				}
				eventType, relevant := eventTypeOf(ev.Op)
				if !relevant {
					continue
				}
				s.send(ctx, eventCh, engine.PolicyEvent{Type: eventType, Path: ev.Name})

			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.send(ctx, eventCh, engine.PolicyEvent{Path: dir, Error: werr})
			}
		}
	}()

	s.logger.Info("policy file watcher started", "path", s.path)

	return eventCh, nil
}

func (s *FileSource) send(ctx context.Context, ch chan<- engine.PolicyEvent, ev engine.PolicyEvent) {
	select {
	case ch <- ev:
	case <-ctx.Done():
	}
}

func eventTypeOf(op fsnotify.Op) (engine.PolicyEventType, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return engine.PolicyEventCreated, true
	case op.Has(fsnotify.Write):
		return engine.PolicyEventModified, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return engine.PolicyEventDeleted, true
	default:
		return "", false
	}
}

func isPolicyFile(name string) bool {
	switch filepath.Ext(name) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}

// ErrNoPolicies is returned by LoadNonEmpty when a source yields nothing.
var ErrNoPolicies = errors.New("no policies found")

// LoadNonEmpty loads policies from src and fails if there are none.
func LoadNonEmpty(ctx context.Context, src engine.PolicySource) ([]sampling.PolicyCfg, error) {
	cfgs, err := src.LoadPolicies(ctx)
	if err != nil {
		return nil, err
	}
	if len(cfgs) == 0 {
		return nil, ErrNoPolicies
	}
	return cfgs, nil
}
