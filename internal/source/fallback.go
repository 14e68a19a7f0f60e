package source

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/quizforge/backend/internal/domain/question"
)

//go:embed data/*.yaml
var bundled embed.FS

// File is the layout of a fallback question file.
type File struct {
	Topic       string   `yaml:"topic"`
	DisplayName string   `yaml:"display_name"`
	Questions   []Record `yaml:"questions"`
}

// Topic describes one fallback topic.
type Topic struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Questions   int    `json:"questions"`
}

// FallbackSource serves questions from static YAML files: the bundled set
// and, optionally, a directory whose files override bundled topics.
type FallbackSource struct {
	fsys []fs.FS

	once   sync.Once
	topics map[string]File
	err    error
}

// NewFallback returns a source over the bundled files plus dir, if not empty.
func NewFallback(dir string) *FallbackSource {
	sub, _ := fs.Sub(bundled, "data")
	fsys := []fs.FS{sub}
	if dir != "" {
		fsys = append(fsys, os.DirFS(dir))
	}
	return &FallbackSource{fsys: fsys}
}

// NewFallbackFS builds a source from arbitrary file systems, later ones
// overriding earlier ones.
func NewFallbackFS(fsys ...fs.FS) *FallbackSource {
	return &FallbackSource{fsys: fsys}
}

func (f *FallbackSource) Questions(_ context.Context, topic string) ([]question.Question, error) {
	if err := f.load(); err != nil {
		return nil, err
	}
	file, ok := f.topics[topic]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoQuestions, topic)
	}
	qs, err := Map(topic, file.Questions)
	if err != nil {
		return nil, fmt.Errorf("fallback %s: %w", topic, err)
	}
	return qs, nil
}

// Topics lists the fallback topics sorted by name.
func (f *FallbackSource) Topics() ([]Topic, error) {
	if err := f.load(); err != nil {
		return nil, err
	}
	out := make([]Topic, 0, len(f.topics))
	for name, file := range f.topics {
		out = append(out, Topic{Name: name, DisplayName: file.DisplayName, Questions: len(file.Questions)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *FallbackSource) load() error {
	f.once.Do(func() {
		f.topics = make(map[string]File)
		for _, fsys := range f.fsys {
			if err := f.loadFS(fsys); err != nil {
				f.err = err
				return
			}
		}
	})
	return f.err
}

func (f *FallbackSource) loadFS(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("read fallback dir: %w", err)
	}
	for _, e := range entries {
		ext := path.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		data, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return fmt.Errorf("read %s: %w", e.Name(), err)
		}
		file, err := ParseFile(data)
		if err != nil {
			return fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		if file.Topic == "" {
			file.Topic = strings.TrimSuffix(e.Name(), ext)
		}
		f.topics[file.Topic] = file
	}
	return nil
}

// ParseFile strictly decodes a fallback file; unknown keys are errors.
func ParseFile(data []byte) (File, error) {
	var file File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return File{}, errors.New("empty file")
		}
		return File{}, err
	}
	return file, nil
}
