package skillgraph

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// contentFile is the on-disk YAML shape of one content set.
type contentFile struct {
	Subject string     `yaml:"subject" validate:"required"`
	Grade   int        `yaml:"grade" validate:"gte=0,lte=12"`
	Nodes   []fileNode `yaml:"nodes" validate:"required,min=1,dive"`
}

type fileNode struct {
	ID            string      `yaml:"id" validate:"required"`
	Title         string      `yaml:"title" validate:"required"`
	Grade         int         `yaml:"grade" validate:"gte=0,lte=12"`
	Difficulty    string      `yaml:"difficulty" validate:"required,oneof=easy medium hard"`
	XPReward      int         `yaml:"xp_reward" validate:"gte=0"`
	GemReward     int         `yaml:"gem_reward" validate:"gte=0"`
	Prerequisites []string    `yaml:"prerequisites" validate:"dive,required"`
	Checkpoint    bool        `yaml:"checkpoint"`
	EstimatedMins int         `yaml:"estimated_mins" validate:"gte=0"`
	Active        *bool       `yaml:"active"`
	Kind          string      `yaml:"kind" validate:"required,oneof=quiz lesson assignment exercise"`
	Quiz          *Quiz       `yaml:"quiz" validate:"omitempty"`
	Lesson        *Lesson     `yaml:"lesson" validate:"omitempty"`
	Assignment    *Assignment `yaml:"assignment" validate:"omitempty"`
	Exercise      *Exercise   `yaml:"exercise" validate:"omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse decodes one YAML content set. It checks field-level rules only;
// graph-level rules (prerequisites, cycles) are checked by New.
func Parse(data []byte) ([]SkillNode, error) {
	var f contentFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty content file")
		}
		return nil, fmt.Errorf("decode content: %w", err)
	}
	if err := validate.Struct(f); err != nil {
		return nil, fmt.Errorf("invalid content: %w", err)
	}

	nodes := make([]SkillNode, 0, len(f.Nodes))
	var problems []string
	for _, fn := range f.Nodes {
		content, err := fn.content()
		if err != nil {
			problems = append(problems, fmt.Sprintf("node %q: %v", fn.ID, err))
			continue
		}
		grade := fn.Grade
		if grade == 0 {
			grade = f.Grade
		}
		active := true
		if fn.Active != nil {
			active = *fn.Active
		}
		nodes = append(nodes, SkillNode{
			ID:            fn.ID,
			Title:         fn.Title,
			Subject:       Subject(f.Subject),
			Grade:         grade,
			Difficulty:    Difficulty(fn.Difficulty),
			XPReward:      fn.XPReward,
			GemReward:     fn.GemReward,
			Prerequisites: fn.Prerequisites,
			Checkpoint:    fn.Checkpoint,
			EstimatedMins: fn.EstimatedMins,
			Active:        active,
			Content:       content,
		})
	}
	if len(problems) > 0 {
		return nil, &GraphIntegrityError{Problems: problems}
	}
	return nodes, nil
}

// content resolves the kind tag into exactly one payload.
func (fn fileNode) content() (Content, error) {
	set := 0
	for _, present := range []bool{fn.Quiz != nil, fn.Lesson != nil, fn.Assignment != nil, fn.Exercise != nil} {
		if present {
			set++
		}
	}
	if set > 1 {
		return nil, fmt.Errorf("more than one content payload for kind %q", fn.Kind)
	}

	switch ContentKind(fn.Kind) {
	case KindQuiz:
		if fn.Quiz == nil {
			return nil, fmt.Errorf("kind quiz requires a quiz block")
		}
		return *fn.Quiz, validate.Struct(fn.Quiz)
	case KindLesson:
		if fn.Lesson == nil {
			return nil, fmt.Errorf("kind lesson requires a lesson block")
		}
		return *fn.Lesson, validate.Struct(fn.Lesson)
	case KindAssignment:
		if fn.Assignment == nil {
			return nil, fmt.Errorf("kind assignment requires an assignment block")
		}
		return *fn.Assignment, validate.Struct(fn.Assignment)
	case KindExercise:
		if fn.Exercise == nil {
			return nil, fmt.Errorf("kind exercise requires an exercise block")
		}
		return *fn.Exercise, validate.Struct(fn.Exercise)
	default:
		return nil, fmt.Errorf("unknown content kind %q", fn.Kind)
	}
}

// LoadFile parses a single YAML content file.
func LoadFile(path string) ([]SkillNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	nodes, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return nodes, nil
}

// LoadFS parses every *.yaml / *.yml file under root in fsys, in lexical order.
func LoadFS(fsys fs.FS, root string) ([]SkillNode, error) {
	var paths []string
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".yaml", ".yml":
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(paths)

	var all []SkillNode
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		nodes, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		all = append(all, nodes...)
	}
	return all, nil
}

// LoadPath loads a file or, for a directory, every content file beneath it.
func LoadPath(path string) ([]SkillNode, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return LoadFile(path)
	}
	return LoadFS(os.DirFS(path), ".")
}
