package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/abhisek/skilltree/internal/skillgraph"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func encodeContent(c skillgraph.Content) (string, string, error) {
	if c == nil {
		return "", "", fmt.Errorf("missing content")
	}
	data, err := json.Marshal(c)
	if err != nil {
		return "", "", fmt.Errorf("encode %s content: %w", c.Kind(), err)
	}
	return string(c.Kind()), string(data), nil
}

func decodeContent(kind, data string) (skillgraph.Content, error) {
	var (
		c   skillgraph.Content
		err error
	)
	switch skillgraph.ContentKind(kind) {
	case skillgraph.KindQuiz:
		var v skillgraph.Quiz
		err = json.Unmarshal([]byte(data), &v)
		c = v
	case skillgraph.KindLesson:
		var v skillgraph.Lesson
		err = json.Unmarshal([]byte(data), &v)
		c = v
	case skillgraph.KindAssignment:
		var v skillgraph.Assignment
		err = json.Unmarshal([]byte(data), &v)
		c = v
	case skillgraph.KindExercise:
		var v skillgraph.Exercise
		err = json.Unmarshal([]byte(data), &v)
		c = v
	default:
		return nil, fmt.Errorf("unknown content kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s content: %w", kind, err)
	}
	return c, nil
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
