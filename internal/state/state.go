// Package state persists download progress and carries pause, cancel and
// stop requests between processes via sentinel files.
package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/brogergvhs/noveld/internal/chapters"
	"github.com/brogergvhs/noveld/internal/util"
)

var (
	ErrNotFound  = errors.New("download state not found")
	ErrInvalidID = errors.New("invalid download id")
)

type Status string

const (
	Starting    Status = "Starting"
	Downloading Status = "Downloading"
	Paused      Status = "Paused"
	Stopped     Status = "Stopped"
	Partial     Status = "Partial"
	Complete    Status = "Complete"
	Failed      Status = "Failed"
)

// Terminal reports whether s ends a run.
func (s Status) Terminal() bool {
	switch s {
	case Stopped, Partial, Complete, Failed:
		return true
	}

	return false
}

type State struct {
	ID             string  `json:"id"`
	ContentName    string  `json:"contentName"`
	ContentType    string  `json:"contentType"`
	CurrentChapter int     `json:"currentChapter"`
	TotalChapters  int     `json:"totalChapters"`
	Progress       float64 `json:"progress"`
	Status         Status  `json:"status"`
	LastError      string  `json:"lastError"`
	LastUpdate     int64   `json:"lastUpdate"`
	IsPaused       bool    `json:"isPaused"`
	IsComplete     bool    `json:"isComplete"`
}

type Signal int

const (
	None Signal = iota
	Pause
	Cancel
)

func (s Signal) String() string {
	switch s {
	case Pause:
		return "pause"
	case Cancel:
		return "cancel"
	default:
		return "none"
	}
}

const (
	statePrefix  = "state_"
	pausePrefix  = ".pause_"
	cancelPrefix = ".cancel_"
	stopPrefix   = ".stop_"
)

// Store keeps one state file per download id in a directory shared with
// external controllers. There is no locking: one writer per id is assumed.
type Store struct {
	dir string
	now func() time.Time
}

func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

func (s *Store) Dir() string { return s.dir }

// GenerateID returns "<type>_<name>_<unix seconds>" with non-alphanumerics
// of name mapped to underscores.
func GenerateID(contentType, name string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%d", contentType, chapters.IDPart(name), at.Unix())
}

// CheckID rejects ids that would name a file outside the store directory.
func CheckID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	return nil
}

func (s *Store) path(prefix, id string) string {
	if prefix == statePrefix {
		return filepath.Join(s.dir, prefix+id+".json")
	}

	return filepath.Join(s.dir, prefix+id)
}

// Write replaces the whole state file and stamps LastUpdate.
func (s *Store) Write(st *State) error {
	if err := CheckID(st.ID); err != nil {
		return err
	}

	st.LastUpdate = s.now().Unix()
	st.IsPaused = st.Status == Paused
	st.IsComplete = st.Status == Complete

	if err := util.WriteJSON(s.path(statePrefix, st.ID), st); err != nil {
		return fmt.Errorf("failed to write state %s: %w", st.ID, err)
	}

	return nil
}

func (s *Store) Read(id string) (*State, error) {
	if err := CheckID(id); err != nil {
		return nil, err
	}

	var st State
	if err := util.ReadJSON(s.path(statePrefix, id), &st); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read state %s: %w", id, err)
	}

	return &st, nil
}

// List returns every readable state, most recently updated first.
func (s *Store) List() ([]State, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var out []State
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, statePrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}

		var st State
		if err := util.ReadJSON(filepath.Join(s.dir, name), &st); err != nil {
			continue
		}
		out = append(out, st)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].LastUpdate > out[j].LastUpdate })

	return out, nil
}

func (s *Store) touch(prefix, id string) error {
	if err := CheckID(id); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}

	return os.WriteFile(s.path(prefix, id), nil, 0o644)
}

func (s *Store) remove(prefix, id string) error {
	if err := CheckID(id); err != nil {
		return err
	}
	if err := os.Remove(s.path(prefix, id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return nil
}

func (s *Store) RequestPause(id string) error  { return s.touch(pausePrefix, id) }
func (s *Store) RequestResume(id string) error { return s.remove(pausePrefix, id) }
func (s *Store) RequestCancel(id string) error { return s.touch(cancelPrefix, id) }
func (s *Store) RequestStop(id string) error   { return s.touch(stopPrefix, id) }

// Signal reports the pending request for id. Cancel and stop win over
// pause.
func (s *Store) Signal(id string) Signal {
	if CheckID(id) != nil {
		return None
	}
	if util.Exists(s.path(cancelPrefix, id)) || util.Exists(s.path(stopPrefix, id)) {
		return Cancel
	}
	if util.Exists(s.path(pausePrefix, id)) {
		return Pause
	}

	return None
}

// ClearStop removes a stop request left over from an earlier run of id.
// Pause and cancel requests are kept.
func (s *Store) ClearStop(id string) error { return s.remove(stopPrefix, id) }

// Clear removes every sentinel of id.
func (s *Store) Clear(id string) error {
	var errs []error
	for _, p := range []string{pausePrefix, cancelPrefix, stopPrefix} {
		errs = append(errs, s.remove(p, id))
	}

	return errors.Join(errs...)
}

// Delete removes the state file and sentinels of id.
func (s *Store) Delete(id string) error {
	return errors.Join(s.Clear(id), s.remove(statePrefix, id))
}
