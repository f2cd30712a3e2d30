package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Session identifies one company played from this machine.
type Session struct {
	CompanyID   string `json:"company_id"`
	CompanyName string `json:"company_name"`
	Scenario    string `json:"scenario"`
}

// sessionFile is the on-disk layout: the company being played plus the
// ones played before it, newest first.
type sessionFile struct {
	Current Session   `json:"current"`
	Played  []Session `json:"played,omitempty"`
}

const maxPlayed = 10

var ErrNoSession = errors.New("no active company, run `tycoon new` first")

// Dir overrides the session directory; empty means ~/.sre-tycoon.
var Dir string

func sessionPath() (string, error) {
	dir := Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".sre-tycoon")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

func readSessionFile() (sessionFile, string, error) {
	path, err := sessionPath()
	if err != nil {
		return sessionFile{}, "", err
	}
	body, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return sessionFile{}, path, nil
	}
	if err != nil {
		return sessionFile{}, "", err
	}
	var f sessionFile
	if err := json.Unmarshal(body, &f); err != nil {
		return sessionFile{}, "", fmt.Errorf("%s: %w", path, err)
	}
	return f, path, nil
}

func writeSessionFile(path string, f sessionFile) error {
	body, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// SaveSession makes s the current company and moves it to the front of
// the played list.
func SaveSession(s Session) error {
	if strings.TrimSpace(s.CompanyID) == "" {
		return fmt.Errorf("session needs a company id")
	}
	f, path, err := readSessionFile()
	if err != nil {
		return err
	}
	f.Current = s
	played := []Session{s}
	for _, p := range f.Played {
		if p.CompanyID != s.CompanyID && len(played) < maxPlayed {
			played = append(played, p)
		}
	}
	f.Played = played
	return writeSessionFile(path, f)
}

func LoadSession() (Session, error) {
	f, _, err := readSessionFile()
	if err != nil {
		return Session{}, err
	}
	if strings.TrimSpace(f.Current.CompanyID) == "" {
		return Session{}, ErrNoSession
	}
	return f.Current, nil
}

// PlayedSessions lists companies played from this machine, newest first.
func PlayedSessions() ([]Session, error) {
	f, _, err := readSessionFile()
	if err != nil {
		return nil, err
	}
	return f.Played, nil
}

// ClearSession forgets the current company but keeps the played list.
func ClearSession() error {
	f, path, err := readSessionFile()
	if err != nil {
		return err
	}
	if f.Current.CompanyID == "" {
		return nil
	}
	f.Current = Session{}
	return writeSessionFile(path, f)
}
