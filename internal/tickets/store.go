package tickets

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

var ErrEmptyArtifact = errors.New("tickets: empty artifact")

// LocalStore writes ticket documents under Dir and serves them below
// PublicBaseURL.
type LocalStore struct {
	Dir           string
	PublicBaseURL string
}

func NewLocalStore(dir, publicBaseURL string) *LocalStore {
	return &LocalStore{Dir: dir, PublicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

// Save stores doc for a confirmation code and returns its public URL. The
// file is written to a temp name and renamed so readers never see a
// partial document.
func (s *LocalStore) Save(ctx context.Context, provider, pnr string, doc []byte) (string, error) {
	if len(doc) == 0 {
		return "", ErrEmptyArtifact
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create ticket dir: %w", err)
	}
	name := Filename(provider, pnr)
	tmp, err := os.CreateTemp(s.Dir, ".ticket-*")
	if err != nil {
		return "", fmt.Errorf("create ticket file: %w", err)
	}
	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write ticket file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close ticket file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.Dir, name)); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("store ticket file: %w", err)
	}
	return s.PublicBaseURL + "/" + url.PathEscape(name), nil
}
