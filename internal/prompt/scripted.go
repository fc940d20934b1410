package prompt

import (
	"sync"

	"github.com/bral/git-bump-go/internal/repo"
)

// Scripted answers from fixed data. It records every question so callers can assert on
// what was asked.
type Scripted struct {
	mu sync.Mutex

	// Answers maps an exact question to its answer; other questions get Default.
	Answers map[string]bool
	Default bool
	// Inputs are returned by Ask in order; once exhausted Ask returns the default value.
	Inputs []string
	// Credentials are returned by ResolveCredentials in order; once exhausted it returns AuthSkip.
	Credentials []repo.Credentials

	Asked []string
}

var _ Prompter = (*Scripted)(nil)

// Confirm implements Confirmer.
func (s *Scripted) Confirm(question string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Asked = append(s.Asked, question)
	if answer, ok := s.Answers[question]; ok {
		return answer
	}
	return s.Default
}

// Ask implements Asker.
func (s *Scripted) Ask(question, def string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Asked = append(s.Asked, question)
	if len(s.Inputs) == 0 {
		return def, nil
	}
	v := s.Inputs[0]
	s.Inputs = s.Inputs[1:]
	if v == "" {
		return def, nil
	}
	return v, nil
}

// ResolveCredentials implements CredentialSource.
func (s *Scripted) ResolveCredentials() (repo.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Asked = append(s.Asked, "credentials")
	if len(s.Credentials) == 0 {
		return repo.Credentials{Method: repo.AuthSkip}, nil
	}
	c := s.Credentials[0]
	s.Credentials = s.Credentials[1:]
	return c, nil
}

// WasAsked reports whether question was asked.
func (s *Scripted) WasAsked(question string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.Asked {
		if q == question {
			return true
		}
	}
	return false
}
