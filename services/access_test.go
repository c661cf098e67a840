package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"devconnect/domain"
	apperrors "devconnect/errors"
)

func TestCanAccessChat(t *testing.T) {
	project := domain.Project{
		OwnerID:      "alice",
		Contributors: []string{"bob"},
		Pending:      []string{"clara"},
	}

	tests := []struct {
		name     string
		identity string
		want     bool
	}{
		{name: "owner", identity: "alice", want: true},
		{name: "contributor", identity: "bob", want: true},
		{name: "pending contributor", identity: "clara", want: false},
		{name: "stranger", identity: "mallory", want: false},
		{name: "empty identity", identity: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, CanAccessChat(project, tt.identity))
		})
	}
}

// staleProjects returns a different membership snapshot on every read, the
// way a real project behaves when contributors are accepted mid-session.
type staleProjects struct {
	snapshots []domain.Project
	reads     int
}

func (s *staleProjects) GetProject(string) (domain.Project, error) {
	if s.reads >= len(s.snapshots) {
		return domain.Project{}, apperrors.ErrNotFound
	}
	project := s.snapshots[s.reads]
	s.reads++
	return project, nil
}

func (s *staleProjects) CreateProject(string, string) (domain.Project, error) {
	return domain.Project{}, errors.New("not implemented")
}

func (s *staleProjects) AddContributor(string, string) (domain.Project, error) {
	return domain.Project{}, errors.New("not implemented")
}

func (s *staleProjects) RequestContribution(string, string) (domain.Project, error) {
	return domain.Project{}, errors.New("not implemented")
}

func TestAccessGate_Reads_Membership_On_Every_Call(t *testing.T) {
	req := require.New(t)
	projects := &staleProjects{snapshots: []domain.Project{
		{ID: "p", OwnerID: "alice"},
		{ID: "p", OwnerID: "alice", Contributors: []string{"bob"}},
	}}
	gate := NewAccessGate(projects)

	// Given bob is not yet a contributor
	_, err := gate.Authorize("p", "bob")
	req.ErrorIs(err, apperrors.ErrNotAuthorized)

	// When membership changes between two calls
	project, err := gate.Authorize("p", "bob")

	// Then the gate honors the fresh snapshot without any caching
	req.NoError(err)
	req.True(project.IsContributor("bob"))
	req.Equal(2, projects.reads)
}
