package services

import (
	"devconnect/domain"
	apperrors "devconnect/errors"
	"devconnect/repositories"
)

// CanAccessChat reports whether identity may read or write the project's
// chat: true iff identity is the owner or a contributor. Pending contributors
// have no access.
func CanAccessChat(project domain.Project, identity string) bool {
	return project.IsOwner(identity) || project.IsContributor(identity)
}

// AccessGate authorizes chat operations against live membership state.
// Membership can change mid-session (a contribution request accepted while a
// socket is open), so every call re-reads the project; nothing is cached.
type AccessGate struct {
	projects repositories.IProjectRepository
}

func NewAccessGate(projects repositories.IProjectRepository) *AccessGate {
	return &AccessGate{projects: projects}
}

// Authorize loads the project and checks membership. It returns the project
// so callers do not need a second read.
func (g *AccessGate) Authorize(projectID, identity string) (domain.Project, error) {
	project, err := g.projects.GetProject(projectID)
	if err != nil {
		return domain.Project{}, err
	}
	if !CanAccessChat(project, identity) {
		return domain.Project{}, apperrors.ErrNotAuthorized
	}
	return project, nil
}
