//go:generate go run go.uber.org/mock/mockgen -source=project.go -destination=../mocks/mock_project_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"devconnect/domain"
)

// IProjectRepository is the membership provider consumed by the access gate.
// GetProject is re-read on every chat operation; nothing here is cached.
type IProjectRepository interface {
	CreateProject(title, ownerID string) (domain.Project, error)
	GetProject(id string) (domain.Project, error)
	AddContributor(projectID, userID string) (domain.Project, error)
	RequestContribution(projectID, userID string) (domain.Project, error)
}

type ProjectRepository struct {
	db *badger.DB
}

func NewProjectRepository(db *badger.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func projectKey(id string) []byte {
	return []byte("project:" + id)
}

// CreateProject persists a new project. The owner is stored once in OwnerID
// and never duplicated into Contributors.
func (p *ProjectRepository) CreateProject(title, ownerID string) (domain.Project, error) {
	project := domain.Project{
		ID:        uuid.NewString(),
		Title:     title,
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	}
	err := p.db.Update(func(txn *badger.Txn) error {
		return writeProject(txn, project)
	})
	if err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

func (p *ProjectRepository) GetProject(id string) (domain.Project, error) {
	var project domain.Project
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(projectKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &project)
		})
	})
	if err != nil {
		return domain.Project{}, mapBadgerErr(err)
	}
	return project, nil
}

// AddContributor grants chat access. Adding the owner or an existing
// contributor is a no-op so that accepted contribution requests can be
// replayed safely. A matching pending request is consumed.
func (p *ProjectRepository) AddContributor(projectID, userID string) (domain.Project, error) {
	return p.mutate(projectID, func(project *domain.Project) {
		project.Pending = remove(project.Pending, userID)
		if project.IsOwner(userID) || project.IsContributor(userID) {
			return
		}
		project.Contributors = append(project.Contributors, userID)
	})
}

// RequestContribution records a pending contribution request. Pending users
// have no chat access until accepted.
func (p *ProjectRepository) RequestContribution(projectID, userID string) (domain.Project, error) {
	return p.mutate(projectID, func(project *domain.Project) {
		if project.IsOwner(userID) || project.IsContributor(userID) {
			return
		}
		for _, id := range project.Pending {
			if id == userID {
				return
			}
		}
		project.Pending = append(project.Pending, userID)
	})
}

func (p *ProjectRepository) mutate(projectID string, apply func(*domain.Project)) (domain.Project, error) {
	var project domain.Project
	err := p.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(projectKey(projectID))
		if err != nil {
			return err
		}
		if err := item.Value(func(value []byte) error {
			return json.Unmarshal(value, &project)
		}); err != nil {
			return err
		}
		apply(&project)
		return writeProject(txn, project)
	})
	if err != nil {
		return domain.Project{}, mapBadgerErr(err)
	}
	return project, nil
}

func writeProject(txn *badger.Txn, project domain.Project) error {
	bytes, err := json.Marshal(project)
	if err != nil {
		return err
	}
	return txn.Set(projectKey(project.ID), bytes)
}

func remove(ids []string, userID string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != userID {
			out = append(out, id)
		}
	}
	return out
}
