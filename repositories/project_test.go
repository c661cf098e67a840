package repositories

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	apperrors "devconnect/errors"
)

func TestProjectRepository_Create_And_Get(t *testing.T) {
	req := require.New(t)
	repo := NewProjectRepository(testDB(t))

	// When a project is created
	project, err := repo.CreateProject("side project", "alice")
	req.NoError(err)

	// Then it can be read back and the owner is not listed as contributor
	found, err := repo.GetProject(project.ID)
	req.NoError(err)
	req.Equal("side project", found.Title)
	req.Equal("alice", found.OwnerID)
	req.Empty(found.Contributors)
	req.True(found.IsOwner("alice"))
	req.False(found.IsContributor("alice"))
}

func TestProjectRepository_Get_Unknown_Project(t *testing.T) {
	req := require.New(t)
	repo := NewProjectRepository(testDB(t))

	_, err := repo.GetProject(uuid.NewString())

	req.ErrorIs(err, apperrors.ErrNotFound)
}

func TestProjectRepository_AddContributor_Consumes_Pending_Request(t *testing.T) {
	req := require.New(t)
	repo := NewProjectRepository(testDB(t))
	project, err := repo.CreateProject("side project", "alice")
	req.NoError(err)

	// Given bob requested to contribute
	project, err = repo.RequestContribution(project.ID, "bob")
	req.NoError(err)
	req.Equal([]string{"bob"}, project.Pending)
	req.False(project.IsContributor("bob"))

	// When the request is accepted
	project, err = repo.AddContributor(project.ID, "bob")
	req.NoError(err)

	// Then bob is a contributor and no longer pending
	req.True(project.IsContributor("bob"))
	req.Empty(project.Pending)

	// And accepting again changes nothing
	project, err = repo.AddContributor(project.ID, "bob")
	req.NoError(err)
	req.Equal([]string{"bob"}, project.Contributors)
}

func TestProjectRepository_AddContributor_Owner_Is_A_NoOp(t *testing.T) {
	req := require.New(t)
	repo := NewProjectRepository(testDB(t))
	project, err := repo.CreateProject("side project", "alice")
	req.NoError(err)

	project, err = repo.AddContributor(project.ID, "alice")

	req.NoError(err)
	req.Empty(project.Contributors)
}

func TestProjectRepository_RequestContribution_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	repo := NewProjectRepository(testDB(t))
	project, err := repo.CreateProject("side project", "alice")
	req.NoError(err)

	_, err = repo.RequestContribution(project.ID, "bob")
	req.NoError(err)
	project, err = repo.RequestContribution(project.ID, "bob")
	req.NoError(err)

	req.Equal([]string{"bob"}, project.Pending)
}
