package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"devconnect/auth"
	"devconnect/domain"
	"devconnect/moderation"
	"devconnect/realtime"
	"devconnect/repositories"
	"devconnect/search"
	"devconnect/services"
)

type apiFixture struct {
	router *gin.Engine
	users  *repositories.UserRepository
}

func newAPIFixture(t *testing.T) apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := slog.Default()

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	index, err := search.Open(t.TempDir(), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	moderator, err := moderation.NewModerator(nil, '*')
	require.NoError(t, err)

	users := repositories.NewUserRepository(db)
	projects := repositories.NewProjectRepository(db)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	chat := services.NewChatService(log, services.NewAccessGate(projects),
		repositories.NewMessageRepository(db, log), users,
		realtime.NewRegistry(log), moderator, index)
	authService := services.NewAuthService(users, tokens)

	server := NewServer(log, authService, chat, tokens, projects)
	return apiFixture{router: server.Router(nil), users: users}
}

func (f apiFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	request := httptest.NewRequest(method, path, &buf)
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, request)
	return recorder
}

func (f apiFixture) register(t *testing.T, email, name string) string {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": email, "name": name, "password": "Str0ng#Passw0rd",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return body.Token
}

func (f apiFixture) createProject(t *testing.T, token, title string) domain.Project {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/api/projects", token, gin.H{"title": title})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var project domain.Project
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &project))
	return project
}

func TestAPI_Register_And_Login(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	token := f.register(t, "alice@example.com", "Alice")
	req.NotEmpty(token)

	resp := f.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "alice@example.com", "password": "Str0ng#Passw0rd",
	})
	req.Equal(http.StatusOK, resp.Code)

	resp = f.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "alice@example.com", "password": "Wr0ng#Passw0rd",
	})
	req.Equal(http.StatusUnauthorized, resp.Code)
}

func TestAPI_Protected_Routes_Require_A_Token(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/api/projects", "", gin.H{"title": "side project"})
	req.Equal(http.StatusUnauthorized, resp.Code)

	resp = f.do(t, http.MethodPost, "/api/projects", "garbage-token", gin.H{"title": "side project"})
	req.Equal(http.StatusUnauthorized, resp.Code)
}

func TestAPI_Send_And_History(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	token := f.register(t, "alice@example.com", "Alice")
	project := f.createProject(t, token, "side project")

	// When two messages are posted
	for _, content := range []string{"first", "second"} {
		resp := f.do(t, http.MethodPost, "/api/projects/"+project.ID+"/messages", token, gin.H{"content": content})
		req.Equal(http.StatusCreated, resp.Code, resp.Body.String())
	}

	// Then history returns them oldest first with sender metadata
	resp := f.do(t, http.MethodGet, "/api/projects/"+project.ID+"/messages", token, nil)
	req.Equal(http.StatusOK, resp.Code)
	var messages []domain.Message
	req.NoError(json.Unmarshal(resp.Body.Bytes(), &messages))
	req.Len(messages, 2)
	req.Equal("first", messages[0].Content)
	req.Equal("second", messages[1].Content)
	req.NotNil(messages[0].Sender)
	req.Equal("Alice", messages[0].Sender.Name)
}

func TestAPI_Send_Rejects_Blank_Content(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	token := f.register(t, "alice@example.com", "Alice")
	project := f.createProject(t, token, "side project")

	resp := f.do(t, http.MethodPost, "/api/projects/"+project.ID+"/messages", token, gin.H{"content": ""})
	req.Equal(http.StatusBadRequest, resp.Code)

	resp = f.do(t, http.MethodPost, "/api/projects/"+project.ID+"/messages", token, gin.H{"content": "   "})
	req.Equal(http.StatusBadRequest, resp.Code)
}

func TestAPI_NonMember_Cannot_Read_Or_Write(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	owner := f.register(t, "alice@example.com", "Alice")
	outsider := f.register(t, "mallory@example.com", "Mallory")
	project := f.createProject(t, owner, "side project")

	resp := f.do(t, http.MethodGet, "/api/projects/"+project.ID+"/messages", outsider, nil)
	req.Equal(http.StatusForbidden, resp.Code)

	resp = f.do(t, http.MethodPost, "/api/projects/"+project.ID+"/messages", outsider, gin.H{"content": "hi"})
	req.Equal(http.StatusForbidden, resp.Code)
}

func TestAPI_Contribution_Flow(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	owner := f.register(t, "alice@example.com", "Alice")
	contributor := f.register(t, "bob@example.com", "Bob")
	project := f.createProject(t, owner, "side project")

	bob, err := f.users.GetUserByEmail("bob@example.com")
	req.NoError(err)

	// Given bob requested to contribute
	resp := f.do(t, http.MethodPost, "/api/projects/"+project.ID+"/requests", contributor, nil)
	req.Equal(http.StatusOK, resp.Code)

	// And still has no chat access
	resp = f.do(t, http.MethodGet, "/api/projects/"+project.ID+"/messages", contributor, nil)
	req.Equal(http.StatusForbidden, resp.Code)

	// Only the owner may accept
	resp = f.do(t, http.MethodPost, "/api/projects/"+project.ID+"/contributors", contributor, gin.H{"userId": bob.ID})
	req.Equal(http.StatusForbidden, resp.Code)

	// When the owner accepts
	resp = f.do(t, http.MethodPost, "/api/projects/"+project.ID+"/contributors", owner, gin.H{"userId": bob.ID})
	req.Equal(http.StatusOK, resp.Code)

	// Then bob can read the chat and sees the acceptance notice
	resp = f.do(t, http.MethodGet, "/api/projects/"+project.ID+"/messages", contributor, nil)
	req.Equal(http.StatusOK, resp.Code)
	var messages []domain.Message
	req.NoError(json.Unmarshal(resp.Body.Bytes(), &messages))
	req.Len(messages, 1)
	req.Equal(domain.KindSystem, messages[0].Kind)
}

func TestAPI_MarkRead(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	token := f.register(t, "alice@example.com", "Alice")
	project := f.createProject(t, token, "side project")

	resp := f.do(t, http.MethodPost, "/api/projects/"+project.ID+"/messages", token, gin.H{"content": "read me"})
	req.Equal(http.StatusCreated, resp.Code)
	var message domain.Message
	req.NoError(json.Unmarshal(resp.Body.Bytes(), &message))

	resp = f.do(t, http.MethodPut, "/api/messages/"+message.ID.String()+"/read", token, nil)
	req.Equal(http.StatusOK, resp.Code)

	resp = f.do(t, http.MethodPut, "/api/messages/not-a-uuid/read", token, nil)
	req.Equal(http.StatusBadRequest, resp.Code)

	resp = f.do(t, http.MethodPut, fmt.Sprintf("/api/messages/%s/read", "00000000-0000-7000-8000-000000000000"), token, nil)
	req.Equal(http.StatusNotFound, resp.Code)
}

func TestAPI_Search(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	token := f.register(t, "alice@example.com", "Alice")
	project := f.createProject(t, token, "side project")

	resp := f.do(t, http.MethodPost, "/api/projects/"+project.ID+"/messages", token, gin.H{"content": "release friday"})
	req.Equal(http.StatusCreated, resp.Code)

	resp = f.do(t, http.MethodGet, "/api/projects/"+project.ID+"/messages/search?q=release", token, nil)
	req.Equal(http.StatusOK, resp.Code)
	var hits []search.Hit
	req.NoError(json.Unmarshal(resp.Body.Bytes(), &hits))
	req.Len(hits, 1)
	req.Equal("release friday", hits[0].Content)

	resp = f.do(t, http.MethodGet, "/api/projects/"+project.ID+"/messages/search?q=", token, nil)
	req.Equal(http.StatusBadRequest, resp.Code)
}
