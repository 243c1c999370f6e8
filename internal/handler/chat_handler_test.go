package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"lexia-go/internal/middleware"
	"lexia-go/internal/service"
	"lexia-go/pkg/llm"
	"lexia-go/pkg/token"
)

type stubChatService struct {
	result *service.TurnResult
	err    error

	gotUserID   uint
	gotProvider string
}

func (s *stubChatService) SubmitTurn(_ context.Context, userID, conversationID uint, providerID, apiKey, userText string) (*service.TurnResult, error) {
	s.gotUserID = userID
	s.gotProvider = providerID
	return s.result, s.err
}

func chatRouter(t *testing.T, svc service.ChatService) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtManager := token.NewJWTManager("test-secret")
	bearer, err := jwtManager.SignForTest(7, "ana", time.Hour)
	require.NoError(t, err)

	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(jwtManager))
	api.POST("/chat", NewChatHandler(svc).SubmitTurn)
	return r, "Bearer " + bearer
}

func postChat(r *gin.Engine, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubmitTurnRequiresAuth(t *testing.T) {
	r, _ := chatRouter(t, &stubChatService{})
	w := postChat(r, "", `{"provider":"openai","message":"hi"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmitTurnRejectsInvalidBody(t *testing.T) {
	r, auth := chatRouter(t, &stubChatService{})
	w := postChat(r, auth, `{"provider":"openai"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitTurnSuccess(t *testing.T) {
	svc := &stubChatService{result: &service.TurnResult{ConversationID: 3, Reply: "hello"}}
	r, auth := chatRouter(t, svc)

	w := postChat(r, auth, `{"provider":"mistral","api_key":"k","message":"hi"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, uint(7), svc.gotUserID, "user id must come from the verified token")
	require.Equal(t, "mistral", svc.gotProvider)

	var resp struct {
		Data service.TurnResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "hello", resp.Data.Reply)
	require.Equal(t, uint(3), resp.Data.ConversationID)
}

func TestSubmitTurnErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"missing credentials", &llm.Error{Provider: "openai", Kind: llm.ErrKindMissingCredentials, Message: "api key is not configured"}, http.StatusBadRequest},
		{"unsupported provider", &llm.Error{Provider: "x", Kind: llm.ErrKindUnsupportedProvider, Message: `unsupported provider "x"`}, http.StatusBadRequest},
		{"provider error", &llm.Error{Provider: "openai", Kind: llm.ErrKindProvider, StatusCode: 429, Message: "status 429: rate limited"}, http.StatusBadGateway},
		{"network error", &llm.Error{Provider: "openai", Kind: llm.ErrKindNetwork, Message: "request failed"}, http.StatusBadGateway},
		{"foreign conversation", service.ErrNotFound, http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, auth := chatRouter(t, &stubChatService{err: tc.err})
			w := postChat(r, auth, `{"provider":"openai","api_key":"k","message":"hi"}`)
			require.Equal(t, tc.wantStatus, w.Code)

			var resp struct {
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotEmpty(t, resp.Message, "every failure path must carry a readable message")
		})
	}
}

func TestSubmitTurnUnsavedReplyStillReturned(t *testing.T) {
	svc := &stubChatService{
		result: &service.TurnResult{ConversationID: 3, Reply: "transient"},
		err:    errAssistantWrite,
	}
	r, auth := chatRouter(t, svc)

	w := postChat(r, auth, `{"provider":"openai","api_key":"k","message":"hi"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp struct {
		Data service.TurnResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "transient", resp.Data.Reply)
}

var errAssistantWrite = errors.New("failed to record assistant message")
