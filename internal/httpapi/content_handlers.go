package httpapi

import (
	"net/http"
	"strings"

	"afyalink.org/internal/audit"
	"afyalink.org/internal/auth"
	"afyalink.org/internal/content"
)

type chatRequest struct {
	Message string `json:"message"`
}

type createPostRequest struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Content  string `json:"content"`
}

func (a *API) handleContacts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contacts": content.EmergencyContacts(r.URL.Query().Get("type"))})
}

func (a *API) handleEducation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	q := r.URL.Query()
	articles := content.Articles(q.Get("category"), q.Get("q"))
	writeJSON(w, http.StatusOK, map[string]any{
		"articles":   articles,
		"categories": content.EducationCategories,
	})
}

func (a *API) handleForumCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{
			"posts":      a.forum.Posts(r.URL.Query().Get("category")),
			"categories": content.ForumCategories,
		})
	case http.MethodPost:
		var req createPostRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		title := strings.TrimSpace(req.Title)
		body := strings.TrimSpace(req.Content)
		if title == "" || body == "" {
			writeError(w, r, http.StatusBadRequest, "title and content are required")
			return
		}
		category := req.Category
		if category == "" {
			category = "general"
		}
		if !content.ValidForumCategory(category) {
			writeError(w, r, http.StatusBadRequest, "unknown category")
			return
		}

		post := a.forum.CreatePost(title, category, body)

		// The audit trail keeps the author; the forum itself never does.
		_ = audit.LogEvent(r.Context(), "forum.post.create", map[string]any{"post_id": post.ID})

		writeJSON(w, http.StatusCreated, post)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleForumResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/forum/")
	id, ok := strings.CutSuffix(path, "/like")
	if !ok || id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	likes, found := a.forum.Like(id)
	if !found {
		writeError(w, r, http.StatusNotFound, "post not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "likes": likes})
}

func (a *API) handleChat(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		// Signed-in callers get their transcript back; anonymous callers
		// just get the opening line.
		if conv := a.conversationFor(r, false); conv != nil {
			writeJSON(w, http.StatusOK, map[string]any{"greeting": content.Greeting, "messages": conv.Messages()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"greeting": content.Greeting})
	case http.MethodPost:
		var req chatRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			writeError(w, r, http.StatusBadRequest, "message is required")
			return
		}
		if conv := a.conversationFor(r, true); conv != nil {
			writeJSON(w, http.StatusOK, map[string]any{"reply": conv.Say(req.Message)})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"reply": content.BotReply(req.Message)})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// conversationFor returns the caller's chat transcript, creating it on demand
// when create is set. Anonymous requests have no transcript.
func (a *API) conversationFor(r *http.Request, create bool) *content.Conversation {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return nil
	}
	a.chatMu.Lock()
	defer a.chatMu.Unlock()
	conv := a.chats[userID]
	if conv == nil && create {
		conv = content.NewConversation()
		a.chats[userID] = conv
	}
	return conv
}
