package parlor

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/parlor-chat/parlor/core"
)

type HealthResponse struct {
	Status string `json:"status"`
}

func (app *App) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
}

// MessagesHandler returns the last N messages, oldest first. N defaults to
// the room's history limit.
func (app *App) MessagesHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	messages, err := app.room.RecentMessages(r.Context(), limit)
	if err != nil {
		app.logger.Error(err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "failed to fetch messages"})
		return
	}
	if messages == nil {
		messages = []core.Message{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messages)
}

// UsersHandler returns every known user with their last stored status.
func (app *App) UsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := app.room.AllUsers(r.Context())
	if err != nil {
		app.logger.Error(err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "failed to fetch users"})
		return
	}
	if users == nil {
		users = []core.User{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}

// OnlineUsersHandler returns the current online-user list, deduplicated by
// user.
func (app *App) OnlineUsersHandler(w http.ResponseWriter, r *http.Request) {
	users := app.room.OnlineUsers()
	if users == nil {
		users = []core.User{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}
