package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"mime"
	"net/http"

	"github.com/chepyr/tasks-api/shared"
)

const maxBodyBytes = 1 << 20 // 1MB

/*
routes:
- POST /api/internal/task
- GET /api/internal/task/{id}
- PUT /api/internal/task/{id}
*/
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}

	task, err := h.Tasks.Create(userID, body)
	if err != nil {
		shared.SendServiceError(w, err)
		return
	}
	log.Printf("Task created: %s", task.ID)
	h.WSHub.BroadcastTaskEvent(EventTaskCreated, task)

	w.Header().Set("Location", "/api/internal/task/"+task.ID.String())
	shared.SendJSON(w, task, http.StatusCreated)
}

func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	task, err := h.Tasks.Get(userID, pathParams(r))
	if err != nil {
		shared.SendServiceError(w, err)
		return
	}
	shared.SendJSON(w, task, http.StatusOK)
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}

	task, err := h.Tasks.Update(userID, pathParams(r), body)
	if err != nil {
		shared.SendServiceError(w, err)
		return
	}
	log.Printf("Task updated: %s status=%s", task.ID, task.Status)
	h.WSHub.BroadcastTaskEvent(EventTaskUpdated, task)

	shared.SendJSON(w, task, http.StatusOK)
}

func pathParams(r *http.Request) map[string]any {
	return map[string]any{"id": r.PathValue("id")}
}

// decodeBody reads a single JSON value of any shape; the task service validates it.
func decodeBody(w http.ResponseWriter, r *http.Request) (any, bool) {
	if !isJSONContentType(r) {
		shared.SendError(w, shared.CodeBadRequest, "Content-Type must be application/json", http.StatusBadRequest)
		return nil, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	var body any
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			shared.SendError(w, shared.CodeBadRequest, "Request body too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		shared.SendError(w, shared.CodeBadRequest, "Invalid JSON body", http.StatusBadRequest)
		return nil, false
	}
	if dec.More() {
		shared.SendError(w, shared.CodeBadRequest, "Invalid JSON body", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

func isJSONContentType(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}
