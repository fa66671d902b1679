package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Kuroukai/Kuroukai-api/internal/keys"
	"github.com/Kuroukai/Kuroukai-api/internal/model"
	"github.com/Kuroukai/Kuroukai-api/internal/store"
)

// KeyHandler exposes the access key lifecycle over REST.
type KeyHandler struct {
	svc *keys.Service
}

// NewKeyHandler creates a KeyHandler.
func NewKeyHandler(svc *keys.Service) *KeyHandler {
	return &KeyHandler{svc: svc}
}

type createKeyRequest struct {
	OwnerID  string `json:"owner_id"`
	TTLHours int    `json:"ttl_hours"`
}

// CreateKey issues a new access key.
// POST /api/v1/keys
func (h *KeyHandler) CreateKey(w http.ResponseWriter, r *http.Request) {
	var req createKeyRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.OwnerID == "" {
		writeError(w, http.StatusBadRequest, "owner_id is required")
		return
	}

	key, err := h.svc.Create(r.Context(), req.OwnerID, req.TTLHours)
	if err != nil {
		if errors.Is(err, keys.ErrInvalidParameter) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create key: "+err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, key)
}

// ValidateKey reports the validity of a key. The outcome is always a 200
// with a status field; expired, revoked and unknown keys are expected
// answers, not errors.
// GET /api/v1/keys/{keyID}/validate
func (h *KeyHandler) ValidateKey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "keyID")

	validity, err := h.svc.Validate(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Validation failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":     id,
		"status": validity,
	})
}

// GetKey returns the stored record for a key.
// GET /api/v1/keys/{keyID}
func (h *KeyHandler) GetKey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "keyID")

	key, err := h.svc.Info(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Key not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch key: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, key)
}

// ListKeys returns all keys for an owner, in creation order.
// GET /api/v1/keys?owner_id=...
func (h *KeyHandler) ListKeys(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "owner_id query parameter is required")
		return
	}

	list, err := h.svc.ListByOwner(r.Context(), ownerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list keys: "+err.Error())
		return
	}

	resource := make([]interface{}, len(list))
	for i := range list {
		resource[i] = list[i]
	}
	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: resource,
		Meta:     &model.ResponseMeta{Count: len(list)},
	})
}

// RevokeKey marks a key revoked. Revocation is terminal.
// POST /api/v1/keys/{keyID}/revoke
func (h *KeyHandler) RevokeKey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "keyID")

	if err := h.svc.Revoke(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Key not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to revoke key: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"id":     id,
		"status": model.KeyStatusRevoked,
	})
}

// DeleteKey permanently removes a key.
// DELETE /api/v1/keys/{keyID}
func (h *KeyHandler) DeleteKey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "keyID")

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Key not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete key: "+err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
