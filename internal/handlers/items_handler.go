package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/bookworm/backend/internal/middleware"
	"github.com/bookworm/backend/internal/models"
	"github.com/bookworm/backend/internal/services"
)

const LivenessMessage = "Book Worm server side is running!"

type ItemsHandler struct {
	itemService  *services.ItemService
	storeTimeout time.Duration
}

func NewItemsHandler(itemService *services.ItemService, storeTimeout time.Duration) *ItemsHandler {
	return &ItemsHandler{
		itemService:  itemService,
		storeTimeout: storeTimeout,
	}
}

func (h *ItemsHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, LivenessMessage)
}

// Health reports whether the document store answers a ping.
func (h *ItemsHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r.Context(), h.storeTimeout)
	defer cancel()

	if err := h.itemService.Ping(ctx); err != nil {
		log.WithError(err).Warn("[Health] store ping failed")
		writeText(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeText(w, http.StatusOK, "OK")
}

func (h *ItemsHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := models.NewItemQuery(query.Get("search"), query.Get("category"), query.Get("sort"))

	ctx, cancel := contextWithTimeout(r.Context(), h.storeTimeout)
	defer cancel()

	items, err := h.itemService.List(ctx, q)
	if err != nil {
		h.logError(r, "ListItems", err)
		writeJSON(w, http.StatusInternalServerError, models.NewMessageResponse("Failed to list items"))
		return
	}

	writeJSON(w, http.StatusOK, items)
}

// GetItem responds with null when no item has the id.
func (h *ItemsHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")

	ctx, cancel := contextWithTimeout(r.Context(), h.storeTimeout)
	defer cancel()

	item, err := h.itemService.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, services.ErrInvalidItemID) {
			writeJSON(w, http.StatusBadRequest, models.NewMessageResponse("Invalid item id"))
			return
		}
		h.logError(r, "GetItem", err)
		writeJSON(w, http.StatusInternalServerError, models.NewMessageResponse("Failed to get item"))
		return
	}

	writeJSON(w, http.StatusOK, item)
}

func (h *ItemsHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req models.CreateItemRequest
	if err := decodeBody(r, &req); err != nil {
		if field, ok := mistypedField(err); ok {
			writeJSON(w, http.StatusBadRequest, models.NewValidationResponse(&models.ValidationError{
				Message: models.MissingFieldsMessage,
				Fields:  map[string]string{field: "Must be a string"},
			}))
			return
		}
		writeJSON(w, http.StatusBadRequest, models.NewMessageResponse("Invalid request body"))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), h.storeTimeout)
	defer cancel()

	ack, err := h.itemService.Create(ctx, &req)
	if err != nil {
		if verr, ok := services.AsValidationError(err); ok {
			log.Printf("[CreateItem] Validation errors: %v", verr.Fields)
			writeJSON(w, http.StatusBadRequest, models.NewValidationResponse(verr))
			return
		}
		h.logError(r, "CreateItem", err)
		writeJSON(w, http.StatusInternalServerError, models.NewMessageResponse("Failed to create item"))
		return
	}

	log.Printf("[CreateItem] Item created: %s", ack.InsertedID.Hex())
	writeJSON(w, http.StatusOK, ack)
}

func (h *ItemsHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")

	var req models.UpdateItemRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewMessageResponse("Invalid request body"))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), h.storeTimeout)
	defer cancel()

	ack, err := h.itemService.Update(ctx, itemID, &req)
	if err != nil {
		if errors.Is(err, services.ErrNothingToUpdate) {
			writeJSON(w, http.StatusOK, models.NewMessageResponse("Nothing to update"))
			return
		}
		if errors.Is(err, services.ErrInvalidItemID) {
			writeJSON(w, http.StatusBadRequest, models.NewMessageResponse("Invalid item id"))
			return
		}
		if verr, ok := services.AsValidationError(err); ok {
			writeJSON(w, http.StatusBadRequest, models.NewValidationResponse(verr))
			return
		}
		h.logError(r, "UpdateItem", err)
		writeJSON(w, http.StatusInternalServerError, models.NewMessageResponse("Failed to update item"))
		return
	}

	writeJSON(w, http.StatusOK, ack)
}

func (h *ItemsHandler) logError(r *http.Request, op string, err error) {
	log.WithFields(log.Fields{
		"request_id": middleware.GetRequestID(r.Context()),
		"path":       r.URL.Path,
	}).WithError(err).Errorf("[%s] Service error", op)
}
