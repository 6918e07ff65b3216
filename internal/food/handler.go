package food

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/getsentry/sentry-go"
	"github.com/go-playground/validator/v10"
)

const maxJSONBodyBytes = 1 << 20

type Store interface {
	List(ctx context.Context) ([]Food, error)
	Get(ctx context.Context, id int64) (Food, error)
	Create(ctx context.Context, input FoodInput) (Food, error)
	Update(ctx context.Context, id int64, input FoodInput) (Food, error)
	Delete(ctx context.Context, id int64) error
}

type Handler struct {
	store    Store
	validate *validator.Validate
}

func NewHandler(store Store) *Handler {
	return &Handler{
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) ListFoods(w http.ResponseWriter, r *http.Request) {
	foods, err := h.store.List(r.Context())
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to list foods")
		return
	}

	writeJSON(w, http.StatusOK, foods)
}

func (h *Handler) GetFood(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	f, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err, "failed to get food")
		return
	}

	writeJSON(w, http.StatusOK, f)
}

func (h *Handler) CreateFood(w http.ResponseWriter, r *http.Request) {
	input, ok := h.parseInput(w, r)
	if !ok {
		return
	}

	f, err := h.store.Create(r.Context(), input)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to create food")
		return
	}

	writeJSON(w, http.StatusCreated, f)
}

func (h *Handler) UpdateFood(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	input, ok := h.parseInput(w, r)
	if !ok {
		return
	}

	f, err := h.store.Update(r.Context(), id, input)
	if err != nil {
		h.writeStoreError(w, err, "failed to update food")
		return
	}

	writeJSON(w, http.StatusOK, f)
}

func (h *Handler) DeleteFood(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.writeStoreError(w, err, "failed to delete food")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "food not found")
		return
	}
	sentry.CaptureException(err)
	writeError(w, http.StatusInternalServerError, message)
}

func (h *Handler) parseInput(w http.ResponseWriter, r *http.Request) (FoodInput, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var input FoodInput
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return FoodInput{}, false
	}

	input.Name = strings.TrimSpace(input.Name)
	if !utf8.ValidString(input.Name) {
		writeError(w, http.StatusBadRequest, "name is invalid")
		return FoodInput{}, false
	}

	if err := h.validate.Struct(input); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
			writeError(w, http.StatusBadRequest, strings.ToLower(fieldErrors[0].Field())+" is invalid")
			return FoodInput{}, false
		}
		writeError(w, http.StatusBadRequest, "invalid food")
		return FoodInput{}, false
	}

	return input, true
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid food id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
