package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"voyago/internal/traveloptions/repository"
	"voyago/internal/traveloptions/service"
	apperrors "voyago/pkg/errors"
	httputil "voyago/pkg/http"
	"voyago/pkg/logger"
	"voyago/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type TravelOptionHandler struct {
	service service.TravelOptionService
	log     *logger.Logger
}

func NewTravelOptionHandler(service service.TravelOptionService, log *logger.Logger) *TravelOptionHandler {
	return &TravelOptionHandler{
		service: service,
		log:     log,
	}
}

func (h *TravelOptionHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var option model.TravelOption
	if err := json.NewDecoder(r.Body).Decode(&option); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "error", writeErr)
		}
		return
	}

	if err := h.service.Create(r.Context(), &option); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, option); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *TravelOptionHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	option, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, option); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *TravelOptionHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	filter, err := parseFilter(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Search", "error", writeErr)
		}
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Search", "error", writeErr)
		}
		return
	}

	travelOptions, total, err := h.service.Search(r.Context(), filter, limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Search", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, travelOptions, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "Search", "error", err)
	}
}

func parseFilter(r *http.Request) (repository.Filter, error) {
	query := r.URL.Query()

	filter := repository.Filter{
		Mode:        query.Get("mode"),
		Origin:      query.Get("origin"),
		Destination: query.Get("destination"),
	}

	if filter.Mode != "" {
		switch filter.Mode {
		case model.ModeFlight, model.ModeTrain, model.ModeBus:
		default:
			return repository.Filter{}, apperrors.InvalidInput("mode must be one of: flight, train, bus")
		}
	}

	if s := query.Get("date_from"); s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return repository.Filter{}, apperrors.InvalidInput("invalid date_from format, must be RFC3339")
		}
		filter.DepartureFrom = &parsed
	}
	if s := query.Get("date_to"); s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return repository.Filter{}, apperrors.InvalidInput("invalid date_to format, must be RFC3339")
		}
		filter.DepartureTo = &parsed
	}

	if s := query.Get("min_price_cents"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return repository.Filter{}, apperrors.InvalidInput("invalid min_price_cents parameter: " + s)
		}
		filter.MinPriceCents = &v
	}
	if s := query.Get("max_price_cents"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return repository.Filter{}, apperrors.InvalidInput("invalid max_price_cents parameter: " + s)
		}
		filter.MaxPriceCents = &v
	}

	if s := query.Get("only_available"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return repository.Filter{}, apperrors.InvalidInput("invalid only_available parameter: " + s)
		}
		filter.OnlyAvailable = v
	}

	return filter, nil
}

func (h *TravelOptionHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/travel-options", h.Create)
	router.GET("/api/v1/travel-options", h.Search)
	router.GET("/api/v1/travel-options/id/:id", h.GetByID)
}
