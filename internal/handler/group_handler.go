package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/bagdasarian/uniportal-groups/internal/domain"
	"github.com/bagdasarian/uniportal-groups/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleError(w, r, domain.NewBadRequestError("invalid request body"))
		return
	}

	group, err := h.groupService.CreateGroup(r.Context(), r.Header.Get(IdentityHeader), service.CreateGroupInput{
		SectionID:    req.SectionID,
		Name:         req.Name,
		CreatorName:  req.CreatorName,
		CreatorEmail: req.CreatorEmail,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateGroupResponse{Group: domainGroupToHTTP(group)})
}

func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := groupIDParam(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	group, err := h.groupService.GetGroup(r.Context(), groupID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, domainGroupToHTTP(group))
}

// ReconcileMembers заменяет состав группы присланным списком
func (h *Handler) ReconcileMembers(w http.ResponseWriter, r *http.Request) {
	groupID, err := groupIDParam(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.handleError(w, r, domain.NewBadRequestError("request body is too large or unreadable"))
		return
	}
	if err := validateBody(h.membersSchema, body); err != nil {
		h.handleError(w, r, domain.NewBadRequestError(err.Error()))
		return
	}

	var req ReconcileMembersRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.handleError(w, r, domain.NewBadRequestError("invalid request body"))
		return
	}

	result, err := h.groupService.ReconcileMembers(r.Context(), r.Header.Get(IdentityHeader), groupID, httpDesiredToDomain(req))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if !result.Converged() {
		h.log.Warn("member update not fully saved",
			zap.Int64("group_id", groupID),
			zap.String("run_id", result.RunID),
			zap.String("error_kind", result.ErrorKind),
			zap.Int("mismatches", len(result.Mismatches)),
		)
	}

	writeJSON(w, resultStatusCode(result), domainResultToHTTP(result))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func groupIDParam(r *http.Request) (int64, error) {
	groupID, err := strconv.ParseInt(chi.URLParam(r, "groupID"), 10, 64)
	if err != nil || groupID <= 0 {
		return 0, domain.NewBadRequestError("groupID must be a positive integer")
	}
	return groupID, nil
}
