package handler

import (
	"encoding/json"
	"net/http"

	"github.com/bagdasarian/uniportal-groups/internal/service"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"
)

// IdentityHeader - заголовок с identity вызывающего, его выставляет шлюз авторизации
const IdentityHeader = "X-User-ID"

type Handler struct {
	groupService  service.GroupService
	log           *zap.Logger
	membersSchema *jsonschema.Schema
}

func NewHandler(groupService service.GroupService, log *zap.Logger) *Handler {
	return &Handler{
		groupService:  groupService,
		log:           log,
		membersSchema: mustCompileSchema(membersSchemaURL, membersSchemaJSON),
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
