package handlers

import (
	"net/http"
	"trajectory-service/internal/adapters/commands"
	"trajectory-service/internal/api/dto"
	"trajectory-service/internal/services"
)

type ExecutorStatusReporter interface {
	Status() services.ExecutorStatus
}

type CommandLog interface {
	Commands() []commands.Command
}

type ExecutorHandler struct {
	Executor ExecutorStatusReporter
	// Commands is optional.
	Commands CommandLog
}

// Status reports the active plan, the last tick outcome and recent guidance commands.
func (h *ExecutorHandler) Status(w http.ResponseWriter, r *http.Request) {
	res := dto.ExecutorResponse{
		ExecutorStatus: h.Executor.Status(),
		Commands:       []commands.Command{},
	}
	if h.Commands != nil {
		res.Commands = h.Commands.Commands()
	}
	writeJSON(w, r, http.StatusOK, res)
}
