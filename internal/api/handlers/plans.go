package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"trajectory-service/internal/api/dto"
	"trajectory-service/internal/domain"
	"trajectory-service/internal/ports"
	"trajectory-service/internal/services"
)

// PlanCreator schedules a plan request into a stored trajectory.
type PlanCreator interface {
	Plan(ctx context.Context, req services.PlanRequest) (*domain.Plan, services.PlanReport, error)
}

// PlanActivator swaps the plan being executed.
type PlanActivator interface {
	Activate(plan *domain.Plan) *domain.Plan
}

type PlanHandler struct {
	Planner  PlanCreator
	Repo     ports.PlanRepository
	Executor PlanActivator
	Logger   *slog.Logger
}

// Create plans a new trajectory from the requested maneuvers.
// Requests that could not be scheduled are listed in the response report.
func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePlanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	svcReq := services.PlanRequest{
		VehicleID:   strings.TrimSpace(req.VehicleID),
		Start:       req.Start,
		End:         req.End,
		State:       req.State,
		Complex:     req.Complex,
		LaneChanges: make([]services.LaneChangeRequest, 0, len(req.LaneChanges)),
	}
	for i, sc := range req.SpeedChanges {
		placement, err := services.ParsePlacement(sc.Placement)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, fmt.Sprintf("speed_changes[%d]: %v", i, err))
			return
		}
		svcReq.SpeedChanges = append(svcReq.SpeedChanges, services.SpeedChangeRequest{
			StartSpeed:  sc.StartSpeed,
			TargetSpeed: sc.TargetSpeed,
			MaxAccel:    sc.MaxAccel,
			Placement:   placement,
		})
	}
	for _, lc := range req.LaneChanges {
		svcReq.LaneChanges = append(svcReq.LaneChanges, services.LaneChangeRequest{At: lc.At, TargetLane: lc.TargetLane})
	}

	plan, report, err := h.Planner.Plan(r.Context(), svcReq)
	if errors.Is(err, services.ErrInvalidPlanRequest) {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger().ErrorContext(r.Context(), "plan failed", "err", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	if req.Activate {
		h.Executor.Activate(plan)
	}

	writeJSON(w, r, http.StatusCreated, dto.PlanResponse{PlanRecord: domain.RecordPlan(plan), Report: &report})
}

// List returns every stored plan, newest first.
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	plans, err := h.Repo.ListPlans(r.Context())
	if err != nil {
		h.logger().ErrorContext(r.Context(), "list plans failed", "err", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListPlanResponse{Plans: make([]domain.PlanRecord, 0, len(plans))}
	for _, p := range plans {
		res.Plans = append(res.Plans, domain.RecordPlan(p))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	plan, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, dto.PlanResponse{PlanRecord: domain.RecordPlan(plan)})
}

// ManeuversAt lists the maneuvers active at ?at=.
func (h *PlanHandler) ManeuversAt(w http.ResponseWriter, r *http.Request) {
	at, err := queryFloat(r, "at")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	plan, ok := h.load(w, r)
	if !ok {
		return
	}

	ms := plan.Trajectory.ManeuversAt(at)
	res := dto.ManeuversResponse{At: at, Maneuvers: make([]domain.ManeuverRecord, 0, len(ms))}
	for _, m := range ms {
		res.Maneuvers = append(res.Maneuvers, domain.RecordOf(m))
	}
	writeJSON(w, r, http.StatusOK, res)
}

// Next returns the first maneuver of ?type= starting after ?after=.
func (h *PlanHandler) Next(w http.ResponseWriter, r *http.Request) {
	after, err := queryFloat(r, "after")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	typ, err := domain.ParseManeuverType(r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	plan, ok := h.load(w, r)
	if !ok {
		return
	}

	m := plan.Trajectory.NextManeuverAfter(after, typ)
	if m == nil {
		writeError(w, r, http.StatusNotFound, "no "+string(typ)+" maneuver after the given location")
		return
	}
	writeJSON(w, r, http.StatusOK, domain.RecordOf(m))
}

// Windows searches the free longitudinal windows for one of ?size=, taking the
// earliest or latest per ?order=.
func (h *PlanHandler) Windows(w http.ResponseWriter, r *http.Request) {
	size, err := queryFloat(r, "size")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	order, err := services.ParsePlacement(r.URL.Query().Get("order"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	plan, ok := h.load(w, r)
	if !ok {
		return
	}

	traj := plan.Trajectory
	loc := traj.FindEarliestWindowOfSize(size)
	if order == services.PlaceLatest {
		loc = traj.FindLatestWindowOfSize(size)
	}
	writeJSON(w, r, http.StatusOK, dto.WindowResponse{
		Size:     size,
		Order:    string(order),
		Found:    loc != domain.NoWindow,
		Location: loc,
		Windows:  traj.Windows(),
	})
}

// Activate hands a stored plan to the executor, replacing the active one.
func (h *PlanHandler) Activate(w http.ResponseWriter, r *http.Request) {
	plan, ok := h.load(w, r)
	if !ok {
		return
	}

	res := dto.ActivateResponse{ActivePlanID: plan.PlanID}
	if prev := h.Executor.Activate(plan); prev != nil {
		res.PreviousPlanID = prev.PlanID
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *PlanHandler) load(w http.ResponseWriter, r *http.Request) (*domain.Plan, bool) {
	id := r.PathValue("id")
	plan, err := h.Repo.GetPlan(r.Context(), id)
	if errors.Is(err, ports.ErrPlanNotFound) {
		writeError(w, r, http.StatusNotFound, "plan not found")
		return nil, false
	}
	if err != nil {
		h.logger().ErrorContext(r.Context(), "get plan failed", "plan_id", id, "err", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return nil, false
	}
	return plan, true
}

func (h *PlanHandler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}
