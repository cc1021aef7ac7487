package ports

import (
	"context"
	"trajectory-service/internal/domain"
)

// Port: a source of the vehicle's current along-route state.
type VehicleStateSource interface {
	State(ctx context.Context) (domain.VehicleState, error)
}
