package engine

import (
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService — имя сервиса в gRPC health, отражающего готовность дашборда.
const HealthService = "agentmarket.console.Dashboard"

// BindHealth держит статус сервиса в health-сервере равным готовности поверхности:
// SERVING только в Ready. Общий статус процесса ("") остается SERVING.
func BindHealth(hs *health.Server, service string, c *Controller) {
	set := func(s State) {
		status := healthpb.HealthCheckResponse_NOT_SERVING
		if s.Status == StatusReady {
			status = healthpb.HealthCheckResponse_SERVING
		}
		hs.SetServingStatus(service, status)
	}
	set(c.State())
	c.OnChange(set)
}
