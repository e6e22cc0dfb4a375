package engine

import (
	"context"
	"strings"

	"github.com/blockflow/blockflow/observability"
	"github.com/blockflow/blockflow/storage"
	"github.com/blockflow/blockflow/version"
)

// Health reports the runtime's health: the metadata store must accept a
// transaction and at least one storage engine must be registered.
func (e *Engine) Health(ctx context.Context) *observability.RuntimeHealth {
	rh := observability.NewRuntimeHealth("blockflow", version.Short())

	meta := observability.Health{Name: "meta", Status: observability.HealthStatusUp}
	tx, err := e.meta.Begin(ctx)
	if err != nil {
		meta.Status = observability.HealthStatusDown
		meta.Message = err.Error()
	} else {
		_ = tx.Rollback()
	}
	rh.AddComponent(meta)

	kinds := e.engines.Kinds()
	stor := observability.Health{
		Name:    "storage",
		Status:  observability.HealthStatusUp,
		Details: map[string]string{"engines": joinKinds(kinds)},
	}
	if len(kinds) == 0 {
		stor.Status = observability.HealthStatusDown
		stor.Message = "no storage engines registered"
	}
	rh.AddComponent(stor)

	return rh
}

func joinKinds(kinds []storage.Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ",")
}
