package reference

import (
	"github.com/municipia/apoios/internal/reference/repository"
	"github.com/municipia/apoios/internal/reference/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reference.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
