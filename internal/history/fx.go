package history

import (
	"github.com/municipia/apoios/internal/history/repository"
	"github.com/municipia/apoios/internal/history/service"
	"go.uber.org/fx"
)

var Module = fx.Module("history.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
