package application

import (
	"github.com/municipia/apoios/internal/application/repository"
	"github.com/municipia/apoios/internal/application/service"
	"go.uber.org/fx"
)

var Module = fx.Module("application.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
