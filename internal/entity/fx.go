package entity

import (
	"github.com/municipia/apoios/internal/entity/repository"
	"github.com/municipia/apoios/internal/entity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("entity.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
