package document

import (
	"github.com/municipia/apoios/internal/document/repository"
	"github.com/municipia/apoios/internal/document/service"
	"go.uber.org/fx"
)

var Module = fx.Module("document.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
