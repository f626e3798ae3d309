package auth

import (
	"github.com/municipia/apoios/internal/auth/repository"
	"github.com/municipia/apoios/internal/auth/service"
	"github.com/municipia/apoios/internal/auth/session"
	"go.uber.org/fx"
)

var Module = fx.Module("auth",
	fx.Provide(
		repository.New,
		service.New,
		session.NewManager,
	),
)
