package providers

import (
	"github.com/municipia/apoios/internal/providers/email"
	"github.com/municipia/apoios/internal/providers/storage"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	storage.Module,
)
