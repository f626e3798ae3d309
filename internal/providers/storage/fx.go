package storage

import (
	"time"

	"github.com/municipia/apoios/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.storage",
	fx.Provide(
		NewStoreFromConfig,
		NewSignerFromConfig,
	),
)

func NewStoreFromConfig(cfg config.Config) (Store, error) {
	return NewLocalStore(cfg.Storage.Root)
}

func NewSignerFromConfig(cfg config.Config) *Signer {
	return NewSigner(
		cfg.Storage.SigningSecret,
		time.Duration(cfg.Storage.SignedURLTTL)*time.Second,
		cfg.Storage.PublicBaseURL,
	)
}
