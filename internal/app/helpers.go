package app

import (
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/ShreyankGopal/Adobe-Hacks/internal/config"
	jwtpkg "github.com/ShreyankGopal/Adobe-Hacks/internal/pkg/jwt"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/pkg/nativelog"
)

func applyRuntimeSettings(cfg *config.AppConfig, logger *zap.Logger) error {
	_ = os.Setenv(nativelog.EnvAppEnv, cfg.Env)

	if secret := strings.TrimSpace(cfg.JWTSecret); secret != "" {
		jwtpkg.SetSecret(secret)
	} else {
		logger.Warn("jwt_secret is empty, using built-in default secret")
	}

	if err := os.MkdirAll(cfg.UploadDir(), 0o755); err != nil {
		return err
	}
	return os.MkdirAll(cfg.AudioDir(), 0o755)
}
