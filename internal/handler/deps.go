package handler

import (
	"peerchat/internal/app/engine"
	"peerchat/internal/configs"
	"peerchat/internal/pkg/pow"
	"peerchat/internal/transport/ws"
)

type AppDeps struct {
	Config *configs.AppConfig
	Engine *engine.API
	WS     *ws.Server
	Pow    *pow.Manager
}
