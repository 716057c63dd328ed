package auth

import (
	"github.com/vtk-it/declaro/internal/auth/session"
	"github.com/vtk-it/declaro/internal/auth/token"
	"go.uber.org/fx"
)

var Module = fx.Module("auth",
	fx.Provide(
		session.NewManager,
		token.NewIssuer,
	),
)
