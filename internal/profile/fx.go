package profile

import (
	"github.com/vtk-it/declaro/internal/profile/repository"
	"github.com/vtk-it/declaro/internal/profile/service"
	"go.uber.org/fx"
)

var Module = fx.Module("profile",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
