package bill

import (
	"github.com/vtk-it/declaro/internal/bill/repository"
	"github.com/vtk-it/declaro/internal/bill/service"
	"go.uber.org/fx"
)

var Module = fx.Module("bill",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
