package biz

import "go.uber.org/fx"

var Module = fx.Module("biz",
	fx.Provide(NewAppState),
	fx.Provide(NewSignInFlow),
	fx.Provide(NewRecoveryFactory),
	fx.Provide(NewWizardFactory),
	fx.Provide(NewStatusUseCase),
)
