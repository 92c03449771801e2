package flywheel

import "go.uber.org/zap"

// Logger is the structured logger used for stage/system/group execution and
// for fatal traces raised out of a scheduler group. It defaults to a
// production zap.Logger; replace it (e.g. with zap.NewDevelopment()) before
// calling Driver.Run if different verbosity is wanted.
var Logger = newDefaultLogger()

func newDefaultLogger() *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		// zap.NewProduction only fails on a broken encoder/sink config,
		// which never happens with the default config it builds internally.
		panic(err)
	}
	return logger
}

func logStageStart(stage string, groups int) {
	Logger.Info("stage starting", zap.String("stage", stage), zap.Int("groups", groups))
}

func logGroupExecuted(stage string, group int, size int, systems []string) {
	Logger.Debug("group executed",
		zap.String("stage", stage),
		zap.Int("group", group),
		zap.Int("size", size),
		zap.Strings("systems", systems),
	)
}

func logSystemPanic(stage, system string, trace error) {
	Logger.Error("system panicked",
		zap.String("stage", stage),
		zap.String("system", system),
		zap.Error(trace),
	)
}
