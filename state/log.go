package state

import (
	cosmoslog "cosmossdk.io/log"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

// treeLogger hands the node logger to iavl. iavl reports pruning and
// version bookkeeping at info, which is demoted to debug here.
type treeLogger struct {
	logger cmtlog.Logger
}

func newTreeLogger(lg cmtlog.Logger) cosmoslog.Logger {
	return treeLogger{logger: lg.With("module", "iavl")}
}

func (l treeLogger) Info(msg string, keyVals ...any) {
	l.logger.Debug(msg, keyVals...)
}

func (l treeLogger) Error(msg string, keyVals ...any) {
	l.logger.Error(msg, keyVals...)
}

func (l treeLogger) Debug(msg string, keyVals ...any) {
	l.logger.Debug(msg, keyVals...)
}

func (l treeLogger) With(keyVals ...any) cosmoslog.Logger {
	return treeLogger{logger: l.logger.With(keyVals...)}
}

func (l treeLogger) Impl() any {
	return l.logger
}
