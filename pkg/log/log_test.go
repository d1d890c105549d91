package log

import (
	"errors"
	"testing"
)

// 库代码在 Init 之前调用日志函数不应崩溃。
func TestLoggingBeforeInitDoesNotPanic(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("Init 之前记录日志发生 panic: %v", r)
		}
	}()

	Info("info")
	Infof("infof %d", 1)
	Infow("infow", "k", "v")
	Warn("warn")
	Warnf("warnf %s", "x")
	Debugf("debugf %s", "x")
	Error("error", errors.New("boom"))
	Errorf("errorf %v", errors.New("boom"))
	Sync()
}

func TestInitReplacesNopLogger(t *testing.T) {
	Init("debug", "console", "")
	if sugar == nil {
		t.Fatal("Init 之后 sugar 不应为 nil")
	}
	Infof("初始化后的日志可用: %s", "ok")
}
