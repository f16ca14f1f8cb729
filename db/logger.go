package db

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sidhant-sriv/spots-api/logging"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SlowQueryThreshold is the duration above which queries are logged at warn.
const SlowQueryThreshold = 200 * time.Millisecond

// Logger routes gorm's log output to zerolog.
type Logger struct {
	level gormlogger.LogLevel
}

func NewLogger() *Logger {
	return &Logger{level: gormlogger.Warn}
}

func (l *Logger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	return &Logger{level: level}
}

func (l *Logger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		logging.Ctx(ctx).Info().Msgf(msg, args...)
	}
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		logging.Ctx(ctx).Warn().Msgf(msg, args...)
	}
}

func (l *Logger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		logging.Ctx(ctx).Error().Msgf(msg, args...)
	}
}

// Trace logs failed and slow statements; record-not-found is expected and skipped.
func (l *Logger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	var event *zerolog.Event
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		event = logging.Ctx(ctx).Error().Err(err)
	case elapsed > SlowQueryThreshold && l.level >= gormlogger.Warn:
		event = logging.Ctx(ctx).Warn().Bool("slow", true)
	case l.level >= gormlogger.Info:
		event = logging.Ctx(ctx).Debug()
	default:
		return
	}

	sql, rows := fc()
	event.Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("gorm query")
}
