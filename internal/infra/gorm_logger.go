package infra

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// gormLogger forwards GORM's query log to the global zerolog logger so SQL
// errors and slow statements show up next to request logs.
type gormLogger struct {
	level logger.LogLevel
}

// NewGormLogger returns a GORM logger; debug=true logs every statement.
func NewGormLogger(debug bool) logger.Interface {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	return &gormLogger{level: level}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	cloned := *l
	cloned.level = level
	return &cloned
}

func (l *gormLogger) Info(_ context.Context, msg string, args ...any) {
	if l.level >= logger.Info {
		log.Info().Msgf("gorm: "+msg, args...)
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, args ...any) {
	if l.level >= logger.Warn {
		log.Warn().Msgf("gorm: "+msg, args...)
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, args ...any) {
	if l.level >= logger.Error {
		log.Error().Msgf("gorm: "+msg, args...)
	}
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level == logger.Silent {
		return
	}
	elapsed := time.Since(begin)

	var ev *zerolog.Event
	switch {
	case err != nil && l.level >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		ev = log.Error().Err(err)
	case elapsed > slowQueryThreshold && l.level >= logger.Warn:
		ev = log.Warn().Dur("slow_threshold", slowQueryThreshold)
	case l.level >= logger.Info:
		ev = log.Debug()
	default:
		return
	}

	sql, rows := fc()
	ev.Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("gorm query")
}
