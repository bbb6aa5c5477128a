package school

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// zerologGorm routes gorm's logging into the global zerolog logger
type zerologGorm struct {
	level         logger.LogLevel
	slowThreshold time.Duration
}

func newGormLogger() logger.Interface {
	return &zerologGorm{level: logger.Warn, slowThreshold: 200 * time.Millisecond}
}

func (l *zerologGorm) LogMode(level logger.LogLevel) logger.Interface {
	c := *l
	c.level = level
	return &c
}

func (l *zerologGorm) Info(_ context.Context, msg string, data ...any) {
	if l.level >= logger.Info {
		log.Info().Msgf(msg, data...)
	}
}

func (l *zerologGorm) Warn(_ context.Context, msg string, data ...any) {
	if l.level >= logger.Warn {
		log.Warn().Msgf(msg, data...)
	}
}

func (l *zerologGorm) Error(_ context.Context, msg string, data ...any) {
	if l.level >= logger.Error {
		log.Error().Msgf(msg, data...)
	}
}

func (l *zerologGorm) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		log.Debug().Err(err).Str("sql", sql).Int64("rows", rows).Dur("elapsed", elapsed).Msg("Query failed")
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= logger.Warn:
		sql, rows := fc()
		log.Warn().Str("sql", sql).Int64("rows", rows).Dur("elapsed", elapsed).Msg("Slow query")
	default:
		sql, rows := fc()
		log.Trace().Str("sql", sql).Int64("rows", rows).Dur("elapsed", elapsed).Msg("Query")
	}
}
