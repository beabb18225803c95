package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/uniportal/portal-api/pkg/config"
	"github.com/uniportal/portal-api/pkg/middleware/requestid"
)

// New builds the application logger from LOG_* settings. With LOG_FILE
// set, output goes to a lumberjack-rotated file; otherwise to stderr.
func New(cfg *config.Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if cfg.Log.Level != "" {
		if parsed, err := zapcore.ParseLevel(cfg.Log.Level); err == nil {
			level.SetLevel(parsed)
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	if cfg.Env != config.EnvProduction {
		encCfg = zap.NewDevelopmentEncoderConfig()
	}
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.Log.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	var sink zapcore.WriteSyncer
	if cfg.Log.File != "" {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename: cfg.Log.File,
			MaxSize:  cfg.Log.MaxMB,
			MaxAge:   cfg.Log.MaxAge,
			Compress: true,
		})
	} else {
		ws, _, err := zap.Open("stderr")
		if err != nil {
			return nil, err
		}
		sink = ws
	}

	core := zapcore.NewCore(encoder, sink, level)
	return zap.New(core, zap.AddCaller()), nil
}

// GinMiddleware emits one structured access log line per request,
// carrying the request ID the requestid middleware assigned.
func GinMiddleware(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if id := requestid.Value(c); id != "" {
			fields = append(fields, zap.String("request_id", id))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		l.Info("http_request", fields...)
	}
}
