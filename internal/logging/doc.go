// Package logging provides structured logging for todod.
//
// # Overview
//
// Logging wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Automatic context field injection (trace_id, request.id, list.id)
//   - Level-aware sampling (errors never sampled)
//   - Constant fields such as service=todod
//
// # Usage
//
// Create logger from config:
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
// Log with context:
//
//	ctx = logging.WithRequestID(ctx, "b1946ac92492d2347c6235b4d2611184")
//	ctx = logging.WithListID(ctx, "work")
//	logger.Info(ctx, "item created", zap.String("id", id))
//
// Output includes automatic correlation:
//
//	{
//	  "ts": "2024-05-01T09:00:00.000Z",
//	  "level": "info",
//	  "msg": "item created",
//	  "service": "todod",
//	  "request.id": "b1946ac92492d2347c6235b4d2611184",
//	  "list.id": "work",
//	  "id": "3f0c..."
//	}
//
// Libraries that want a plain *zap.Logger get one from Underlying. The
// context helpers still apply there through ContextFields.
//
// # Testing
//
// NewTestLogger records every entry for assertions:
//
//	logger := logging.NewTestLogger()
//	svc := NewThing(logger.Underlying())
//	logger.AssertLogged(t, zapcore.InfoLevel, "item created")
package logging
