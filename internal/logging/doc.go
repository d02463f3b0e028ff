// Package logging wraps Zap with the correlation and redaction behavior
// the pipelines rely on.
//
// Every context-aware method injects trace correlation automatically: the
// run's trace and span ids (from either an active OpenTelemetry span or
// the pipeline trace identity) plus the document being processed. Output
// goes to stdout, to an OpenTelemetry log bridge, or both.
//
//	logger, err := logging.NewLogger(cfg, nil)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithDocument(ctx, "notes/raft.txt")
//	logger.Info(ctx, "compression complete", zap.Float64("ratio", 0.11))
//
// Secrets never reach the sink in clear text: the encoder redacts known
// field names and value patterns, and config.Secret values marshal
// redacted on their own. Sampling, when enabled, drops repeat entries
// below Error; errors always pass through.
package logging
