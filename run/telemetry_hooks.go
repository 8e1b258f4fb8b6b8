package run

func (r *Runner) maybeFlush() {
	if r.collector.ShouldFlush() {
		r.flushTelemetry()
	}
}

func (r *Runner) flushPending() {
	if r.collector.Pending() {
		r.flushTelemetry()
	}
}

// flushTelemetry closes the current batch and fans its stats out.
func (r *Runner) flushTelemetry() {
	stats := r.collector.Flush()
	perfStats := r.perfCollector.Stats()

	r.manifest.Events += stats.Events
	r.manifest.Failures += stats.Failures
	r.manifest.Primaries += stats.Primaries
	r.manifest.Clusters += stats.Clusters
	r.manifest.Discarded += stats.Discarded

	// Call stats callback if provided
	if r.statsCallback != nil {
		r.statsCallback(stats)
	}

	// Log stats if enabled (console output)
	if r.opts.LogStats || r.cfg.Telemetry.LogStats {
		stats.LogStats(r.logger)
		perfStats.LogStats(r.logger)
	}

	// Write to CSV if output manager is enabled
	if err := r.outputManager.WriteBatch(stats); err != nil {
		r.logger.Error("failed to write batch stats", "error", err)
	}
	if err := r.outputManager.WritePerf(perfStats, stats.Batch); err != nil {
		r.logger.Error("failed to write perf", "error", err)
	}
}
