package adapters

import (
	"context"

	"geofence-tracker/internal/features/geofence/domain"

	"go.uber.org/zap"
)

// LogNotifier writes notifications to the log. Used when no push provider is
// configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the notification.
func (l *LogNotifier) Notify(_ context.Context, n domain.Notification) error {
	l.logger.Info("Notification due",
		zap.String("kind", string(n.Kind)),
		zap.String("booking_id", n.BookingID),
		zap.String("owner_id", n.OwnerID),
		zap.String("status", string(n.Status)),
		zap.Float64("distance_m", n.DistanceM),
	)
	return nil
}

// LogAnalyticsSink writes analytics records to the log. Used when no database
// is configured.
type LogAnalyticsSink struct {
	logger *zap.Logger
}

// NewLogAnalyticsSink creates a LogAnalyticsSink.
func NewLogAnalyticsSink(logger *zap.Logger) *LogAnalyticsSink {
	return &LogAnalyticsSink{logger: logger}
}

// Record logs the record.
func (l *LogAnalyticsSink) Record(_ context.Context, rec domain.AnalyticsRecord) error {
	l.logger.Info("Session analytics",
		zap.String("session_id", rec.SessionID),
		zap.String("booking_id", rec.BookingID),
		zap.String("kind", string(rec.Kind)),
		zap.Float64("duration_s", rec.DurationSeconds),
		zap.Float64("total_distance_m", rec.TotalDistanceM),
		zap.Float64("average_speed_mps", rec.AverageSpeedMps),
		zap.Float64("route_efficiency", rec.RouteEfficiency),
		zap.Int("update_count", rec.UpdateCount),
		zap.String("final_status", string(rec.FinalStatus)),
	)
	return nil
}
