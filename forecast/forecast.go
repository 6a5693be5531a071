// Package forecast projects the daily demand of a product from its sales
// history with a seasonal adjustment.
package forecast

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/giygas/smartpharmacy-api/interfaces"
	"github.com/giygas/smartpharmacy-api/metrics"
)

const (
	// DefaultDailyDemand is assumed when no usable history exists
	DefaultDailyDemand = 3.0
	// HistoryDays is how many recent days of history are averaged
	HistoryDays = 120

	dateLayout = "2006-01-02"
)

// Point is the expected demand on one day
type Point struct {
	Date           string  `json:"date"`
	ExpectedDemand float64 `json:"expected_demand"`
}

// Forecast is the projection for the days following today
type Forecast struct {
	TradeName string  `json:"trade_name"`
	Days      int     `json:"days"`
	Points    []Point `json:"points"`
}

// Service builds forecasts from a SalesHistory
type Service struct {
	history interfaces.SalesHistory
	now     func() time.Time
}

// Option customises a Service
type Option func(*Service)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a forecaster. A nil history forecasts DefaultDailyDemand.
func NewService(history interfaces.SalesHistory, opts ...Option) *Service {
	s := &Service{history: history, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Forecast returns one point per day for the days days after today (UTC)
func (s *Service) Forecast(ctx context.Context, tradeName string, days int) (*Forecast, error) {
	tradeName = strings.TrimSpace(tradeName)

	var history []float64
	if s.history != nil {
		var err error
		history, err = s.history.DailyDemand(ctx, tradeName, HistoryDays)
		if err != nil {
			return nil, fmt.Errorf("failed to read sales history: %w", err)
		}
	}

	avg := AverageDaily(history)
	today := s.now().UTC()
	points := make([]Point, 0, max(days, 0))
	for i := 1; i <= days; i++ {
		d := today.AddDate(0, 0, i)
		points = append(points, Point{
			Date:           d.Format(dateLayout),
			ExpectedDemand: round1(avg * SeasonalFactor(d.Month())),
		})
	}

	metrics.Forecasts.Inc()
	return &Forecast{TradeName: tradeName, Days: days, Points: points}, nil
}

// AverageDaily is the mean of the finite non-negative values, or
// DefaultDailyDemand when there are none
func AverageDaily(values []float64) float64 {
	sum, n := 0.0, 0
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return DefaultDailyDemand
	}
	return sum / float64(n)
}

// SeasonalFactor raises winter demand by 25% and summer demand by 5%
func SeasonalFactor(month time.Month) float64 {
	switch month {
	case time.December, time.January, time.February:
		return 1.25
	case time.June, time.July, time.August:
		return 1.05
	}
	return 1
}

func round1(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}
