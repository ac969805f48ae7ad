// Package trend gives a buy/sell/hold signal from a price history using a simple moving average.
package trend

import "fmt"

// DefaultPeriod is the moving-average window, in samples, used by [Analyze].
const DefaultPeriod = 7

// Signal is a trading recommendation.
type Signal string

const (
	Buy  Signal = "Buy"
	Sell Signal = "Sell"
	Hold Signal = "Hold"
)

// MovingAverage returns the mean of the last period prices.
// ok is false when period is not positive or there are fewer than period prices.
func MovingAverage(prices []float64, period int) (avg float64, ok bool) {
	if period <= 0 || len(prices) < period {
		return 0, false
	}

	var sum float64
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}
	return sum / float64(period), true
}

// Analyze compares current against the [DefaultPeriod] moving average of history.
// It returns [Hold] when history is too short.
func Analyze(current float64, history []float64) Signal {
	avg, ok := MovingAverage(history, DefaultPeriod)
	switch {
	case !ok:
		return Hold
	case current > avg:
		return Buy
	case current < avg:
		return Sell
	default:
		return Hold
	}
}

// Report is the outcome of [Analyze] with the figures behind it.
type Report struct {
	Current float64 `json:"current"`
	Average float64 `json:"average,omitempty"`
	Samples int     `json:"samples"`
	Signal  Signal  `json:"signal"`
}

// NewReport runs [Analyze] and keeps the average it compared against.
func NewReport(current float64, history []float64) Report {
	avg, _ := MovingAverage(history, DefaultPeriod)
	return Report{Current: current, Average: avg, Samples: len(history), Signal: Analyze(current, history)}
}

func (r Report) String() string {
	if r.Samples < DefaultPeriod {
		return fmt.Sprintf("%s: need %d prices for a %d-day average, have %d", r.Signal, DefaultPeriod, DefaultPeriod, r.Samples)
	}
	return fmt.Sprintf("%s: current %.2f vs %d-day average %.2f", r.Signal, r.Current, DefaultPeriod, r.Average)
}
