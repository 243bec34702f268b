package domain

// DataPoint is one day of predicted demand with its confidence band.
type DataPoint struct {
	Date           string  `json:"date"`
	PredictedValue float64 `json:"predicted_value"`
	LowerBound     float64 `json:"lower_bound"`
	UpperBound     float64 `json:"upper_bound"`
}

// Trend is the direction a summary reports for demand.
type Trend string

const (
	TrendLow    Trend = "low"
	TrendStable Trend = "stable"
	TrendUp     Trend = "up"
)

// Summary is the generated narrative for a product's forecast.
type Summary struct {
	ProductID string `json:"product_id"`
	Text      string `json:"text"`
	Trend     Trend  `json:"trend"`
	Alert     bool   `json:"alert"`
}

// SummaryRequest is the body sent when asking for a summary.
type SummaryRequest struct {
	ProductName string `json:"product_name"`
}

// Peak returns the highest predicted value, or 0 for an empty forecast.
func Peak(points []DataPoint) float64 {
	var peak float64
	for i, p := range points {
		if i == 0 || p.PredictedValue > peak {
			peak = p.PredictedValue
		}
	}
	return peak
}

// Total sums the predicted demand across the forecast window.
func Total(points []DataPoint) float64 {
	var total float64
	for _, p := range points {
		total += p.PredictedValue
	}
	return total
}
