// Package weatherapi is the protected resource server. It serves weather
// forecasts to callers presenting a bearer token with the right audience
// and scope.
package weatherapi

import (
	"math/rand"
	"time"
)

var summaries = []string{
	"Freezing", "Bracing", "Chilly", "Cool", "Mild",
	"Warm", "Balmy", "Hot", "Sweltering", "Scorching",
}

// Forecast is one day of weather.
type Forecast struct {
	Date         string `json:"date"`
	TemperatureC int    `json:"temperatureC"`
	TemperatureF int    `json:"temperatureF"`
	Summary      string `json:"summary"`
}

// GenerateForecasts produces the next `days` days starting tomorrow, with
// random temperatures between -20 and 55 Celsius.
func GenerateForecasts(now time.Time, days int) []Forecast {
	forecasts := make([]Forecast, days)
	for i := range forecasts {
		celsius := rand.Intn(76) - 20
		forecasts[i] = Forecast{
			Date:         now.AddDate(0, 0, i+1).Format("2006-01-02"),
			TemperatureC: celsius,
			TemperatureF: 32 + int(float64(celsius)/0.5556),
			Summary:      summaries[rand.Intn(len(summaries))],
		}
	}
	return forecasts
}
