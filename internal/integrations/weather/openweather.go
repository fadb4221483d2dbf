// Package weather renders a short forecast from OpenWeather.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
)

// DefaultBaseURL is the 5 day / 3 hour forecast endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/forecast"

const (
	notConfigured = "Weather is not configured right now."
	forecastDays  = 5
)

// OpenWeather fetches forecasts by city name.
type OpenWeather struct {
	apiKey  string
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// New creates a client; an empty apiKey answers with a "not configured" text.
func New(apiKey string, log *zap.Logger) *OpenWeather {
	return &OpenWeather{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

// WithBaseURL points the client at another endpoint.
func (o *OpenWeather) WithBaseURL(u string) *OpenWeather {
	o.baseURL = u
	return o
}

type forecastResponse struct {
	Message interface{} `json:"message"`
	List    []struct {
		DtTxt string `json:"dt_txt"`
		Main  struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"list"`
}

type day struct {
	date  string
	desc  string
	total float64
	n     int
}

// Forecast returns one line per day with the first description and the
// average temperature.
func (o *OpenWeather) Forecast(ctx context.Context, region string) string {
	if o.apiKey == "" {
		return notConfigured
	}
	days, err := o.fetch(ctx, region)
	if err != nil {
		o.log.Warn("weather request failed", zap.String("region", region), zap.Error(err))
		return "Weather error: " + err.Error()
	}
	if len(days) == 0 {
		return "No forecast for " + region + "."
	}

	var b strings.Builder
	b.WriteString("🌦 5-day forecast:")
	for _, d := range days {
		fmt.Fprintf(&b, "\n%s: %s, ≈%.1f°C", d.date, capitalize(d.desc), d.total/float64(d.n))
	}
	return b.String()
}

func (o *OpenWeather) fetch(ctx context.Context, region string) ([]day, error) {
	q := url.Values{}
	q.Set("q", region)
	q.Set("appid", o.apiKey)
	q.Set("units", "metric")
	q.Set("lang", "ru")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	var out forecastResponse
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if json.Unmarshal(b, &out) == nil && out.Message != nil {
			return nil, fmt.Errorf("%v", out.Message)
		}
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var days []day
	index := map[string]int{}
	for _, item := range out.List {
		date, _, _ := strings.Cut(item.DtTxt, " ")
		i, ok := index[date]
		if !ok {
			if len(days) == forecastDays {
				continue
			}
			d := day{date: date}
			if len(item.Weather) > 0 {
				d.desc = item.Weather[0].Description
			}
			days = append(days, d)
			i = len(days) - 1
			index[date] = i
		}
		days[i].total += item.Main.Temp
		days[i].n++
	}
	return days, nil
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
