package services

import (
	"encoding/json"
	"math"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"

	"vastai-scraper/models"
)

// Transform converts one offer into a Row in schema order. The timestamp
// column takes the supplied value; every other column is looked up in offer.
func Transform(timestamp string, offer models.Offer) models.Row {
	row := make(models.Row, len(models.Schema))
	for i, field := range models.Schema {
		var value any
		if field.Key == models.TimestampKey {
			value = timestamp
		} else {
			value = offer[field.Key]
		}
		row[i] = models.Cell{Key: field.Key, Value: formatValue(field, value)}
	}
	return row
}

// TransformAll applies Transform to every offer with the same timestamp.
func TransformAll(timestamp string, offers []models.Offer) []models.Row {
	rows := make([]models.Row, len(offers))
	for i, o := range offers {
		rows[i] = Transform(timestamp, o)
	}
	return rows
}

func formatValue(field models.Field, value any) string {
	if value == nil {
		return ""
	}
	if field.HasDecimals {
		if f, ok := toFloat(value); ok {
			return toFixed(f, field.Decimals)
		}
	}
	return naturalString(value)
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// toFixed rounds the exact binary value of f, half away from zero, and keeps
// the sign of negative values that round to zero: 2.675 -> "2.67",
// 0.125 -> "0.13", -0.00001 -> "-0.0000".
func toFixed(f float64, decimals int32) string {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= 1e21 {
		return naturalString(f)
	}
	// every float64 has at most 1074 fractional digits, so this is exact
	exact := new(big.Float).SetFloat64(math.Abs(f)).Text('f', 1100)
	s := decimal.RequireFromString(exact).StringFixed(decimals)
	if f < 0 {
		s = "-" + s
	}
	return s
}

func naturalString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		if f, err := v.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	}
	b, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return string(b)
}
