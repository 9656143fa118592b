package filters

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	assetNames = map[Asset]string{
		AssetStudied:     "Studied Product",
		AssetIntermarket: "Intermarket Product",
	}
	metricNames = map[Metric]string{
		MetricDailyReturn: "Daily Return",
		MetricDailyRange:  "Daily Range",
		MetricGap:         "Gap",
		MetricVolume:      "Volume",
	}
	comparatorSymbols = map[Comparator]string{
		GT:  ">",
		LT:  "<",
		GTE: ">=",
		LTE: "<=",
		EQ:  "=",
	}
)

// Describe renders p for people: ratio thresholds as percentages, volume
// with thousands separators. Unknown enum values are printed raw.
func Describe(p Predicate) string {
	printer := message.NewPrinter(language.English)

	asset := lookup(assetNames, p.Asset, string(p.Asset))
	metric := lookup(metricNames, p.Metric, string(p.Metric))
	cmp := lookup(comparatorSymbols, p.Comparator, string(p.Comparator))

	if p.Threshold == nil {
		return printer.Sprintf("%s %s %s ?", asset, metric, cmp)
	}
	v := *p.Threshold
	if p.Metric == MetricVolume {
		return printer.Sprintf("%s %s %s %d", asset, metric, cmp, int64(math.Round(v)))
	}
	return printer.Sprintf("%s %s %s %.2f%%", asset, metric, cmp, v*100)
}

func lookup[K comparable](m map[K]string, k K, fallback string) string {
	if s, ok := m[k]; ok {
		return s
	}
	return fallback
}
