package config

const (
	// Application Info
	AppName    = "Almanac"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces environment variables: ALMANAC_ANALYSIS_TRIM_PCT
	EnvPrefix = "ALMANAC"

	// Report file names inside the output directory
	BucketStatsFile   = "bucket_stats.csv"
	MultiYearFile     = "multi_year.csv"
	VolatilityFile    = "volatility_curve.csv"
	ExtremesFile      = "extremes.csv"
	SurvivalFile      = "survival.csv"
	HeatmapFile       = "heatmap.csv"
	RollingFile       = "rolling.csv"
	FilterSummaryFile = "filters.csv"
	WorkbookFile      = "almanac.xlsx"
	ReportFile        = "report.json"

	// Input formats recognised by extension
	ExtCSV  = ".csv"
	ExtTXT  = ".txt"
	ExtXLSX = ".xlsx"
)

var configLocations = []string{
	"almanac.yaml",
	"configs/almanac.yaml",
	"../configs/almanac.yaml",
}
