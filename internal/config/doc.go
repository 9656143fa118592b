// Package config loads the almanac configuration.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources, later ones winning:
//
//	1. Default values from struct tags (creasty/defaults)
//	2. Environment variables, including a .env file in the working directory
//	3. The YAML configuration file
//
// # Environment Variables
//
// All environment variables follow the pattern ALMANAC_<SECTION>_<FIELD>:
//
//	ALMANAC_ANALYSIS_TRIM_PCT=5
//	ALMANAC_ANALYSIS_FROM=2023-01-01
//	ALMANAC_INPUT_PATH=data/es_1min.txt
//	ALMANAC_LOGGING_LEVEL=debug
//	ALMANAC_TELEMETRY_TRACE_OUTPUT=stdout
//
// Filter predicates and session criteria are structured and only come from
// the YAML file:
//
//	filters:
//	  operator: AND
//	  predicates:
//	    - {asset: studied, metric: gap, condition: gt, value: 0.005}
//	  session:
//	    weekdays: [1, 3]
//	    filters: [prev_neg]
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	paths := cfg.GetPaths()
package config
