// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

type Config struct {
	MaxRatingDiff         float64 `env:"MAX_RATING_DIFF"          envDefault:"300"    envDocs:"maximum rating distance allowed between two paired entries"`
	MatchIntervalMs       int     `env:"MATCH_INTERVAL_MS"        envDefault:"500"    envDocs:"matcher tick interval in milliseconds"`
	WaitTimeLimitSecond   int     `env:"WAIT_TIME_LIMIT_SECOND"   envDefault:"60"     envDocs:"how long an entry stays queued before it expires with no opponent found"`
	ResultTimeLimitSecond int     `env:"RESULT_TIME_LIMIT_SECOND" envDefault:"10800"  envDocs:"result-report window per session before walkover or void"`
	DisputeTimeLimitHour  int     `env:"DISPUTE_TIME_LIMIT_HOUR"  envDefault:"48"     envDocs:"dispute response window before auto-accept fires"`
	RatingBaseStep        float64 `env:"RATING_BASE_STEP"         envDefault:"20"     envDocs:"base rating step K1 applied on an equal-rating result"`
	RatingDiffFactor      float64 `env:"RATING_DIFF_FACTOR"       envDefault:"0.025"  envDocs:"rating difference factor K2, must satisfy K1 > K2 * MAX_RATING_DIFF"`
	TimeoutPenaltyPoints  int     `env:"TIMEOUT_PENALTY_POINTS"   envDefault:"10"     envDocs:"penalty points applied to the silent participant on a walkover"`
	MetricsAddr           string  `env:"METRICS_ADDR"             envDefault:":8080"  envDocs:"listen address for the prometheus metrics endpoint"`
	ZipkinEndpoint        string  `env:"ZIPKIN_ENDPOINT"          envDefault:""       envDocs:"zipkin collector endpoint, tracing stays local when empty"`
	LogLevel              string  `env:"LOG_LEVEL"                envDefault:"info"   envDocs:"logrus level: trace, debug, info, warn, error"`
}
