package commands

import (
	"rentscout/lib/configutil/configdb"
	"rentscout/lib/notify"
	"rentscout/lib/render"
)

type NimbleConfig struct {
	Url string `json:"url"`
	Key string `json:"key"`
}

type BrowserConfig struct {
	Headless bool `json:"headless"`
}

type RendererConfig struct {
	// nimble, browser or static
	Backend string `json:"backend"`
	// optional second backend tried when the first one fails
	Fallback       string         `json:"fallback"`
	MaxAttempts    int            `json:"max_attempts"`
	Backoff        render.Backoff `json:"backoff"`
	TimeoutSeconds int            `json:"timeout_seconds"`
	Nimble         NimbleConfig   `json:"nimble"`
	Browser        BrowserConfig  `json:"browser"`
}

type LimitsConfig struct {
	MaxListings               int `json:"max_listings"`
	MaxPages                  int `json:"max_pages"`
	MinExpectedCards          int `json:"min_expected_cards"`
	DelayMinSeconds           int `json:"delay_min_seconds"`
	DelayMaxSeconds           int `json:"delay_max_seconds"`
	MinRequestIntervalSeconds int `json:"min_request_interval_seconds"`
}

type OutputConfig struct {
	Csv      string `json:"csv"`
	DebugDir string `json:"debug_dir"`
}

type Config struct {
	SearchUrl   string            `json:"search_url"`
	UseClicks   bool              `json:"use_clicks"`
	SummaryOnly bool              `json:"summary_only"`
	Renderer    RendererConfig    `json:"renderer"`
	Limits      LimitsConfig      `json:"limits"`
	Output      OutputConfig      `json:"output"`
	// optional, runs are only persisted when a database is configured
	Database configdb.Struct `json:"database"`
	// optional, the run report is only emailed when a server is set
	Smtp notify.SmtpConfig `json:"smtp"`
}
