package config

import "time"

// AnalysisConfig represents the configuration for analysis sessions
type AnalysisConfig struct {
	Delay time.Duration
	Seed  uint64
}

// HistoryConfig represents the configuration for the history ledger
type HistoryConfig struct {
	Type      string
	SQLiteDSN string
}

// HeaderConfig names the headers added by the Postfix filter
type HeaderConfig struct {
	Phishing   string
	Confidence string
	Reasons    string
}

// PostfixConfig represents where filtered mail is relayed
type PostfixConfig struct {
	Enabled bool
	Address string
	Port    int
}

// ServerConfig represents the configuration for the content filter
type ServerConfig struct {
	FilterType    string
	ListenAddress string
	BlockPhishing bool
	Headers       HeaderConfig
	Postfix       PostfixConfig
	SubjectPrefix string
	ModifySubject bool
}

// APIConfig represents the configuration for the HTTP API
type APIConfig struct {
	ListenAddress string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
}

// GetAnalysis returns the analysis configuration
func (c *Config) GetAnalysis() (AnalysisConfig, error) {
	delay, err := c.GetDuration("analysis.delay")
	if err != nil {
		return AnalysisConfig{}, err
	}
	return AnalysisConfig{
		Delay: delay,
		Seed:  c.GetUint64("classifier.seed"),
	}, nil
}

// GetHistory returns the history ledger configuration
func (c *Config) GetHistory() HistoryConfig {
	return HistoryConfig{
		Type:      c.GetString("history.type"),
		SQLiteDSN: c.GetString("history.sqlite_dsn"),
	}
}

// GetServer returns the content filter configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		FilterType:    c.GetString("server.filter_type"),
		ListenAddress: c.GetString("server.listen_address"),
		BlockPhishing: c.GetBool("server.block_phishing"),
		Headers: HeaderConfig{
			Phishing:   c.GetString("server.headers.phishing"),
			Confidence: c.GetString("server.headers.confidence"),
			Reasons:    c.GetString("server.headers.reasons"),
		},
		Postfix: PostfixConfig{
			Enabled: c.GetBool("server.postfix.enabled"),
			Address: c.GetString("server.postfix.address"),
			Port:    c.GetInt("server.postfix.port"),
		},
		SubjectPrefix: c.GetString("server.subject_prefix"),
		ModifySubject: c.GetBool("server.modify_subject"),
	}
}

// GetAPI returns the HTTP API configuration
func (c *Config) GetAPI() (APIConfig, error) {
	readTimeout, err := c.GetDuration("api.read_timeout")
	if err != nil {
		return APIConfig{}, err
	}
	writeTimeout, err := c.GetDuration("api.write_timeout")
	if err != nil {
		return APIConfig{}, err
	}
	return APIConfig{
		ListenAddress: c.GetString("api.listen_address"),
		ReadTimeout:   readTimeout,
		WriteTimeout:  writeTimeout,
	}, nil
}
