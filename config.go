package usher

import (
	"github.com/spf13/viper"
)

// Params is the framework configuration. Zero value plus DefaultParams
// covers embedded use; WithConfigFile fills it from a yaml/toml/json file.
type Params struct {
	Addr      string
	DevMode   bool
	SecretKey string

	// Routing normalization, applied identically to registered patterns
	// and inbound request paths.
	ActionSuffix    string
	FoldCase        bool
	KeepTrailing    bool
	StripExtensions []string

	Log struct {
		Dir   string
		Level string
	}

	AccessLog struct {
		Enabled bool
		Dir     string
	}
}

func DefaultParams() Params {
	p := Params{
		Addr:            "0.0.0.0:8080",
		DevMode:         true,
		ActionSuffix:    "Action",
		StripExtensions: []string{".html"},
	}
	p.Log.Level = "info"
	return p
}

// LoadParams reads a config file into Params on top of the defaults.
func LoadParams(path string) (Params, error) {
	p := DefaultParams()
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return p, err
	}
	if err := v.Unmarshal(&p); err != nil {
		return p, err
	}
	return p, nil
}
