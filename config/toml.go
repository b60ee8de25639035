package config

import (
	"bytes"
	_ "embed"
	"text/template"

	cmtcfg "github.com/cometbft/cometbft/config"
	"github.com/cometbft/cometbft/libs/os"
)

var appTemplate *template.Template

func init() {
	var err error
	tmpl := template.New("appFileTemplate")
	if appTemplate, err = tmpl.Parse(defaultAppTemplate); err != nil {
		panic(err)
	}
}

// WriteConfigFile writes config.toml through CometBFT and app.toml from the
// embedded template, both under the config directory of the home.
func WriteConfigFile(config *Config) {
	cmtcfg.WriteConfigFile(config.RootDir+"/config/config.toml", config.Config)
	WriteAppConfigFile(config.AppConfigFile(), config.App)
}

// WriteAppConfigFile renders the [app] section using the template.
func WriteAppConfigFile(appFilePath string, app *BallotAppConfig) {
	var buffer bytes.Buffer

	if err := appTemplate.Execute(&buffer, app); err != nil {
		panic(err)
	}

	os.MustWriteFile(appFilePath, buffer.Bytes(), 0o644)
}

// Note: any changes to the comments/variables/mapstructure
// must be reflected in BallotAppConfig in config/config.go.
//
//go:embed app.toml.tpl
var defaultAppTemplate string
