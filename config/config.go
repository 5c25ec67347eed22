package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

var v *viper.Viper

func init() {
	v = viper.New()

	// Set default values
	v.SetDefault("slatecast.home", filepath.Join(xdg.Home, ".slatecast"))
	v.SetDefault("rig.path", "")

	v.SetDefault("obs.port", 4455)
	v.SetDefault("obs.password", "")

	v.SetDefault("rokoko.port", 14047)
	v.SetDefault("rokoko.enter_clip_editing", false)

	v.SetDefault("http.port", 8080)
	v.SetDefault("http.api_key", "")
	v.SetDefault("http.return_to_live", false)

	v.SetDefault("device.ping_interval", "1s")
	v.SetDefault("device.disconnect_timeout", "3s")

	// Environment variables
	v.AutomaticEnv()
	v.BindEnv("slatecast.home", "SLATECAST_HOME")
	v.BindEnv("rig.path", "SLATECAST_RIG_PATH")
	v.BindEnv("obs.port", "OBS_PORT")
	v.BindEnv("obs.password", "OBS_PASSWORD")
	v.BindEnv("rokoko.port", "ROKOKO_PORT")
	v.BindEnv("http.api_key", "SLATECAST_HTTP_API_KEY")

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Look for config in the following paths
	configPaths := []string{
		".",
		"$HOME/.slatecast",
		"/etc/slatecast",
	}

	for _, path := range configPaths {
		expandedPath := os.ExpandEnv(path)
		v.AddConfigPath(expandedPath)
	}

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			panic(fmt.Sprintf("Fatal error reading config file: %s", err))
		}
		// Config file not found; ignore error and use defaults
	}
}

// GetHome returns the slatecast home directory
func GetHome() string {
	return v.GetString("slatecast.home")
}

// GetRigPath returns the rig (device inventory) file path
func GetRigPath() string {
	if rigPath := v.GetString("rig.path"); rigPath != "" {
		return rigPath
	}
	return filepath.Join(GetHome(), "rig.toml")
}

// GetLogPath returns the session log file path
func GetLogPath() string {
	return filepath.Join(GetHome(), "slatecast.log")
}

// GetOBSPort returns the OBS websocket command port
func GetOBSPort() int {
	return v.GetInt("obs.port")
}

// GetOBSPassword returns the OBS websocket password
func GetOBSPassword() string {
	return v.GetString("obs.password")
}

// GetRokokoPort returns the Rokoko UDP command port
func GetRokokoPort() int {
	return v.GetInt("rokoko.port")
}

// GetRokokoEnterClipEditing reports whether Rokoko should enter clip editing
// after a capture finishes
func GetRokokoEnterClipEditing() bool {
	return v.GetBool("rokoko.enter_clip_editing")
}

// GetHTTPPort returns the REST capture device command port
func GetHTTPPort() int {
	return v.GetInt("http.port")
}

// GetHTTPAPIKey returns the REST capture device API key
func GetHTTPAPIKey() string {
	return v.GetString("http.api_key")
}

// GetHTTPReturnToLive reports whether the REST capture device should return
// to live view after a capture finishes
func GetHTTPReturnToLive() bool {
	return v.GetBool("http.return_to_live")
}

// GetPingInterval returns the idle heartbeat interval
func GetPingInterval() time.Duration {
	return v.GetDuration("device.ping_interval")
}

// GetDisconnectTimeout returns the no-activity disconnect window
func GetDisconnectTimeout() time.Duration {
	return v.GetDuration("device.disconnect_timeout")
}
