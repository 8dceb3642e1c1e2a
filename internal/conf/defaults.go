// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("log.enabled", true)
	viper.SetDefault("log.path", "logs/")
	viper.SetDefault("log.rotation", RotationDaily)
	viper.SetDefault("log.maxsizemb", 100)

	viper.SetDefault("inat.baseurl", "https://api.inaturalist.org/v1")
	viper.SetDefault("inat.timeout", "30s")
	viper.SetDefault("inat.delay", "1s")
	viper.SetDefault("inat.pagesize", 200)
	viper.SetDefault("inat.cachettl", "24h")

	viper.SetDefault("confusion.source", "histories")
	viper.SetDefault("confusion.mode", "full-chain")

	viper.SetDefault("output.path", "")
	viper.SetDefault("output.format", "table")
}
