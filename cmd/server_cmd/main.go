package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/portalnet-io/bridge-go/cmd"
	"github.com/portalnet-io/bridge-go/logconfig"
)

const (
	ENV_CONFIG_FILE_PATH = "BRIDGE_CONFIG"
)

func main() {
	logconfig.ConfigInfoLogger()

	// Tool to read environment variables
	viper.AutomaticEnv()

	// Accessing an environment variable of configuration file location.
	_config_file := viper.GetString(ENV_CONFIG_FILE_PATH)
	fmt.Printf("Bridge demo server configuration file = %s\n", _config_file)

	// See if file exists
	if !cmd.FileExists(_config_file) {
		fmt.Printf("Bridge demo server configuration file not found: %s\n", _config_file)
		return
	}

	// Read from config file.
	if !initializeViper(_config_file) {
		return
	}

	dc := PrepareDemoServerConfig()

	fmt.Println("Starting bridge demo server... press Ctrl+C to kill the server")
	// Start server and block.
	if err := cmd.StartDemoServerAndWait(dc); err != nil {
		fmt.Printf("Bridge demo server failed: %s\n", err)
	}
}

func initializeViper(filePath string) bool {
	viper.SetConfigFile(filePath)
	if err := viper.ReadInConfig(); err != nil {
		fmt.Printf("Error reading configuration file, %s", err)
		return false
	}
	return true
}

// PrepareDemoServerConfig reads configuration variables and returns a DemoServerConfig.
func PrepareDemoServerConfig() *cmd.DemoServerConfig {
	return &cmd.DemoServerConfig{
		NodeA: &cmd.NodeConfig{
			Network:     viper.GetUint64("NETWORK_A_ID"),
			DbFilePath:  viper.GetString("NETWORK_A_DB_FILE_PATH"),
			AdminAddr:   viper.GetString("NETWORK_A_ADMIN_ADDR"),
			SlippageBps: viper.GetUint32("SLIPPAGE_BPS"),
			HttpIp:      viper.GetString("HTTP_IP"),
			HttpPort:    viper.GetString("NETWORK_A_HTTP_PORT"),
		},
		NodeB: &cmd.NodeConfig{
			Network:     viper.GetUint64("NETWORK_B_ID"),
			DbFilePath:  viper.GetString("NETWORK_B_DB_FILE_PATH"),
			AdminAddr:   viper.GetString("NETWORK_B_ADMIN_ADDR"),
			SlippageBps: viper.GetUint32("SLIPPAGE_BPS"),
			HttpIp:      viper.GetString("HTTP_IP"),
			HttpPort:    viper.GetString("NETWORK_B_HTTP_PORT"),
		},
		ChannelId:     viper.GetString("CHANNEL_ID"),
		SeedLiquidity: viper.GetInt64("SEED_LIQUIDITY"),
	}
}
