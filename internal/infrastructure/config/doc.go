// Package config provides configuration loading for Lumina Core.
//
// Configuration is loaded from a YAML file with environment variable
// overrides, then validated before use.
//
// # Loading Order
//
//  1. Hardcoded defaults
//  2. YAML file values
//  3. Environment variables (LUMINA_SECTION_KEY pattern)
//
// # Usage
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Cloud.BaseURL)
//
// # Secrets
//
// Cloud API tokens, MQTT credentials and the InfluxDB token should be
// supplied via environment variables (LUMINA_CLOUD_TOKEN, LUMINA_MQTT_PASSWORD,
// LUMINA_INFLUXDB_TOKEN) rather than committed to the config file.
package config
