// Package config loads server settings with viper from defaults, an
// optional config.yaml and CONTACTS_* environment variables, then checks
// them with validator before anything else starts.
package config
