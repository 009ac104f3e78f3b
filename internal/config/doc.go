// Package config loads composer's connection and runtime settings.
//
// # Resolution Order
//
//  1. Built-in defaults
//  2. The TOML file (explicit path, else ~/.config/composer/config.toml);
//     a missing file is not an error and blank fields keep the default
//  3. Environment variables, applied with cleanenv
//
// # TOML Format
//
//	url = "http://homeassistant.local:8123"
//	token = "<long-lived access token>"
//	domain = "nidia_magic_composer"
//	request_timeout = "10s"
//	connect_timeout = "30s"
//	rate_limit = 20
//	rate_burst = 5
//	log_file = "~/.local/state/composer/composer.log"
//	log_level = "info"
//	auto_refresh = "0s"
//
// # Environment
//
//	HASS_URL, HASS_TOKEN, COMPOSER_DOMAIN, COMPOSER_REQUEST_TIMEOUT,
//	COMPOSER_CONNECT_TIMEOUT, COMPOSER_RATE_LIMIT, COMPOSER_RATE_BURST,
//	COMPOSER_LOG_FILE, COMPOSER_LOG_LEVEL, COMPOSER_AUTO_REFRESH
//
// Durations use Go syntax ("750ms", "2m"). Tilde paths are expanded. An
// auto_refresh of zero disables periodic registry refreshes.
package config
