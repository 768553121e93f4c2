// Package config loads, normalizes, and validates garden configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// HF_TOKEN and GARDEN_DATASET_URL. The Config type centralizes every knob the
// curator, the development server and the CLI need.
//
// Always obtain settings through this package so downstream code receives
// absolute paths and clear validation errors.
package config
