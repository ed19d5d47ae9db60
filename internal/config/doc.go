// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

// Package config loads and validates Haulbase configuration.
//
// Configuration is layered with koanf v2:
//
//  1. Struct defaults (defaultConfig)
//  2. Optional YAML file: $CONFIG_PATH, ./config.yaml, ./config.yml, /etc/haulbase/config.yaml
//  3. Environment variables, mapped explicitly through envMappings
//
// Comma-separated values are accepted for CORS_ORIGINS, TRUSTED_PROXIES and
// EQUIPMENT_TABLES.
//
// The package also holds the password policies applied to the bootstrap admin
// and to created users, and the CredentialEncryptor used to store integration
// secrets.
package config
