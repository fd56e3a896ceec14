// Package config handles loading and validating IoT Connect Core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with IOTCONNECT_* environment variables
//   - Validation of required fields and secret strength
//   - Default value handling
//
// Security Considerations:
//   - The service key, JWT secret and SMTP password should come from the
//     environment, not the YAML file
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.API.Port)
package config
