// Package config loads node configuration and builds the hash ring
// algorithm and ring it names.
package config
