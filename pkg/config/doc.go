// Package config loads a Connector's connection profile from a YAML
// document, so a deployment can check a host/port/timeout profile into a
// file instead of assembling a struct literal.
package config
