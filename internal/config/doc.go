// Package config loads the gateway's configuration into a flat key→string
// map: YAML and key=value files are both projected down to dotted string
// keys rather than exposed as a typed tree, because every consumer in
// this repository indexes configuration by canonical dotted path (e.g.
// "mqtt.broker_host", "automation_rules[0].when.op").
//
// LoadYAMLFile and LoadKVFile merge files into one Map with typed
// accessors and env-independent defaults, trading a nested typed Config
// struct for the flat map the gateway's consumers require.
package config
