// Package api is the gateway's HTTP REST and WebSocket front end: device
// and rule reads, actuator commands, a rule reload endpoint, and a
// broadcast-to-all WebSocket feed of inbound MQTT traffic.
//
// The server lifecycle is api.New, Server.Start, Server.Close, and the
// WebSocket side follows a Hub/WSClient pattern generalized down to
// "broadcast every event to every connected peer" — there is no
// subscribe/unsubscribe protocol.
//
// All state-touching work is delegated to a *runtime.Engine, which owns the
// device registry, rule engine, and MQTT client; this package never reaches
// into that state directly.
package api
