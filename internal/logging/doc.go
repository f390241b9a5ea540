// Package logging provides the gateway's level-filtered line logger.
//
// It implements six ordered levels — Trace, Debug, Info, Warn, Error,
// Fatal — behind a handler that renders a fixed, human-readable line
// rather than JSON or logfmt:
//
//	2024-03-01 14:05:09 [INFO] [mqtt] connected to broker
//
// # Usage
//
//	logger, err := logging.Open(logging.Config{Path: "logs/iotgw.log", Level: logging.LevelInfo})
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Info("gateway", "starting up")
//	logger.SetLevel(logging.LevelWarn)
package logging
