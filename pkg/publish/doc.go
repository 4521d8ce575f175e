// Package publish sends transfer metrics to an MQTT broker so plant-floor
// IIoT dashboards can follow transfer quality live.
//
// Each successful transfer is published as a JSON document on
// "<prefix>/<host>/transfers" with QoS 1.
package publish
