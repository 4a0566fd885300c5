// Package radar drives a 24GHz mmWave presence/distance radar module
// over a serial link.
package radar

// The module streams telemetry frames continuously and accepts command
// frames only while in config mode. Both travel over the same serial
// link, so the driver never runs the telemetry ingest loop and a
// command exchange at the same time: configuration happens first, then
// ingest starts.
//
// The byte stream is unreliable. The Synchronizer recovers telemetry
// frame boundaries from arbitrary garbage, and the Commander bounds
// every command exchange with retransmission and a deadline.
//
// Producer: radar module firmware
// Consumer: host application polling ReadData
