// Package permission answers whether the host allows an alarm capability.
//
// HostGate checks exact scheduling, alert presentation and access to the
// configured sound before the controller arms an alarm.
package permission
